package app

import (
	"context"
	"errors"

	"sso-service/internal/config"
	"sso-service/internal/db"
	"sso-service/internal/logger"
	"sso-service/internal/redis"
)

type Infra struct {
	DB    *db.DB
	Redis *redis.Client
}

func setupInfra(ctx context.Context, cfg config.Config) (*Infra, error) {
	if err := db.Migrate(cfg.DatabaseDSN); err != nil {
		return nil, err
	}

	database, err := db.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	logger.Info("database ready", nil)

	redisClient, err := redis.New(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	logger.Info("redis ready", nil)

	return &Infra{
		DB:    database,
		Redis: redisClient,
	}, nil
}

func (i *Infra) Close() error {
	return errors.Join(i.Redis.Close(), i.DB.Close())
}
