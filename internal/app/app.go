// Package app assembles the SSO service: infrastructure, login flow and
// HTTP routes.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"sso-service/internal/config"
	"sso-service/internal/logger"
)

type App struct {
	httpServer *http.Server
	cleanup    func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	router, cleanup, err := setupHTTP(ctx, cfg)
	if err != nil {
		return nil, err
	}

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		httpServer: server,
		cleanup:    cleanup,
	}, nil
}

// Run serves until Shutdown is called.
func (a *App) Run() error {
	err := a.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown drains in-flight requests, then releases Postgres and Redis.
func (a *App) Shutdown(ctx context.Context) error {
	serverErr := a.httpServer.Shutdown(ctx)
	if serverErr != nil {
		logger.Warn("http shutdown incomplete", map[string]any{
			"error": serverErr.Error(),
		})
	}

	var cleanupErr error
	if a.cleanup != nil {
		cleanupErr = a.cleanup()
	}
	return errors.Join(serverErr, cleanupErr)
}
