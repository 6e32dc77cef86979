package app

import (
	"context"
	"net/http"

	"sso-service/internal/account"
	"sso-service/internal/account/postgres"
	"sso-service/internal/auth/handler"
	"sso-service/internal/auth/login"
	"sso-service/internal/auth/profilesync"
	"sso-service/internal/auth/provider/oidc"
	"sso-service/internal/auth/provisioner"
	"sso-service/internal/auth/resolver"
	"sso-service/internal/config"
	"sso-service/internal/metrics"
	"sso-service/internal/middleware"
	"sso-service/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {
	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	loginMetrics := metrics.New(registry)

	accounts := postgres.NewStore(infra.DB)
	sessionStore := session.NewRedisStore(infra.Redis.Client)

	idp, err := oidc.New(ctx, oidc.Options{
		Issuer:        cfg.OIDCIssuer,
		ClientID:      cfg.OIDCClientID,
		ClientSecret:  cfg.OIDCClientSecret,
		RedirectURL:   cfg.OIDCRedirectURL,
		PublicBaseURL: cfg.OIDCPublicBaseURL,
	})
	if err != nil {
		_ = infra.Close()
		return nil, nil, err
	}

	orchestrator := login.New(
		resolver.New(accounts),
		provisioner.New(accounts, accounts, policyFrom(cfg)),
		profilesync.New(accounts, accounts),
		session.NewEstablisher(sessionStore, cfg.SessionTTL, cfg.SessionIdleTTL),
		loginMetrics,
	)

	authHandler := handler.NewHandler(
		idp,
		orchestrator,
		sessionStore,
		accounts,
		accounts,
		session.CookieOptions{Secure: cfg.CookieSecure},
	)

	authMiddleware := middleware.NewAuthMiddleware(sessionStore, cfg.SessionIdleTTL)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := router.Group("/api")
	api.Use(middleware.GinRequireAuth(authMiddleware))
	authHandler.RegisterAPI(api)

	return router, infra.Close, nil
}

func policyFrom(cfg config.Config) provisioner.Policy {
	return provisioner.Policy{
		AutoProvision: cfg.AutoProvision,
		BcryptCost:    cfg.BcryptCost,
		Defaults: account.Defaults{
			Locale:   cfg.DefaultLocale,
			Timezone: cfg.DefaultTimezone,
			City:     cfg.DefaultCity,
			Country:  cfg.DefaultCountry,
		},
	}
}
