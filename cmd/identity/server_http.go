package main

import (
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/openchatd/identity/internal/auth"
	config "github.com/openchatd/identity/internal/config/identity"
	"github.com/openchatd/identity/internal/domain/event"
	"github.com/openchatd/identity/internal/ratelimit"
	pg "github.com/openchatd/identity/internal/repository/postgres"
	"github.com/openchatd/identity/internal/services/identity"
)

func buildHTTPServer(cfg *config.Config, logger *zap.Logger, db *pg.DB, buckets ratelimit.Store, events event.Publisher) *http.Server {
	users := pg.NewUserStore(db)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	tokens := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  []byte(cfg.Auth.AccessSecret),
		RefreshSecret: []byte(cfg.Auth.RefreshSecret),
		AccessTTL:     cfg.Auth.AccessTTL,
		RefreshTTL:    cfg.Auth.RefreshTTL,
	})

	uc := identity.NewUsecase(logger, users, hasher, tokens, events)
	ctrl := identity.NewController(logger, uc)
	gate := identity.NewGate(logger, tokens, users)
	limiter := ratelimit.New(buckets, cfg.RateLimit.Window, cfg.RateLimit.MaxRequests)

	mux := http.NewServeMux()
	ctrl.Register(mux, gate, identity.NewRateLimit(limiter, cfg.RateLimit.TrustProxyHeader))

	return &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           otelhttp.NewHandler(mux, "identity.http"),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}
