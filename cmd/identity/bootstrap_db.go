package main

import (
	"context"

	config "github.com/openchatd/identity/internal/config/identity"
	pg "github.com/openchatd/identity/internal/repository/postgres"
)

func initDB(ctx context.Context, cfg *config.Config) (*pg.DB, error) {
	return pg.New(ctx, cfg.DB.AsPoolConfig())
}
