package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/refcue/internal/common"
	repo "github.com/joseph-ayodele/refcue/internal/repository"
)

// ConnectDB opens the configured store and brings its schema up to date.
func ConnectDB(ctx context.Context, cfg common.DatabaseConfig, logger *slog.Logger) (*repo.DB, error) {
	maxConns := cfg.MaxConns
	if maxConns == 0 {
		maxConns = 20
	}
	db, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.DSN,
		MaxConns:        maxConns,
		MinConns:        cfg.MinConns,
		MaxConnLifetime: cfg.MaxConnLifetime,
		MaxConnIdleTime: cfg.MaxConnIdleTime,
		DialTimeout:     cfg.DialTimeout,
	}, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		return nil, err
	}
	if err := db.Migrate(ctx, logger); err != nil {
		db.Close(logger)
		return nil, err
	}
	return db, nil
}

// PingDB pings the database to ensure it's responsive
func PingDB(ctx context.Context, db *repo.DB, logger *slog.Logger, timeout time.Duration) error {
	return db.HealthCheck(ctx, timeout, logger)
}
