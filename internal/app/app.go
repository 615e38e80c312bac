// Package app wires the store, schema, seed data and engine together.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"condopapers/internal/config"
	"condopapers/internal/db"
	"condopapers/internal/engine"
	"condopapers/internal/metrics"
	"condopapers/internal/migrate"
	"condopapers/internal/seed"
)

type Options struct {
	Config   *config.Config
	SeedPath string
	// Seed, when set, takes precedence over SeedPath.
	Seed    *seed.Data
	ActorID string
	Now     func() time.Time
	Metrics *metrics.Recorder
	Logger  *slog.Logger
}

// Bootstrap opens a fresh in-memory store, migrates it, loads seed data and
// returns an engine over it. Closing the returned *sql.DB discards the data.
func Bootstrap(ctx context.Context, opts Options) (engine.Engine, *sql.DB, error) {
	data := opts.Seed
	if data == nil {
		var err error
		if opts.SeedPath != "" {
			data, err = seed.FromFile(opts.SeedPath)
		} else {
			data, err = seed.Default()
		}
		if err != nil {
			return engine.Engine{}, nil, fmt.Errorf("load seed: %w", err)
		}
	}
	conn, err := db.Open(db.Config{})
	if err != nil {
		return engine.Engine{}, nil, fmt.Errorf("open store: %w", err)
	}
	if err := migrate.MigrateContext(ctx, conn); err != nil {
		conn.Close()
		return engine.Engine{}, nil, fmt.Errorf("migrate: %w", err)
	}
	eng, err := engine.New(conn, opts.Config)
	if err != nil {
		conn.Close()
		return engine.Engine{}, nil, err
	}
	if opts.Now != nil {
		eng.Now = opts.Now
	}
	eng.Metrics = opts.Metrics
	eng.Logger = opts.Logger
	if err := eng.Seed(ctx, data, opts.ActorID); err != nil {
		conn.Close()
		return engine.Engine{}, nil, fmt.Errorf("seed store: %w", err)
	}
	return eng, conn, nil
}
