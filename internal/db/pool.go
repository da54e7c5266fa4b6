package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	"streetplan/internal/config"
)

// NewPool builds a pgx pool from cfg and waits until the database answers a
// ping, retrying with exponential backoff up to cfg.ConnectRetries times.
// The pool is closed when every attempt fails.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger *slog.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.URL.Unmask())
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.MinConns = cfg.MinConns
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create database pool: %w", err)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 250 * time.Millisecond
	bo.MaxInterval = 5 * time.Second

	attempt := 0
	ping := func() error {
		attempt++
		return pool.Ping(ctx)
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn("database not reachable, retrying",
			"attempt", attempt,
			"retry_in", wait,
			"error", err,
		)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, cfg.ConnectRetries), ctx)
	if err := backoff.RetryNotify(ping, policy, notify); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable after %d attempts: %w", attempt, err)
	}

	logger.Info("database pool ready",
		"max_conns", poolCfg.MaxConns,
		"min_conns", poolCfg.MinConns,
	)
	return pool, nil
}

// Pinger is the part of *pgxpool.Pool used by the health probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthProbe reports database reachability on GET /health.
type HealthProbe struct {
	db Pinger
}

func NewHealthProbe(db Pinger) *HealthProbe {
	return &HealthProbe{db: db}
}

func (p *HealthProbe) Name() string { return "database" }

func (p *HealthProbe) Check(ctx context.Context) error {
	return p.db.Ping(ctx)
}
