// Package db owns the PostgreSQL connection pool shared by all services.
package db

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// NewPool connects using DATABASE_URL and verifies the connection with a
// ping. DATABASE_MAX_CONNS optionally caps the pool; report exports and
// batch confirmations hold connections longer than the CRUD paths, so
// idle connections are recycled after five minutes.
func NewPool(ctx context.Context) (*pgxpool.Pool, error) {
	connStr := os.Getenv("DATABASE_URL")
	if connStr == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable not set")
	}

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse DATABASE_URL: %w", err)
	}
	config.MaxConnIdleTime = 5 * time.Minute

	if v := os.Getenv("DATABASE_MAX_CONNS"); v != "" {
		maxConns, err := strconv.ParseInt(v, 10, 32)
		if err != nil || maxConns < 1 {
			return nil, fmt.Errorf("invalid DATABASE_MAX_CONNS %q", v)
		}
		config.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return pool, nil
}
