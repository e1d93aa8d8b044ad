package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrSchemaNotReady is returned by CheckReady while migrations are missing or dirty.
var ErrSchemaNotReady = errors.New("database schema not ready")

const checkTimeout = 2 * time.Second

// CheckHealth pings the database.
func CheckHealth(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	return pool.Ping(ctx)
}

// CheckReady pings the database and requires the last migration to have completed.
func CheckReady(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	var (
		version int64
		dirty   bool
	)
	err := pool.QueryRow(ctx, `SELECT version, dirty FROM schema_migrations LIMIT 1`).Scan(&version, &dirty)
	switch {
	case errors.Is(err, pgx.ErrNoRows), IsUndefinedTable(err):
		return fmt.Errorf("%w: no migration applied", ErrSchemaNotReady)
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case dirty:
		return fmt.Errorf("%w: migration %d did not complete", ErrSchemaNotReady, version)
	}
	return nil
}
