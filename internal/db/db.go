// Package db owns the Postgres connection pool and the schema migrations
// embedded in the binary.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations
var migrationsFS embed.FS

// connectTimeout bounds the initial ping so a bad DATABASE_URL fails startup
// fast instead of hanging it.
const connectTimeout = 5 * time.Second

// minPoolConns keeps enough connections for list endpoints that issue a
// count and a page fetch per request.
const minPoolConns = 8

// Connect opens and verifies a pgx pool for the API.
func Connect(databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns < minPoolConns {
		cfg.MaxConns = minPoolConns
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	log.Printf("db: connected (max conns %d)", cfg.MaxConns)
	return pool, nil
}

// Migrate applies pending up migrations for the users, gallery_items, and
// clients tables. An already-current schema is not an error.
func Migrate(databaseURL string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	switch err := m.Up(); {
	case err == nil:
		log.Println("db: schema migrated")
	case errors.Is(err, migrate.ErrNoChange):
		log.Println("db: schema up to date")
	default:
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
