package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // postgres driver
)

// Connect открывает пул соединений с Postgres и проверяет доступность
// базы пингом с таймаутом.
func Connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	pool, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database handle: %w", err)
	}

	pool.SetMaxOpenConns(25)
	pool.SetMaxIdleConns(25)
	pool.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := pool.PingContext(ctx); err != nil {
		err = fmt.Errorf("failed to ping database within %v: %w", timeout, err)
		if closeErr := pool.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("failed to close database handle: %w", closeErr))
		}
		return nil, err
	}

	return pool, nil
}
