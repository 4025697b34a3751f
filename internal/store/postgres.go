// Package store persists readings and threshold configuration. The Postgres
// repositories are the durable source of truth; the memory variants back
// dev mode and tests.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/couchcryptid/water-quality-monitor/internal/domain"
)

// Open connects to Postgres and verifies the connection.
func Open(dsn string, maxConns int) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}
	if err := db.Ping(); err != nil {
		db.Close() //nolint:errcheck // already failing
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the readings log and thresholds table if missing and
// seeds the factory threshold defaults. Existing rows are never touched.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS readings (
			id BIGSERIAL PRIMARY KEY,
			recorded_at TIMESTAMPTZ NOT NULL,
			ph DOUBLE PRECISION,
			turbidity DOUBLE PRECISION,
			rfc DOUBLE PRECISION,
			tds DOUBLE PRECISION,
			lat DOUBLE PRECISION,
			lon DOUBLE PRECISION,
			severity TEXT NOT NULL
		);
		CREATE TABLE IF NOT EXISTS thresholds (
			key TEXT PRIMARY KEY,
			value DOUBLE PRECISION NOT NULL
		);`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	for key, value := range domain.DefaultThresholds() {
		_, err := db.ExecContext(ctx,
			`INSERT INTO thresholds (key, value) VALUES ($1, $2) ON CONFLICT (key) DO NOTHING`,
			key, value)
		if err != nil {
			return fmt.Errorf("seed threshold %s: %w", key, err)
		}
	}
	return nil
}

// nullToPtr converts a scanned NULLable column to an optional measurement.
func nullToPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}
