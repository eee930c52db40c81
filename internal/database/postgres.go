// Package database provides the optional PostgreSQL archive for normalized
// price records.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/DataNerdsMX/fuel-prices-mx/internal/models"
)

// DB wraps the PostgreSQL connection and provides archive operations.
type DB struct {
	db     *sql.DB
	logger zerolog.Logger
}

// New creates a new database connection.
func New(dsn string, logger zerolog.Logger) (*DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test the connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &DB{
		db:     db,
		logger: logger.With().Str("component", "database").Logger(),
	}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks if the database connection is alive.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// EnsureSchema creates the fuel_prices table when it does not exist yet.
func (d *DB) EnsureSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS fuel_prices (
			id BIGSERIAL PRIMARY KEY,
			state_id TEXT NOT NULL,
			location_id TEXT NOT NULL,
			state TEXT NOT NULL,
			location TEXT NOT NULL,
			brand TEXT NOT NULL,
			station TEXT NOT NULL,
			fuel_type TEXT NOT NULL,
			product TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			UNIQUE (state_id, location_id, station, product, applied_at)
		)
	`
	if _, err := d.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("creating fuel_prices table: %w", err)
	}
	return nil
}

// InsertPrices upserts a run's records into the fuel_prices table and returns
// how many were written.
func (d *DB) InsertPrices(ctx context.Context, records []models.PriceRecord) (int, error) {
	query := `
		INSERT INTO fuel_prices (state_id, location_id, state, location, brand, station, fuel_type, product, price, applied_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (state_id, location_id, station, product, applied_at)
		DO UPDATE SET
			price = EXCLUDED.price,
			brand = EXCLUDED.brand
	`

	inserted := 0
	for _, r := range records {
		_, err := d.db.ExecContext(ctx, query,
			r.Location.Key.StateID,
			r.Location.Key.LocationID,
			r.Location.State,
			r.Location.Name,
			r.Brand,
			r.Station,
			string(r.Type),
			r.Product,
			r.Price,
			time.Unix(r.AppliedAt, 0),
		)
		if err != nil {
			return inserted, fmt.Errorf("inserting price record for %s: %w", r.Location.Key, err)
		}
		inserted++
	}

	d.logger.Debug().Int("records", inserted).Msg("archived price records")
	return inserted, nil
}

// CountPrices returns the total number of archived price records.
func (d *DB) CountPrices(ctx context.Context) (int64, error) {
	var count int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fuel_prices`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting price records: %w", err)
	}
	return count, nil
}
