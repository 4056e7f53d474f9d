package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"freight-route-engine/internal/platform/db"
)

// InitSchema creates the offer store tables for the given dialect.
func InitSchema(conn *sql.DB, dialect db.Dialect) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	offerID := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if dialect == db.Postgres {
		offerID = "BIGSERIAL PRIMARY KEY"
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createCitiesQuery := `
	CREATE TABLE IF NOT EXISTS cities (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		country_code TEXT NOT NULL DEFAULT '',
		lat DOUBLE PRECISION NOT NULL DEFAULT 0,
		lon DOUBLE PRECISION NOT NULL DEFAULT 0
	);
	`

	createAliasesQuery := `
	CREATE TABLE IF NOT EXISTS city_aliases (
		alias TEXT PRIMARY KEY,
		city_id INTEGER NOT NULL REFERENCES cities(id)
	);
	`

	createOffersQuery := `
	CREATE TABLE IF NOT EXISTS offers (
		id ` + offerID + `,
		source TEXT NOT NULL DEFAULT '',
		sender TEXT NOT NULL DEFAULT '',
		origin_id INTEGER NOT NULL REFERENCES cities(id),
		destination_id INTEGER NOT NULL REFERENCES cities(id),
		price DOUBLE PRECISION,
		lf_number TEXT NOT NULL DEFAULT '',
		urgency TEXT NOT NULL DEFAULT '',
		distance_km DOUBLE PRECISION,
		estimated_price DOUBLE PRECISION,
		additional_info TEXT NOT NULL DEFAULT '',
		raw_message TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL
	);
	`

	createUnverifiedQuery := `
	CREATE TABLE IF NOT EXISTS unverified_offers (
		offer_id INTEGER PRIMARY KEY REFERENCES offers(id)
	);
	`

	createDistanceCacheQuery := `
	CREATE TABLE IF NOT EXISTS distance_cache (
		origin_id INTEGER NOT NULL,
		destination_id INTEGER NOT NULL,
		distance_meters INTEGER NOT NULL,
		duration_seconds INTEGER NOT NULL,
		PRIMARY KEY (origin_id, destination_id)
	);
	`

	createOfferIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_offers_origin_created
	ON offers(origin_id, created_at);
	`

	statements := []string{
		createCitiesQuery,
		createAliasesQuery,
		createOffersQuery,
		createUnverifiedQuery,
		createDistanceCacheQuery,
		createOfferIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}
