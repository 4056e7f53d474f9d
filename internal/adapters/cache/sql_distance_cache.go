package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"freight-route-engine/internal/domain"
	"freight-route-engine/internal/platform/db"
	"freight-route-engine/internal/platform/obs"
	"freight-route-engine/internal/ports"
	"strings"

	"go.uber.org/zap"
)

// SQLDistanceCache is a SQL-backed cache for city-to-city road distances.
type SQLDistanceCache struct {
	DB      *sql.DB
	Dialect db.Dialect
	Log     *zap.Logger
}

func NewSQLDistanceCache(conn *sql.DB, dialect db.Dialect, log *zap.Logger) *SQLDistanceCache {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLDistanceCache{DB: conn, Dialect: dialect, Log: log}
}

// Fetch cached distances for one origin and multiple destinations.
// Destinations without a cached entry are absent from the result.
func (s *SQLDistanceCache) GetMany(
	ctx context.Context,
	origin domain.CityID,
	destinations []domain.CityID,
) (_ map[domain.CityID]ports.DistanceResult, err error) {
	defer obs.Time(ctx, s.Log, "distance.cache.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("distance cache: db is nil")
	}

	seen := map[domain.CityID]struct{}{}
	args := make([]any, 0, 1+len(destinations))
	args = append(args, int64(origin))
	ph := make([]string, 0, len(destinations))
	for _, d := range destinations {
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		args = append(args, int64(d))
		ph = append(ph, "?")
	}

	if len(ph) == 0 {
		return map[domain.CityID]ports.DistanceResult{}, nil
	}

	q := `
	SELECT destination_id, distance_meters, duration_seconds
	FROM distance_cache
	WHERE origin_id = ?
		AND destination_id IN (` + strings.Join(ph, ",") + `);
	`

	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("get distance cache: query distance_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[domain.CityID]ports.DistanceResult, len(ph))
	for rows.Next() {
		var dest int64
		var meters, seconds int
		if err := rows.Scan(&dest, &meters, &seconds); err != nil {
			return nil, fmt.Errorf("get distance cache: scan rows: %w", err)
		}
		out[domain.CityID(dest)] = ports.DistanceResult{
			DistanceMeters:  meters,
			DurationSeconds: seconds,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get distance cache: row iteration: %w", err)
	}

	return out, nil
}

// Store many cached distance results for a single origin.
func (s *SQLDistanceCache) PutMany(
	ctx context.Context,
	origin domain.CityID,
	results map[domain.CityID]ports.DistanceResult,
) (err error) {
	defer obs.Time(ctx, s.Log, "distance.cache.PutMany")(&err)

	if s.DB == nil {
		return errors.New("distance cache: db is nil")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert distance cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.Dialect.Rebind(`
	INSERT INTO distance_cache (origin_id, destination_id, distance_meters, duration_seconds)
	VALUES (?, ?, ?, ?)
	ON CONFLICT (origin_id, destination_id) DO UPDATE
	SET distance_meters = EXCLUDED.distance_meters,
		duration_seconds = EXCLUDED.duration_seconds;
	`))
	if err != nil {
		return fmt.Errorf("insert distance cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for dest, r := range results {
		if _, err := stmt.ExecContext(ctx, int64(origin), int64(dest), r.DistanceMeters, r.DurationSeconds); err != nil {
			return fmt.Errorf("insert distance cache dest=%d: %w", dest, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert distance cache commit: %w", err)
	}

	return nil
}
