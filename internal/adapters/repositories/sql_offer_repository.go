package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"freight-route-engine/internal/domain"
	"freight-route-engine/internal/platform/db"
	"freight-route-engine/internal/platform/obs"
	"strings"
	"time"

	"go.uber.org/zap"
)

const insertOfferQuery = `
	INSERT INTO offers (source, sender, origin_id, destination_id, price, lf_number, urgency,
		distance_km, estimated_price, additional_info, raw_message, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id;
	`

const selectOfferQuery = `
	SELECT
		o.id, o.source, o.sender, o.origin_id, o.destination_id, o.price, o.lf_number, o.urgency,
		o.distance_km, o.estimated_price, o.additional_info, o.raw_message, o.created_at,
		u.offer_id IS NOT NULL
	FROM offers o
	LEFT JOIN unverified_offers u ON u.offer_id = o.id
	`

// SQL-backed implementation of the OfferStore and CityRepository ports.
// The same queries serve SQLite and PostgreSQL; placeholders are rebound per dialect.
type SQLOfferRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
	Log     *zap.Logger
	// Clock for the lookback window; time.Now when nil.
	Now func() time.Time
}

func NewSQLOfferRepository(conn *sql.DB, dialect db.Dialect, log *zap.Logger) *SQLOfferRepository {
	if log == nil {
		log = zap.NewNop()
	}
	return &SQLOfferRepository{DB: conn, Dialect: dialect, Log: log, Now: time.Now}
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLOfferRepository) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

func (s *SQLOfferRepository) cutoff(windowDays int) time.Time {
	return s.now().AddDate(0, 0, -windowDays).UTC()
}

func (s *SQLOfferRepository) check() error {
	if s.DB == nil {
		return errors.New("sql offer repository: DB is nil")
	}
	return nil
}

// Return the offers departing cityID created within the last windowDays days, ordered by id.
func (s *SQLOfferRepository) OffersDepartingCity(ctx context.Context, cityID domain.CityID, windowDays int) (_ []domain.Offer, err error) {
	defer obs.Time(ctx, s.Log, "offers.departing")(&err)

	if err := s.check(); err != nil {
		return nil, err
	}
	if err := s.cityExists(ctx, s.DB, cityID); err != nil {
		return nil, fmt.Errorf("offers departing city: %w", err)
	}

	q := selectOfferQuery + `
	WHERE o.origin_id = ? AND o.created_at >= ?
	ORDER BY o.id;
	`
	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(q), int64(cityID), s.cutoff(windowDays))
	if err != nil {
		return nil, fmt.Errorf("offers departing city: query offers table: %w", err)
	}
	defer rows.Close()

	offers, err := scanOffers(rows)
	if err != nil {
		return nil, fmt.Errorf("offers departing city: %w", err)
	}
	return offers, nil
}

func (s *SQLOfferRepository) CountOffersDepartingCity(ctx context.Context, cityID domain.CityID, windowDays int) (_ int, err error) {
	defer obs.Time(ctx, s.Log, "offers.count")(&err)

	if err := s.check(); err != nil {
		return 0, err
	}
	if err := s.cityExists(ctx, s.DB, cityID); err != nil {
		return 0, fmt.Errorf("count offers departing city: %w", err)
	}

	q := `SELECT COUNT(*) FROM offers WHERE origin_id = ? AND created_at >= ?;`
	var n int
	if err := s.DB.QueryRowContext(ctx, s.Dialect.Rebind(q), int64(cityID), s.cutoff(windowDays)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count offers departing city: query offers table: %w", err)
	}
	return n, nil
}

func (s *SQLOfferRepository) InsertOffer(ctx context.Context, offer domain.Offer) (_ int64, err error) {
	defer obs.Time(ctx, s.Log, "offers.insert")(&err)

	if err := s.check(); err != nil {
		return 0, err
	}
	if offer.CreatedAt.IsZero() {
		offer.CreatedAt = s.now()
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert offer: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range []domain.CityID{offer.Origin, offer.Destination} {
		if err := s.cityExists(ctx, tx, id); err != nil {
			return 0, fmt.Errorf("insert offer: %w", err)
		}
	}

	var id int64
	err = tx.QueryRowContext(ctx, s.Dialect.Rebind(insertOfferQuery),
		offer.Source, offer.Sender, int64(offer.Origin), int64(offer.Destination), nullFloat(offer.Price),
		offer.LFNumber, offer.Urgency, nullFloat(offer.Distance), nullFloat(offer.EstimatedPrice),
		offer.AdditionalInfo, offer.RawMessage, offer.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert offer: insert into offers table: %w", err)
	}

	if offer.Unverified {
		if _, err := tx.ExecContext(ctx, s.Dialect.Rebind(`INSERT INTO unverified_offers (offer_id) VALUES (?);`), id); err != nil {
			return 0, fmt.Errorf("insert offer: mark unverified id=%d: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert offer: commit tx: %w", err)
	}
	return id, nil
}

func (s *SQLOfferRepository) GetOffer(ctx context.Context, id int64) (_ domain.Offer, err error) {
	defer obs.Time(ctx, s.Log, "offers.get")(&err)

	if err := s.check(); err != nil {
		return domain.Offer{}, err
	}

	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(selectOfferQuery+`WHERE o.id = ?;`), id)
	if err != nil {
		return domain.Offer{}, fmt.Errorf("get offer %d: query offers table: %w", id, err)
	}
	defer rows.Close()

	offers, err := scanOffers(rows)
	if err != nil {
		return domain.Offer{}, fmt.Errorf("get offer %d: %w", id, err)
	}
	if len(offers) == 0 {
		return domain.Offer{}, fmt.Errorf("get offer %d: %w", id, domain.ErrOfferNotFound)
	}
	return offers[0], nil
}

// Return every offer flagged for manual correction, ordered by id.
func (s *SQLOfferRepository) ListUnverified(ctx context.Context) (_ []domain.Offer, err error) {
	defer obs.Time(ctx, s.Log, "offers.unverified")(&err)

	if err := s.check(); err != nil {
		return nil, err
	}

	q := `
	SELECT
		o.id, o.source, o.sender, o.origin_id, o.destination_id, o.price, o.lf_number, o.urgency,
		o.distance_km, o.estimated_price, o.additional_info, o.raw_message, o.created_at,
		TRUE
	FROM offers o
	JOIN unverified_offers u ON u.offer_id = o.id
	ORDER BY o.id;
	`
	rows, err := s.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list unverified offers: query offers table: %w", err)
	}
	defer rows.Close()

	offers, err := scanOffers(rows)
	if err != nil {
		return nil, fmt.Errorf("list unverified offers: %w", err)
	}
	return offers, nil
}

func (s *SQLOfferRepository) MarkUnverified(ctx context.Context, id int64) (err error) {
	defer obs.Time(ctx, s.Log, "offers.markUnverified")(&err)

	if err := s.check(); err != nil {
		return err
	}
	if err := s.offerExists(ctx, s.DB, id); err != nil {
		return fmt.Errorf("mark unverified: %w", err)
	}

	q := `
	INSERT INTO unverified_offers (offer_id) VALUES (?)
	ON CONFLICT (offer_id) DO NOTHING;
	`
	if _, err := s.DB.ExecContext(ctx, s.Dialect.Rebind(q), id); err != nil {
		return fmt.Errorf("mark unverified %d: insert: %w", id, err)
	}
	return nil
}

// Replace origin, destination and price of an offer and clear its unverified flag in one transaction.
func (s *SQLOfferRepository) CorrectOffer(ctx context.Context, id int64, c domain.Correction) (err error) {
	defer obs.Time(ctx, s.Log, "offers.correct")(&err)

	if err := s.check(); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("correct offer: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.offerExists(ctx, tx, id); err != nil {
		return fmt.Errorf("correct offer: %w", err)
	}
	for _, cityID := range []domain.CityID{c.Origin, c.Destination} {
		if err := s.cityExists(ctx, tx, cityID); err != nil {
			return fmt.Errorf("correct offer %d: %w", id, err)
		}
	}

	update := `UPDATE offers SET origin_id = ?, destination_id = ?, price = ? WHERE id = ?;`
	if _, err := tx.ExecContext(ctx, s.Dialect.Rebind(update),
		int64(c.Origin), int64(c.Destination), nullFloat(c.Price), id); err != nil {
		return fmt.Errorf("correct offer %d: update offers table: %w", id, err)
	}

	if _, err := tx.ExecContext(ctx, s.Dialect.Rebind(`DELETE FROM unverified_offers WHERE offer_id = ?;`), id); err != nil {
		return fmt.Errorf("correct offer %d: clear unverified: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("correct offer %d: commit tx: %w", id, err)
	}
	return nil
}

func (s *SQLOfferRepository) GetCity(ctx context.Context, id domain.CityID) (_ domain.City, err error) {
	defer obs.Time(ctx, s.Log, "cities.get")(&err)

	if err := s.check(); err != nil {
		return domain.City{}, err
	}

	q := `SELECT id, name, country_code, lat, lon FROM cities WHERE id = ?;`
	c, err := scanCity(s.DB.QueryRowContext(ctx, s.Dialect.Rebind(q), int64(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.City{}, fmt.Errorf("get city %d: %w", id, domain.ErrCityNotFound)
	}
	if err != nil {
		return domain.City{}, fmt.Errorf("get city %d: %w", id, err)
	}
	return c, nil
}

// Resolve a canonical city name or a known alias, case-insensitively.
func (s *SQLOfferRepository) FindCity(ctx context.Context, name string) (_ domain.City, err error) {
	defer obs.Time(ctx, s.Log, "cities.find")(&err)

	if err := s.check(); err != nil {
		return domain.City{}, err
	}

	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return domain.City{}, fmt.Errorf("find city: empty name: %w", domain.ErrCityNotFound)
	}

	byName := `
	SELECT id, name, country_code, lat, lon FROM cities
	WHERE LOWER(name) = ?
	ORDER BY id
	LIMIT 1;
	`
	c, err := scanCity(s.DB.QueryRowContext(ctx, s.Dialect.Rebind(byName), key))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return domain.City{}, fmt.Errorf("find city %q: query cities table: %w", name, err)
	}

	byAlias := `
	SELECT c.id, c.name, c.country_code, c.lat, c.lon
	FROM city_aliases a
	JOIN cities c ON c.id = a.city_id
	WHERE a.alias = ?;
	`
	c, err = scanCity(s.DB.QueryRowContext(ctx, s.Dialect.Rebind(byAlias), key))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.City{}, fmt.Errorf("find city %q: %w", name, domain.ErrCityNotFound)
	}
	if err != nil {
		return domain.City{}, fmt.Errorf("find city %q: query city_aliases table: %w", name, err)
	}
	return c, nil
}

func (s *SQLOfferRepository) cityExists(ctx context.Context, q queryer, id domain.CityID) error {
	var one int
	err := q.QueryRowContext(ctx, s.Dialect.Rebind(`SELECT 1 FROM cities WHERE id = ?;`), int64(id)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("city %d: %w", id, domain.ErrCityNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup city %d: %w", id, err)
	}
	return nil
}

func (s *SQLOfferRepository) offerExists(ctx context.Context, q queryer, id int64) error {
	var one int
	err := q.QueryRowContext(ctx, s.Dialect.Rebind(`SELECT 1 FROM offers WHERE id = ?;`), id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("offer %d: %w", id, domain.ErrOfferNotFound)
	}
	if err != nil {
		return fmt.Errorf("lookup offer %d: %w", id, err)
	}
	return nil
}

func scanOffers(rows *sql.Rows) ([]domain.Offer, error) {
	offers := make([]domain.Offer, 0, 16)
	for rows.Next() {
		var (
			o                          domain.Offer
			origin, dest               int64
			price, distance, estimated sql.NullFloat64
		)
		err := rows.Scan(&o.ID, &o.Source, &o.Sender, &origin, &dest, &price, &o.LFNumber, &o.Urgency,
			&distance, &estimated, &o.AdditionalInfo, &o.RawMessage, &o.CreatedAt, &o.Unverified)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		o.Origin = domain.CityID(origin)
		o.Destination = domain.CityID(dest)
		o.Price = floatPtr(price)
		o.Distance = floatPtr(distance)
		o.EstimatedPrice = floatPtr(estimated)
		offers = append(offers, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return offers, nil
}

func scanCity(row *sql.Row) (domain.City, error) {
	var c domain.City
	var id int64
	if err := row.Scan(&id, &c.Name, &c.CountryCode, &c.Location.Lat, &c.Location.Lon); err != nil {
		return domain.City{}, err
	}
	c.ID = domain.CityID(id)
	return c, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
