package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"freight-route-engine/internal/domain"
	"freight-route-engine/internal/platform/db"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Seed is the on-disk fixture format for cities, their aliases and offers.
// Offers reference cities by name or alias.
type Seed struct {
	Cities []CitySeed  `json:"cities" yaml:"cities"`
	Offers []OfferSeed `json:"offers" yaml:"offers"`
}

type CitySeed struct {
	ID          int64    `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	CountryCode string   `json:"country_code" yaml:"country_code"`
	Lat         float64  `json:"lat" yaml:"lat"`
	Lon         float64  `json:"lon" yaml:"lon"`
	Aliases     []string `json:"aliases" yaml:"aliases"`
}

type OfferSeed struct {
	ID             int64    `json:"id" yaml:"id"`
	Source         string   `json:"source" yaml:"source"`
	Sender         string   `json:"sender" yaml:"sender"`
	Origin         string   `json:"origin" yaml:"origin"`
	Destination    string   `json:"destination" yaml:"destination"`
	Price          *float64 `json:"price" yaml:"price"`
	LFNumber       string   `json:"lf_number" yaml:"lf_number"`
	Urgency        string   `json:"urgency" yaml:"urgency"`
	DistanceKm     *float64 `json:"distance_km" yaml:"distance_km"`
	EstimatedPrice *float64 `json:"estimated_price" yaml:"estimated_price"`
	AdditionalInfo string   `json:"additional_info" yaml:"additional_info"`
	// Age of the offer relative to seeding time.
	AgeHours   float64 `json:"age_hours" yaml:"age_hours"`
	Unverified bool    `json:"unverified" yaml:"unverified"`
}

// ReadSeedFile parses a JSON or YAML seed file, chosen by extension.
func ReadSeedFile(path string) (Seed, error) {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: read %q: %w", path, err)
	}

	var seed Seed
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(bytes, &seed); err != nil {
			return Seed{}, fmt.Errorf("read seed: parse yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(bytes, &seed); err != nil {
			return Seed{}, fmt.Errorf("read seed: parse json: %w", err)
		}
	}

	return seed, nil
}

// Resolve validates the seed and converts it into cities, aliases and offers.
// Offer timestamps are computed from now.
func (s Seed) Resolve(now time.Time) ([]domain.City, map[string]domain.CityID, []domain.Offer, error) {
	cities := make([]domain.City, 0, len(s.Cities))
	byName := make(map[string]domain.CityID, len(s.Cities))
	aliases := make(map[string]domain.CityID)

	for i, c := range s.Cities {
		if c.ID <= 0 {
			return nil, nil, nil, fmt.Errorf("seed cities: invalid id at index %d: %d", i+1, c.ID)
		}
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, nil, nil, fmt.Errorf("seed cities: city at index %d: name cannot be empty", i+1)
		}

		id := domain.CityID(c.ID)
		cities = append(cities, domain.City{
			ID:          id,
			Name:        name,
			CountryCode: strings.ToUpper(strings.TrimSpace(c.CountryCode)),
			Location:    domain.Coordinates{Lon: c.Lon, Lat: c.Lat},
		})
		byName[strings.ToLower(name)] = id
		for _, a := range c.Aliases {
			if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
				aliases[a] = id
			}
		}
	}

	lookup := func(name string) (domain.CityID, bool) {
		key := strings.ToLower(strings.TrimSpace(name))
		if id, ok := byName[key]; ok {
			return id, true
		}
		id, ok := aliases[key]
		return id, ok
	}

	offers := make([]domain.Offer, 0, len(s.Offers))
	for i, o := range s.Offers {
		origin, ok := lookup(o.Origin)
		if !ok {
			return nil, nil, nil, fmt.Errorf("seed offers: offer at index %d: origin %q: %w", i+1, o.Origin, domain.ErrCityNotFound)
		}
		dest, ok := lookup(o.Destination)
		if !ok {
			return nil, nil, nil, fmt.Errorf("seed offers: offer at index %d: destination %q: %w", i+1, o.Destination, domain.ErrCityNotFound)
		}

		offers = append(offers, domain.Offer{
			ID:             o.ID,
			Source:         o.Source,
			Sender:         o.Sender,
			Origin:         origin,
			Destination:    dest,
			Price:          o.Price,
			LFNumber:       o.LFNumber,
			Urgency:        o.Urgency,
			Distance:       o.DistanceKm,
			EstimatedPrice: o.EstimatedPrice,
			AdditionalInfo: o.AdditionalInfo,
			Unverified:     o.Unverified,
			CreatedAt:      now.Add(-time.Duration(o.AgeHours * float64(time.Hour))).UTC(),
		})
	}

	return cities, aliases, offers, nil
}

// SeedFromFile loads a seed file into the database. Cities, aliases and offers
// with an explicit id are upserted, so the seed can be applied repeatedly.
func SeedFromFile(conn *sql.DB, dialect db.Dialect, path string) error {
	if conn == nil {
		return errors.New("seed: DB is nil")
	}

	seed, err := ReadSeedFile(path)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	cities, aliases, offers, err := seed.Resolve(time.Now())
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}

	tx, err := conn.Begin()
	if err != nil {
		return fmt.Errorf("seed: begin tx: %w", err)
	}
	defer tx.Rollback()

	cityStmt, err := tx.Prepare(dialect.Rebind(`
	INSERT INTO cities (id, name, country_code, lat, lon)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET name = EXCLUDED.name,
		country_code = EXCLUDED.country_code,
		lat = EXCLUDED.lat,
		lon = EXCLUDED.lon;
	`))
	if err != nil {
		return fmt.Errorf("seed cities: prepare insert: %w", err)
	}
	defer cityStmt.Close()

	for _, c := range cities {
		if _, err := cityStmt.Exec(int64(c.ID), c.Name, c.CountryCode, c.Location.Lat, c.Location.Lon); err != nil {
			return fmt.Errorf("seed cities: insert id=%d: %w", c.ID, err)
		}
	}

	aliasStmt, err := tx.Prepare(dialect.Rebind(`
	INSERT INTO city_aliases (alias, city_id)
	VALUES (?, ?)
	ON CONFLICT (alias) DO UPDATE SET city_id = EXCLUDED.city_id;
	`))
	if err != nil {
		return fmt.Errorf("seed aliases: prepare insert: %w", err)
	}
	defer aliasStmt.Close()

	for alias, id := range aliases {
		if _, err := aliasStmt.Exec(alias, int64(id)); err != nil {
			return fmt.Errorf("seed aliases: insert alias=%q: %w", alias, err)
		}
	}

	for i, o := range offers {
		id, err := upsertOffer(tx, dialect, o)
		if err != nil {
			return fmt.Errorf("seed offers: offer at index %d: %w", i+1, err)
		}
		if o.Unverified {
			if _, err := tx.Exec(dialect.Rebind(`
			INSERT INTO unverified_offers (offer_id) VALUES (?)
			ON CONFLICT (offer_id) DO NOTHING;
			`), id); err != nil {
				return fmt.Errorf("seed offers: mark unverified id=%d: %w", id, err)
			}
		}
	}

	if dialect == db.Postgres {
		if _, err := tx.Exec(`SELECT setval(pg_get_serial_sequence('offers', 'id'), COALESCE((SELECT MAX(id) FROM offers), 1));`); err != nil {
			return fmt.Errorf("seed offers: sync id sequence: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed: commit tx: %w", err)
	}

	return nil
}

func upsertOffer(tx *sql.Tx, dialect db.Dialect, o domain.Offer) (int64, error) {
	args := []any{
		o.Source, o.Sender, int64(o.Origin), int64(o.Destination), nullFloat(o.Price),
		o.LFNumber, o.Urgency, nullFloat(o.Distance), nullFloat(o.EstimatedPrice),
		o.AdditionalInfo, o.RawMessage, o.CreatedAt.UTC(),
	}

	if o.ID <= 0 {
		var id int64
		err := tx.QueryRow(dialect.Rebind(insertOfferQuery), args...).Scan(&id)
		if err != nil {
			return 0, fmt.Errorf("insert offer: %w", err)
		}
		return id, nil
	}

	_, err := tx.Exec(dialect.Rebind(`
	INSERT INTO offers (id, source, sender, origin_id, destination_id, price, lf_number, urgency,
		distance_km, estimated_price, additional_info, raw_message, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE
	SET source = EXCLUDED.source,
		sender = EXCLUDED.sender,
		origin_id = EXCLUDED.origin_id,
		destination_id = EXCLUDED.destination_id,
		price = EXCLUDED.price,
		lf_number = EXCLUDED.lf_number,
		urgency = EXCLUDED.urgency,
		distance_km = EXCLUDED.distance_km,
		estimated_price = EXCLUDED.estimated_price,
		additional_info = EXCLUDED.additional_info,
		raw_message = EXCLUDED.raw_message,
		created_at = EXCLUDED.created_at;
	`), append([]any{o.ID}, args...)...)
	if err != nil {
		return 0, fmt.Errorf("upsert offer id=%d: %w", o.ID, err)
	}
	return o.ID, nil
}
