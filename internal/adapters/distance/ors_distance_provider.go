package distance

import (
	"context"
	"errors"
	"fmt"
	"freight-route-engine/internal/adapters/cache"
	"freight-route-engine/internal/domain"
	"freight-route-engine/internal/platform/obs"
	"freight-route-engine/internal/ports"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type ORSOptions struct {
	APIKey  string
	BaseURL string
	Profile string
	// Outbound request budget; zero disables throttling.
	RequestsPerSecond float64
	Timeout           time.Duration
}

// ORSDistanceProvider implements DistanceMatrixProvider using the OpenRouteService
// matrix API between city coordinates.
//
// It coordinates:
//   - Persistent distance caching keyed by city pair
//   - Client-side throttling to stay inside the ORS quota
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSDistanceProvider struct {
	session       *http.Client
	apiKey        string
	baseURL       string
	profile       string
	limiter       *rate.Limiter
	retry         retryPolicy
	distanceCache *cache.SQLDistanceCache
	log           *zap.Logger
}

func NewORSDistanceProvider(
	opts ORSOptions,
	distanceCache *cache.SQLDistanceCache,
	log *zap.Logger,
) (*ORSDistanceProvider, error) {
	if opts.APIKey == "" {
		return nil, errors.New("ORS api key is empty")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openrouteservice.org"
	}
	if opts.Profile == "" {
		opts.Profile = "driving-hgv"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	provider := &ORSDistanceProvider{
		session:       &http.Client{Timeout: opts.Timeout},
		apiKey:        opts.APIKey,
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		profile:       opts.Profile,
		limiter:       limiter,
		retry:         defaultRetryPolicy(),
		distanceCache: distanceCache,
		log:           log,
	}

	return provider, nil
}

// Delegate to batched path to reuse caching and matrix logic.
func (o *ORSDistanceProvider) GetDistance(
	ctx context.Context,
	origin domain.City,
	destination domain.City,
) (ports.DistanceResult, error) {
	if origin.ID == destination.ID {
		return ports.DistanceResult{}, nil
	}

	results, err := o.GetDistances(ctx, origin, []domain.City{destination})
	if err != nil {
		return ports.DistanceResult{}, fmt.Errorf(
			"get distances %q -> %q: %w",
			origin.Name, destination.Name, err,
		)
	}

	result, ok := results[destination.ID]
	if !ok {
		return ports.DistanceResult{}, fmt.Errorf("no distance result for %q -> %q", origin.Name, destination.Name)
	}

	return result, nil
}

// Compute distances from a single origin to many destinations.
func (o *ORSDistanceProvider) GetDistances(
	ctx context.Context,
	origin domain.City,
	destinations []domain.City,
) (_ map[domain.CityID]ports.DistanceResult, err error) {
	defer obs.Time(ctx, o.log, "ors.GetDistances")(&err)

	if err := requireCoordinates(origin); err != nil {
		return nil, err
	}

	seen := make(map[domain.CityID]struct{}, len(destinations))
	destList := make([]domain.City, 0, len(destinations))
	for _, d := range destinations {
		if d.ID == origin.ID {
			continue
		}
		if _, ok := seen[d.ID]; ok {
			continue
		}
		if err := requireCoordinates(d); err != nil {
			return nil, err
		}

		seen[d.ID] = struct{}{}
		destList = append(destList, d)
	}

	if len(destList) == 0 {
		return map[domain.CityID]ports.DistanceResult{}, nil
	}

	destinationHits := make(map[domain.CityID]ports.DistanceResult)
	// Check persistent distance cache before issuing external API calls.
	if o.distanceCache != nil {
		ids := make([]domain.CityID, 0, len(destList))
		for _, d := range destList {
			ids = append(ids, d.ID)
		}

		var err error
		destinationHits, err = o.distanceCache.GetMany(ctx, origin.ID, ids)
		if err != nil {
			return nil, fmt.Errorf("ORS get distance cache: %w", err)
		}
	}

	destinationMisses := make([]domain.City, 0, len(destList))
	for _, d := range destList {
		if _, ok := destinationHits[d.ID]; !ok {
			destinationMisses = append(destinationMisses, d)
		}
	}

	if len(destinationMisses) == 0 {
		return destinationHits, nil
	}

	// Fetch a single origin->many matrix row for all cache misses.
	fetched, err := o.fetchMatrixRow(ctx, origin, destinationMisses)
	if err != nil {
		return nil, fmt.Errorf(
			"fetching matrix row: %w",
			err,
		)
	}

	missing := make([]string, 0)
	for _, d := range destinationMisses {
		if _, ok := fetched[d.ID]; !ok {
			missing = append(missing, d.Name)
		}
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf(
			"ORS matrix service did not return the following destinations: %s",
			strings.Join(missing, ", "),
		)
	}

	if o.distanceCache != nil {
		if err := o.distanceCache.PutMany(ctx, origin.ID, fetched); err != nil {
			o.log.Warn("distance cache write failed", zap.Error(err))
		}
	}

	out := make(map[domain.CityID]ports.DistanceResult, len(destinationHits)+len(fetched))
	for k, v := range destinationHits {
		out[k] = v
	}
	for k, v := range fetched {
		out[k] = v
	}

	return out, nil
}

func requireCoordinates(c domain.City) error {
	if c.Location == (domain.Coordinates{}) {
		return fmt.Errorf("city %d (%q) has no coordinates", c.ID, c.Name)
	}
	return nil
}

var _ ports.DistanceMatrixProvider = (*ORSDistanceProvider)(nil)
