package services

import (
	"context"
	"errors"
	"fmt"
	"freight-route-engine/internal/domain"
	"freight-route-engine/internal/ports"
)

// Business constants of the matching engine. Values are configuration inputs;
// the defaults are the rates and thresholds operators have always used.
type EngineConfig struct {
	// Offer lookback window, in days, passed to the repository.
	LookbackDays int
	// Default number of results returned by BestLoadsFrom.
	BestLoadsLimit int
	// Default number of legs for BuildRoute.
	MaxLegs int
	// Largest maxLegs a caller may ask BuildRoute for. Zero means unbounded.
	MaxLegsLimit int
	// Largest window, in days, a caller may ask for. Zero means unbounded.
	MaxWindowDays int
	// Price-per-km floor below which an indirect route is not worth proposing.
	AcceptableRate float64
	// Price-per-km from which a load is considered good.
	HighDemandRate float64
	// Fewer departing offers than this is High return-load risk.
	RiskHighBelow int
	// Up to and including this many departing offers is Medium risk; more is Low.
	RiskMediumMax int
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		LookbackDays:   7,
		BestLoadsLimit: 5,
		MaxLegs:        3,
		MaxLegsLimit:   20,
		MaxWindowDays:  365,
		AcceptableRate: 1.5,
		HighDemandRate: 2.0,
		RiskHighBelow:  3,
		RiskMediumMax:  10,
	}
}

// Engine selects, chains and scores offers held by an OfferRepository.
//
// The engine keeps no state between calls and is safe for concurrent use.
// Operations that issue several reads (Route, BuildRoute) do not run against a
// snapshot: if the store mutates during the call the result may reflect a torn read.
// The engine imposes no deadline of its own; callers bound the whole call via ctx.
type Engine struct {
	repo   ports.OfferRepository
	cities ports.CityRepository
	events ports.EventSink
	cfg    EngineConfig
}

type EngineOption func(*Engine)

// WithEventSink routes engine events to sink.
func WithEventSink(sink ports.EventSink) EngineOption {
	return func(e *Engine) {
		if sink != nil {
			e.events = sink
		}
	}
}

// WithCityRepository lets the engine validate cities that are never queried as an origin
// (the destination of Route).
func WithCityRepository(cities ports.CityRepository) EngineOption {
	return func(e *Engine) { e.cities = cities }
}

func NewEngine(repo ports.OfferRepository, cfg EngineConfig, opts ...EngineOption) (*Engine, error) {
	if repo == nil {
		return nil, errors.New("new engine: offer repository is nil")
	}

	e := &Engine{repo: repo, events: nopSink{}, cfg: cfg}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the business constants the engine was built with.
func (e *Engine) Config() EngineConfig { return e.cfg }

// offersFrom fetches departing offers and classifies repository errors.
// Unknown cities keep domain.ErrCityNotFound; everything else is tagged domain.ErrRepository.
func (e *Engine) offersFrom(ctx context.Context, cityID domain.CityID) ([]domain.Offer, error) {
	offers, err := e.repo.OffersDepartingCity(ctx, cityID, e.cfg.LookbackDays)
	if err != nil {
		return nil, e.repoErr(ctx, cityID, "offers departing city", err)
	}
	return offers, nil
}

func (e *Engine) repoErr(ctx context.Context, cityID domain.CityID, op string, err error) error {
	if errors.Is(err, domain.ErrCityNotFound) {
		return fmt.Errorf("%s %d: %w", op, cityID, err)
	}

	e.events.Emit(ctx, domain.Event{Name: domain.EventRepositoryFailure, CityID: cityID, Err: err,
		Fields: map[string]any{"op": op}})
	if errors.Is(err, domain.ErrRepository) {
		return fmt.Errorf("%s %d: %w", op, cityID, err)
	}
	return fmt.Errorf("%s %d: %w: %w", op, cityID, domain.ErrRepository, err)
}

// ensureCity checks a city that will not be queried as an origin.
func (e *Engine) ensureCity(ctx context.Context, cityID domain.CityID) error {
	if e.cities == nil {
		return nil
	}
	if _, err := e.cities.GetCity(ctx, cityID); err != nil {
		return e.repoErr(ctx, cityID, "get city", err)
	}
	return nil
}

// asStoreFault tags an error about a city taken from stored data (an intermediate
// or next-leg city). An unknown city there is a store inconsistency, not bad input.
// window resolves a caller's lookback: non-positive selects the default,
// anything above MaxWindowDays is rejected.
func (e *Engine) window(windowDays int) (int, error) {
	if windowDays <= 0 {
		return e.cfg.LookbackDays, nil
	}
	if e.cfg.MaxWindowDays > 0 && windowDays > e.cfg.MaxWindowDays {
		return 0, fmt.Errorf("window of %d days exceeds %d: %w", windowDays, e.cfg.MaxWindowDays, domain.ErrInvalidArgument)
	}
	return windowDays, nil
}

func asStoreFault(err error) error {
	if errors.Is(err, domain.ErrRepository) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrRepository, err)
}

type nopSink struct{}

func (nopSink) Emit(context.Context, domain.Event) {}
