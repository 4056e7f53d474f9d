package services

import (
	"context"
	"fmt"
	"freight-route-engine/internal/domain"
)

// ClassifyRisk maps a departing-offer count to a return-load risk level.
// With the defaults: 0-2 High, 3-10 Medium, 11+ Low.
func ClassifyRisk(count int, cfg EngineConfig) domain.RiskLevel {
	switch {
	case count < cfg.RiskHighBelow:
		return domain.RiskHigh
	case count <= cfg.RiskMediumMax:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// AssessRisk classifies how likely a vehicle arriving in cityID is to find a
// return load, from the number of offers that departed it in the last windowDays.
// A non-positive window falls back to the configured lookback; one above
// MaxWindowDays is rejected with ErrInvalidArgument.
//
// On failure the level is RiskUnknown and the error is returned.
func (e *Engine) AssessRisk(ctx context.Context, cityID domain.CityID, windowDays int) (domain.RiskLevel, error) {
	windowDays, err := e.window(windowDays)
	if err != nil {
		return domain.RiskUnknown, fmt.Errorf("assess risk: %w", err)
	}

	count, err := e.repo.CountOffersDepartingCity(ctx, cityID, windowDays)
	if err != nil {
		return domain.RiskUnknown, fmt.Errorf("assess risk: %w", e.repoErr(ctx, cityID, "count offers departing city", err))
	}

	level := ClassifyRisk(count, e.cfg)
	e.events.Emit(ctx, domain.Event{
		Name:   domain.EventRiskAssessed,
		CityID: cityID,
		Fields: map[string]any{"count": count, "window_days": windowDays, "level": string(level)},
	})
	return level, nil
}
