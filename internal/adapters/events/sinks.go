package events

import (
	"context"
	"freight-route-engine/internal/domain"
	"freight-route-engine/internal/platform/metrics"
	"freight-route-engine/internal/platform/obs"
	"freight-route-engine/internal/ports"
	"slices"

	"go.uber.org/zap"
)

// LogSink writes engine events as structured log lines.
type LogSink struct{ Log *zap.Logger }

func NewLogSink(log *zap.Logger) LogSink {
	if log == nil {
		log = zap.NewNop()
	}
	return LogSink{Log: log}
}

func (s LogSink) Emit(ctx context.Context, evt domain.Event) {
	fields := make([]zap.Field, 0, 3+len(evt.Fields))
	fields = append(fields, zap.String("event", evt.Name), zap.Int64("city_id", int64(evt.CityID)))
	if id := obs.RequestID(ctx); id != "" {
		fields = append(fields, zap.String("req_id", id))
	}

	keys := make([]string, 0, len(evt.Fields))
	for k := range evt.Fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fields = append(fields, zap.Any(k, evt.Fields[k]))
	}

	if evt.Err != nil {
		s.Log.Warn("engine event", append(fields, zap.Error(evt.Err))...)
		return
	}
	s.Log.Info("engine event", fields...)
}

// MetricsSink counts engine events and records risk levels and route ratios.
type MetricsSink struct{}

func (MetricsSink) Emit(_ context.Context, evt domain.Event) {
	metrics.EngineEvents.WithLabelValues(evt.Name).Inc()

	switch evt.Name {
	case domain.EventRiskAssessed:
		if level, ok := evt.Fields["level"].(string); ok {
			metrics.RiskAssessments.WithLabelValues(level).Inc()
		}
	case domain.EventRouteIndirect:
		observeRatio("indirect", evt.Fields)
	case domain.EventMultiLegBuilt:
		observeRatio("multi_leg", evt.Fields)
	}
}

func observeRatio(kind string, fields map[string]any) {
	if ratio, ok := fields["price_per_km"].(float64); ok {
		metrics.RoutePricePerKm.WithLabelValues(kind).Observe(ratio)
	}
}

// MultiSink fans an event out to every sink in order.
type MultiSink []ports.EventSink

func (m MultiSink) Emit(ctx context.Context, evt domain.Event) {
	for _, s := range m {
		s.Emit(ctx, evt)
	}
}

type NopSink struct{}

func (NopSink) Emit(context.Context, domain.Event) {}
