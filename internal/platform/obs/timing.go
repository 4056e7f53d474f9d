package obs

import (
	"context"
	"freight-route-engine/internal/platform/metrics"
	"time"

	"go.uber.org/zap"
)

type ctxKey string

const RequestIDKey ctxKey = "req_id"

// WithRequestID stores the request id used to correlate adapter timings.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID returns the request id stored in ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// Time measures an operation. Use as: defer obs.Time(ctx, log, "op")(&err).
func Time(ctx context.Context, log *zap.Logger, name string) func(errp *error) {
	start := time.Now()
	reqID := RequestID(ctx)

	return func(errp *error) {
		dur := time.Since(start)

		outcome := "ok"
		if errp != nil && *errp != nil {
			outcome = "error"
		}
		metrics.StoreOps.WithLabelValues(name, outcome).Observe(dur.Seconds())

		if log == nil {
			return
		}
		if outcome == "error" {
			log.Debug("operation failed",
				zap.String("req_id", reqID), zap.String("op", name),
				zap.Int64("dur_ms", dur.Milliseconds()), zap.Error(*errp))
			return
		}
		log.Debug("operation done",
			zap.String("req_id", reqID), zap.String("op", name), zap.Int64("dur_ms", dur.Milliseconds()))
	}
}
