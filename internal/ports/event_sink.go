package ports

import (
	"context"
	"freight-route-engine/internal/domain"
)

// Structured event sink injected into the engine in place of ambient logging.
type EventSink interface {
	Emit(ctx context.Context, evt domain.Event)
}
