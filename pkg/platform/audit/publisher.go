package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily.
type Publisher struct {
	store  Store
	logger *slog.Logger
}

func NewPublisher(store Store, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, logger: logger}
}

// Emit persists the event, defaulting the timestamp. The returned error is
// advisory: callers on the decision path treat a recording failure as
// degraded behavior, never as grounds to abort or revert the decision.
func (p *Publisher) Emit(ctx context.Context, event Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	return p.store.Append(ctx, event)
}

// EmitBestEffort records the event and swallows failures after logging them.
// This is the fire-and-forget contract of the decision pipeline.
func (p *Publisher) EmitBestEffort(ctx context.Context, event Event) {
	if err := p.Emit(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "failed to record audit event",
			"action", event.Action,
			"entity_type", event.EntityType,
			"entity_id", event.EntityID,
			"error", err,
		)
	}
}

// ListRecent exposes the trail for the admin audit endpoint.
func (p *Publisher) ListRecent(ctx context.Context, limit int) ([]Event, error) {
	return p.store.ListRecent(ctx, limit)
}
