// Package worker drains the audit outbox into Kafka.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"clearport/pkg/platform/audit/store/postgres"
)

// Producer publishes one audit payload to the audit topic, keyed for
// per-entity ordering.
type Producer interface {
	Publish(ctx context.Context, key string, payload []byte) error
}

// Worker polls the outbox table and publishes pending entries. Publish
// failures leave entries unmarked so the next tick retries them; the audit
// trail in audit_events is already durable either way.
type Worker struct {
	store    *postgres.Store
	producer Producer
	logger   *slog.Logger
	interval time.Duration
	batch    int
}

func New(store *postgres.Store, producer Producer, logger *slog.Logger) *Worker {
	return &Worker{
		store:    store,
		producer: producer,
		logger:   logger,
		interval: 2 * time.Second,
		batch:    100,
	}
}

// Run drains the outbox until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.DrainOnce(ctx); err != nil {
				w.logger.ErrorContext(ctx, "audit outbox drain failed", "error", err)
			}
		}
	}
}

// DrainOnce publishes one batch of pending entries. Exported for
// testability; the background loop calls it on every tick.
func (w *Worker) DrainOnce(ctx context.Context) error {
	entries, err := w.store.PendingOutbox(ctx, w.batch)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	published := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		if err := w.producer.Publish(ctx, entry.EventID.String(), entry.Payload); err != nil {
			w.logger.WarnContext(ctx, "audit publish failed, will retry",
				"event_id", entry.EventID,
				"error", err,
			)
			break // preserve outbox order; retry from here next tick
		}
		published = append(published, entry.ID)
	}
	return w.store.MarkPublished(ctx, published)
}
