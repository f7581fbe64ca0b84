package audit_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clearport/pkg/platform/audit"
	"clearport/pkg/platform/audit/store/memory"
)

type failingStore struct{}

func (failingStore) Append(context.Context, audit.Event) error {
	return errors.New("store unavailable")
}

func (failingStore) ListByEntity(context.Context, string, string) ([]audit.Event, error) {
	return nil, errors.New("store unavailable")
}

func (failingStore) ListRecent(context.Context, int) ([]audit.Event, error) {
	return nil, errors.New("store unavailable")
}

func TestPublisherEmit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("defaults the timestamp", func(t *testing.T) {
		store := memory.New()
		p := audit.NewPublisher(store, logger)

		err := p.Emit(ctx, audit.Event{
			Action:     string(audit.ActionApplicationApproved),
			EntityType: audit.EntityApplication,
			EntityID:   "app-1",
		})
		require.NoError(t, err)

		events := store.Events()
		require.Len(t, events, 1)
		assert.False(t, events[0].Timestamp.IsZero())
	})

	t.Run("preserves an explicit timestamp", func(t *testing.T) {
		store := memory.New()
		p := audit.NewPublisher(store, logger)
		at := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

		require.NoError(t, p.Emit(ctx, audit.Event{
			Timestamp:  at,
			Action:     string(audit.ActionApplicationRejected),
			EntityType: audit.EntityApplication,
			EntityID:   "app-1",
		}))
		assert.Equal(t, at, store.Events()[0].Timestamp)
	})
}

// EmitBestEffort must swallow store failures: the caller's decision is
// already committed and cannot be reversed by a broken trail.
func TestPublisherEmitBestEffortSwallowsFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	p := audit.NewPublisher(failingStore{}, logger)
	assert.NotPanics(t, func() {
		p.EmitBestEffort(context.Background(), audit.Event{
			Action:     string(audit.ActionNotificationSent),
			EntityType: audit.EntityApplication,
			EntityID:   "app-1",
		})
	})
}

func TestActionCategory(t *testing.T) {
	assert.Equal(t, audit.CategoryCompliance, audit.ActionApplicationApproved.Category())
	assert.Equal(t, audit.CategoryCompliance, audit.ActionApplicationRejected.Category())
	assert.Equal(t, audit.CategoryOperations, audit.ActionNotificationSent.Category())
	assert.Equal(t, audit.CategoryOperations, audit.Action("something.unknown").Category())
}
