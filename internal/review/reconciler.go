package review

import (
	"context"
	"log/slog"
	"time"

	"clearport/internal/member"
	"clearport/internal/member/store"
	"clearport/internal/review/metrics"
	id "clearport/pkg/domain"
	"clearport/pkg/platform/audit"
)

// MismatchRepository finds and repairs applications whose status disagrees
// with their member's KYC status.
type MismatchRepository interface {
	FindStatusMismatches(ctx context.Context) ([]store.Mismatch, error)
	RepairMemberStatus(ctx context.Context, memberID id.MemberID, status member.KYCStatus) error
}

// Reconciler periodically repairs member statuses that drifted from their
// application's decision. Drift cannot happen through the transactional
// decision path; this covers writes from migrations and manual operations.
type Reconciler struct {
	repo    MismatchRepository
	auditor AuditRecorder
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewReconciler constructs a Reconciler.
func NewReconciler(repo MismatchRepository, auditor AuditRecorder, logger *slog.Logger, m *metrics.Metrics) *Reconciler {
	return &Reconciler{
		repo:    repo,
		auditor: auditor,
		logger:  logger,
		metrics: m,
	}
}

// Start runs periodic reconciliation until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.RunOnce(ctx); err != nil {
				r.logger.ErrorContext(ctx, "status reconciliation pass failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RunOnce performs a single reconciliation pass. Exported for testability;
// the background loop calls it on every tick.
func (r *Reconciler) RunOnce(ctx context.Context) error {
	mismatches, err := r.repo.FindStatusMismatches(ctx)
	if err != nil {
		return err
	}
	for _, m := range mismatches {
		target := member.KYCStatus(m.ApplicationStatus)
		if err := r.repo.RepairMemberStatus(ctx, m.MemberID, target); err != nil {
			r.logger.ErrorContext(ctx, "failed to repair member status",
				"member_id", m.MemberID,
				"application_id", m.ApplicationID,
				"error", err,
			)
			continue
		}
		r.logger.WarnContext(ctx, "repaired drifted member status",
			"member_id", m.MemberID,
			"application_id", m.ApplicationID,
			"from", m.KYCStatus,
			"to", target,
		)
		r.metrics.IncrementRepairs()
		r.auditor.EmitBestEffort(ctx, audit.Event{
			Timestamp:  time.Now(),
			Action:     string(audit.ActionStatusRepaired),
			EntityType: audit.EntityMember,
			EntityID:   m.MemberID.String(),
			Actor:      "system:reconciler",
			Details: map[string]any{
				"application_id": m.ApplicationID.String(),
				"from":           string(m.KYCStatus),
				"to":             string(target),
			},
		})
	}
	return nil
}
