// Package review implements the administrative decision pipeline for
// onboarding applications: authorization, the atomic status transition on
// the application and its member, the audit trail, and the best-effort
// applicant notification.
package review

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"clearport/internal/identity"
	"clearport/internal/member"
	"clearport/internal/member/store"
	"clearport/internal/notification"
	"clearport/internal/review/metrics"
	id "clearport/pkg/domain"
	dErrors "clearport/pkg/domain-errors"
	"clearport/pkg/email"
	"clearport/pkg/platform/audit"
	"clearport/pkg/platform/sentinel"
	"clearport/pkg/requestcontext"
)

// ApplicationRepository is the persistence surface the pipeline needs. The
// postgres implementation applies the decision as a conditional write so
// concurrent reviewers cannot both win.
type ApplicationRepository interface {
	FetchWithRelations(ctx context.Context, applicationID id.ApplicationID) (*store.ApplicationView, error)
	ApplyDecision(ctx context.Context, memberID id.MemberID, applicationID id.ApplicationID, d member.Decision) error
	ListByStatus(ctx context.Context, status member.ApplicationStatus) ([]store.ApplicationView, error)
}

// AuditRecorder records the compliance trail. Emission never fails a
// decision that has already committed.
type AuditRecorder interface {
	EmitBestEffort(ctx context.Context, event audit.Event)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

// Command is a reviewer's decision on one application.
type Command struct {
	ApplicationID id.ApplicationID
	MemberID      id.MemberID
	Reason        string
}

// Result reports a completed decision back to the caller. The decision is
// durable even when NotificationSent is false.
type Result struct {
	CompanyName      string
	NotificationSent bool
}

// Service orchestrates review decisions. It keeps authorization, state
// transition, audit, and notification ordering in one place so handlers
// stay thin.
type Service struct {
	repo    ApplicationRepository
	auditor AuditRecorder
	sender  notification.Sender
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithSender(sender notification.Sender) Option {
	return func(s *Service) {
		s.sender = sender
	}
}

// New constructs a Service.
func New(repo ApplicationRepository, auditor AuditRecorder, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		auditor: auditor,
		logger:  slog.Default(),
		tracer:  otel.Tracer("clearport/review"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Approve approves a pending application and activates its member.
func (s *Service) Approve(ctx context.Context, cmd Command) (Result, error) {
	return s.decide(ctx, cmd, member.ApplicationApproved)
}

// Reject rejects a pending application with the reviewer's reason.
func (s *Service) Reject(ctx context.Context, cmd Command) (Result, error) {
	return s.decide(ctx, cmd, member.ApplicationRejected)
}

// ListByStatus returns applications in the given state for the review queue.
func (s *Service) ListByStatus(ctx context.Context, status member.ApplicationStatus) ([]store.ApplicationView, error) {
	p, resolved := requestcontext.Principal(ctx)
	if err := identity.Authorize(p, resolved); err != nil {
		return nil, err
	}
	views, err := s.repo.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return views, nil
}

// RecentAudit returns the newest audit events for the admin view.
func (s *Service) RecentAudit(ctx context.Context, limit int) ([]audit.Event, error) {
	p, resolved := requestcontext.Principal(ctx)
	if err := identity.Authorize(p, resolved); err != nil {
		return nil, err
	}
	events, err := s.auditor.ListRecent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit events")
	}
	return events, nil
}

func (s *Service) decide(ctx context.Context, cmd Command, outcome member.ApplicationStatus) (Result, error) {
	started := time.Now()
	ctx, span := s.tracer.Start(ctx, "review.decide",
		trace.WithAttributes(
			attribute.String("application.id", cmd.ApplicationID.String()),
			attribute.String("member.id", cmd.MemberID.String()),
			attribute.String("decision.outcome", string(outcome)),
		),
	)
	defer span.End()

	p, resolved := requestcontext.Principal(ctx)
	if err := identity.Authorize(p, resolved); err != nil {
		s.incrementDecision(outcome, "denied")
		return Result{}, err
	}
	requestID := requestcontext.RequestID(ctx)

	decision := member.Decision{
		Outcome:    outcome,
		Reason:     cmd.Reason,
		ReviewerID: p.ID,
		DecidedAt:  requestcontext.Now(ctx),
	}
	if err := decision.Validate(); err != nil {
		s.incrementDecision(outcome, "invalid")
		return Result{}, dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	}

	view, err := s.repo.FetchWithRelations(ctx, cmd.ApplicationID)
	if err != nil {
		res, derr := s.classifyRepoError(err, outcome)
		s.incrementDecision(outcome, res)
		return Result{}, derr
	}
	if view.Application.MemberID != cmd.MemberID {
		s.incrementDecision(outcome, "not_found")
		return Result{}, dErrors.New(dErrors.CodeNotFound, "application not found")
	}

	if err := s.repo.ApplyDecision(ctx, cmd.MemberID, cmd.ApplicationID, decision); err != nil {
		res, derr := s.classifyRepoError(err, outcome)
		s.incrementDecision(outcome, res)
		return Result{}, derr
	}
	s.incrementDecision(outcome, "ok")

	s.auditor.EmitBestEffort(ctx, audit.Event{
		Timestamp:  decision.DecidedAt,
		Action:     string(decisionAction(outcome)),
		EntityType: audit.EntityApplication,
		EntityID:   cmd.ApplicationID.String(),
		Actor:      p.ID.String(),
		RequestID:  requestID,
		Details:    decisionDetails(cmd, view, outcome),
	})

	sent := s.notify(ctx, cmd, view, decision, p, requestID)

	s.observeDecisionLatency(time.Since(started))
	return Result{CompanyName: view.CompanyName, NotificationSent: sent}, nil
}

// notify delivers the decision email and records the delivery outcome.
// The outcome event is emitted even when delivery is skipped, so every
// successful decision leaves both a decision and a notification event.
// Failures are logged and audited, never returned: the decision already
// committed.
func (s *Service) notify(ctx context.Context, cmd Command, view *store.ApplicationView, d member.Decision, p requestcontext.PrincipalInfo, requestID string) bool {
	var to string
	if s.sender != nil {
		to = notification.ResolveDestination(view.SubmitterEmail, view.ContactEmail)
	}

	var sent bool
	switch {
	case s.sender == nil:
		s.incrementNotification("skipped")
	case to == "":
		s.logger.WarnContext(ctx, "no notification destination on file",
			"request_id", requestID,
			"application_id", cmd.ApplicationID,
		)
		s.incrementNotification("skipped")
	default:
		msg := notification.BuildDecisionMessage(to, view.CompanyName, d.Outcome, d.Reason)
		err := s.sender.Send(ctx, msg)
		sent = err == nil
		if err != nil {
			s.logger.ErrorContext(ctx, "decision notification failed",
				"request_id", requestID,
				"application_id", cmd.ApplicationID,
				"error", err,
			)
			s.incrementNotification("failed")
		} else {
			s.incrementNotification("sent")
		}
	}

	details := map[string]any{
		"email_success": sent,
		"outcome":       string(d.Outcome),
	}
	if to != "" {
		details["destination"] = email.Redact(to)
	}
	s.auditor.EmitBestEffort(ctx, audit.Event{
		Timestamp:  requestcontext.Now(ctx),
		Action:     string(audit.ActionNotificationSent),
		EntityType: audit.EntityApplication,
		EntityID:   cmd.ApplicationID.String(),
		Actor:      p.ID.String(),
		RequestID:  requestID,
		Details:    details,
	})
	return sent
}

func (s *Service) classifyRepoError(err error, outcome member.ApplicationStatus) (string, error) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return "not_found", dErrors.New(dErrors.CodeNotFound, "application not found")
	case errors.Is(err, sentinel.ErrConflict):
		return "conflict", dErrors.New(dErrors.CodeConflict, "application has already been decided")
	case dErrors.HasCode(err, dErrors.CodeInvariantViolation):
		return "invalid", dErrors.New(dErrors.CodeValidation, dErrors.MessageOf(err))
	default:
		if outcome == member.ApplicationApproved {
			return "error", dErrors.Wrap(err, dErrors.CodeInternal, "Failed to approve application")
		}
		return "error", dErrors.Wrap(err, dErrors.CodeInternal, "Failed to reject application")
	}
}

func decisionAction(outcome member.ApplicationStatus) audit.Action {
	if outcome == member.ApplicationApproved {
		return audit.ActionApplicationApproved
	}
	return audit.ActionApplicationRejected
}

func decisionDetails(cmd Command, view *store.ApplicationView, outcome member.ApplicationStatus) map[string]any {
	details := map[string]any{
		"member_id":    cmd.MemberID.String(),
		"company_name": view.CompanyName,
	}
	if outcome == member.ApplicationRejected {
		details["reason"] = cmd.Reason
	}
	return details
}

func (s *Service) incrementDecision(outcome member.ApplicationStatus, result string) {
	s.metrics.IncrementDecision(string(outcome), result)
}

func (s *Service) incrementNotification(status string) {
	s.metrics.IncrementNotification(status)
}

func (s *Service) observeDecisionLatency(d time.Duration) {
	s.metrics.ObserveDecisionLatency(d)
}
