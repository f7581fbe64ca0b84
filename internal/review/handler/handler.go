// Package handler exposes the administrative review endpoints.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"clearport/internal/identity"
	"clearport/internal/member"
	"clearport/internal/member/store"
	"clearport/internal/review"
	dErrors "clearport/pkg/domain-errors"
	"clearport/pkg/platform/audit"
	"clearport/pkg/platform/httputil"
	"clearport/pkg/requestcontext"
)

const defaultAuditLimit = 50

// Service defines the review operations the handler fronts.
type Service interface {
	Approve(ctx context.Context, cmd review.Command) (review.Result, error)
	Reject(ctx context.Context, cmd review.Command) (review.Result, error)
	ListByStatus(ctx context.Context, status member.ApplicationStatus) ([]store.ApplicationView, error)
	RecentAudit(ctx context.Context, limit int) ([]audit.Event, error)
}

// Handler handles the admin review endpoints.
type Handler struct {
	logger  *slog.Logger
	service Service
}

// New creates a review Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		logger:  logger,
		service: service,
	}
}

// Register mounts the review routes. Authentication context comes from the
// principal middleware installed on the parent router; authorization is
// enforced by the service so it cannot be bypassed by route wiring.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin", func(r chi.Router) {
		r.Post("/applications/approve", h.handleApprove)
		r.Post("/applications/reject", h.handleReject)
		r.Get("/applications", h.handleList)
		r.Get("/audit/recent", h.handleRecentAudit)
	})
}

func (h *Handler) handleApprove(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, h.service.Approve, "Application approved successfully")
}

func (h *Handler) handleReject(w http.ResponseWriter, r *http.Request) {
	h.handleDecision(w, r, h.service.Reject, "Application rejected successfully")
}

func (h *Handler) handleDecision(
	w http.ResponseWriter,
	r *http.Request,
	decide func(ctx context.Context, cmd review.Command) (review.Result, error),
	message string,
) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	// Authorization precedes payload validation so an unauthenticated or
	// non-admin caller sees 401/403 regardless of how the body parses. The
	// service gates again before touching state.
	p, resolved := requestcontext.Principal(ctx)
	if err := identity.Authorize(p, resolved); err != nil {
		httputil.WriteError(w, err)
		return
	}

	req, ok := httputil.DecodeAndPrepare[DecisionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := decide(ctx, review.Command{
		ApplicationID: req.applicationID,
		MemberID:      req.memberID,
		Reason:        req.Reason,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "review decision rejected",
			"request_id", requestID,
			"application_id", req.ApplicationID,
			"code", dErrors.CodeOf(err),
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, DecisionResponse{
		Success:   true,
		Message:   message,
		EmailSent: result.NotificationSent,
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := member.ApplicationStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = member.ApplicationPending
	}
	switch status {
	case member.ApplicationPending, member.ApplicationApproved, member.ApplicationRejected:
	default:
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "status must be pending, approved, or rejected"))
		return
	}

	views, err := h.service.ListByStatus(ctx, status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := ListResponse{Applications: make([]ApplicationSummary, 0, len(views))}
	for _, v := range views {
		resp.Applications = append(resp.Applications, toApplicationSummary(v))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleRecentAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "limit must be between 1 and 500"))
			return
		}
		limit = parsed
	}

	events, err := h.service.RecentAudit(ctx, limit)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := AuditListResponse{Events: make([]AuditEventView, 0, len(events))}
	for _, e := range events {
		resp.Events = append(resp.Events, toAuditEventView(e))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}
