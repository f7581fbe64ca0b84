package handler

import (
	"time"

	"clearport/internal/member/store"
	"clearport/pkg/platform/audit"
)

// DecisionResponse is the success body of the approve and reject endpoints.
type DecisionResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	EmailSent bool   `json:"email_sent"`
}

// ApplicationSummary is one row of the review queue listing.
type ApplicationSummary struct {
	ApplicationID   string     `json:"applicationId"`
	MemberID        string     `json:"memberId"`
	CompanyName     string     `json:"companyName"`
	Status          string     `json:"status"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	SubmittedAt     time.Time  `json:"submittedAt"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
}

// ListResponse wraps the review queue listing.
type ListResponse struct {
	Applications []ApplicationSummary `json:"applications"`
}

// AuditEventView is one audit event in the admin listing.
type AuditEventView struct {
	Timestamp  time.Time      `json:"timestamp"`
	Action     string         `json:"action"`
	EntityType string         `json:"entityType"`
	EntityID   string         `json:"entityId"`
	Actor      string         `json:"actor"`
	Details    map[string]any `json:"details,omitempty"`
}

// AuditListResponse wraps the audit listing.
type AuditListResponse struct {
	Events []AuditEventView `json:"events"`
}

func toApplicationSummary(v store.ApplicationView) ApplicationSummary {
	return ApplicationSummary{
		ApplicationID:   v.Application.ID.String(),
		MemberID:        v.Application.MemberID.String(),
		CompanyName:     v.CompanyName,
		Status:          string(v.Application.Status),
		RejectionReason: v.Application.RejectionReason,
		SubmittedAt:     v.Application.CreatedAt,
		ReviewedAt:      v.Application.ReviewedAt,
	}
}

func toAuditEventView(e audit.Event) AuditEventView {
	return AuditEventView{
		Timestamp:  e.Timestamp,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Actor:      e.Actor,
		Details:    e.Details,
	}
}
