// Package member holds the onboarding aggregates: the Member organization
// and its Application.
package member

import (
	"time"

	id "clearport/pkg/domain"
	dErrors "clearport/pkg/domain-errors"
)

// KYCStatus is the compliance status of a member organization.
type KYCStatus string

const (
	KYCPending  KYCStatus = "pending"
	KYCApproved KYCStatus = "approved"
	KYCRejected KYCStatus = "rejected"
)

// CanTransitionTo enforces the lifecycle invariant: pending is the only
// non-terminal state. There is no transition out of approved or rejected.
func (s KYCStatus) CanTransitionTo(target KYCStatus) bool {
	if s != KYCPending {
		return false
	}
	return target == KYCApproved || target == KYCRejected
}

// ApplicationStatus mirrors the member's KYC outcome on the application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

func (s ApplicationStatus) CanTransitionTo(target ApplicationStatus) bool {
	if s != ApplicationPending {
		return false
	}
	return target == ApplicationApproved || target == ApplicationRejected
}

// Terminal reports whether the status is a decision outcome.
func (s ApplicationStatus) Terminal() bool {
	return s == ApplicationApproved || s == ApplicationRejected
}

// Member is a settlement member organization going through onboarding.
//
// Invariants:
//   - KYCStatus transitions only pending→approved or pending→rejected
//   - After a completed decision, KYCStatus agrees with the status of the
//     member's application; both are written in one transaction
type Member struct {
	ID                 id.MemberID
	CompanyName        string
	RegistrationNumber string // optional
	ContactEmail       string
	KYCStatus          KYCStatus
	// CollateralAmount is the posted collateral in minor currency units.
	CollateralAmount int64
	JoinedAt         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Application is one onboarding request tied to exactly one Member and one
// submitting user. Created pending by the submission flow; the decision
// pipeline is the exclusive owner of the pending→{approved,rejected}
// transition.
type Application struct {
	ID          id.ApplicationID
	MemberID    id.MemberID
	SubmittedBy id.UserID
	Status      ApplicationStatus
	// RejectionReason is present iff Status is rejected.
	RejectionReason string
	// ReviewedAt and ReviewedBy are present iff Status is not pending.
	ReviewedAt *time.Time
	ReviewedBy *id.UserID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Decision carries everything needed to apply a review outcome.
type Decision struct {
	Outcome    ApplicationStatus
	Reason     string // required iff Outcome is rejected
	ReviewerID id.UserID
	DecidedAt  time.Time
}

// Validate checks the decision invariants before any write is attempted.
func (d Decision) Validate() error {
	if !d.Outcome.Terminal() {
		return dErrors.New(dErrors.CodeInvariantViolation, "decision outcome must be approved or rejected")
	}
	if d.Outcome == ApplicationRejected && d.Reason == "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "rejection requires a reason")
	}
	if d.Outcome == ApplicationApproved && d.Reason != "" {
		return dErrors.New(dErrors.CodeInvariantViolation, "approval must not carry a rejection reason")
	}
	if d.ReviewerID.IsNil() {
		return dErrors.New(dErrors.CodeInvariantViolation, "decision requires a reviewer")
	}
	return nil
}

// KYCOutcome maps the application outcome onto the member's status.
func (d Decision) KYCOutcome() KYCStatus {
	if d.Outcome == ApplicationApproved {
		return KYCApproved
	}
	return KYCRejected
}

// CanDecide checks whether the application accepts a decision.
// Use with ApplyDecision; stores hold their lock (mutex or the row lock of
// a conditional UPDATE) across both.
func (a *Application) CanDecide(d Decision) error {
	if err := d.Validate(); err != nil {
		return err
	}
	if !a.Status.CanTransitionTo(d.Outcome) {
		return dErrors.New(dErrors.CodeInvariantViolation, "application has already been decided")
	}
	return nil
}

// ApplyDecision transitions the application. Call CanDecide first.
func (a *Application) ApplyDecision(d Decision) {
	a.Status = d.Outcome
	a.RejectionReason = d.Reason
	reviewedAt := d.DecidedAt
	a.ReviewedAt = &reviewedAt
	reviewer := d.ReviewerID
	a.ReviewedBy = &reviewer
	a.UpdatedAt = d.DecidedAt
}

// ApplyKYCDecision transitions the member to the decision outcome. Approved
// members get their join date stamped.
func (m *Member) ApplyKYCDecision(d Decision) {
	m.KYCStatus = d.KYCOutcome()
	if m.KYCStatus == KYCApproved {
		joined := d.DecidedAt
		m.JoinedAt = &joined
	}
	m.UpdatedAt = d.DecidedAt
}
