package audit

import (
	"context"
	"time"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies, storage backends, and routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/regulatory significance.
	// These require tamper-proof storage and long retention (e.g., 7 years).
	// Examples: onboarding decisions, KYC status transitions.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers events useful for debugging and operational
	// visibility, such as notification delivery outcomes. These can be
	// sampled or aggregated with shorter retention.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. It stays
// transport-agnostic so stores and sinks can fan out. Events are
// append-only: nothing in this subsystem mutates or deletes them.
type Event struct {
	Timestamp  time.Time
	Action     string
	EntityType string
	EntityID   string
	// Actor is the reviewer who performed the action. Kept as a string to
	// support system actors (reconciler, workers) alongside user IDs.
	Actor string
	// RequestID correlates the event with the HTTP request that caused it.
	RequestID string
	// Details carries the free-form structured payload: member id, company
	// name, rejection reason, notification outcome, destination address.
	Details map[string]any
}

// Action is a known audit action tag.
type Action string

const (
	// Decision events
	ActionApplicationApproved Action = "application.approved"
	ActionApplicationRejected Action = "application.rejected"

	// Notification events
	ActionNotificationSent Action = "application.notification_sent"

	// Reconciler events
	ActionStatusRepaired Action = "member.status_repaired"
)

// Entity types recorded alongside events.
const (
	EntityApplication = "application"
	EntityMember      = "member"
)

// eventCategories maps each audit action to its category.
// Compliance: regulatory significance, long retention required.
// Operations: delivery and repair outcomes, can be sampled.
var eventCategories = map[Action]EventCategory{
	ActionApplicationApproved: CategoryCompliance,
	ActionApplicationRejected: CategoryCompliance,
	ActionStatusRepaired:      CategoryCompliance,

	ActionNotificationSent: CategoryOperations,
}

// Category returns the EventCategory for this action.
// Unknown actions default to CategoryOperations.
func (a Action) Category() EventCategory {
	if cat, ok := eventCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}

// Store is an append-only audit sink. Implementations must never update or
// delete events written through Append.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
