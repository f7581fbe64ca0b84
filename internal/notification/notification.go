// Package notification sends decision emails. Delivery is best-effort by
// contract: the decision pipeline records the outcome but never fails a
// request because an email did not go out.
package notification

import (
	"context"
	"fmt"

	"clearport/internal/member"
	"clearport/pkg/email"
)

// Kind selects the message template.
type Kind string

const (
	KindApproved Kind = "application_approved"
	KindRejected Kind = "application_rejected"
)

// Message is a rendered decision email.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers one message. Implementations must not panic; any delivery
// problem comes back as an error for the caller to record.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// BuildDecisionMessage renders the decision email for the given destination.
func BuildDecisionMessage(to, companyName string, outcome member.ApplicationStatus, reason string) Message {
	first, _ := email.DeriveNameFromEmail(to)

	switch outcome {
	case member.ApplicationApproved:
		return Message{
			To:      to,
			Subject: fmt.Sprintf("%s has been approved for settlement membership", companyName),
			Body: fmt.Sprintf(
				"Hello %s,\n\nThe onboarding application for %s has been approved. "+
					"The member account is now active and clearing can begin on the next settlement cycle.\n\n"+
					"Clearport Onboarding\n",
				first, companyName,
			),
		}
	default:
		return Message{
			To:      to,
			Subject: fmt.Sprintf("Onboarding decision for %s", companyName),
			Body: fmt.Sprintf(
				"Hello %s,\n\nThe onboarding application for %s has been rejected.\n\n"+
					"Reason: %s\n\n"+
					"You may submit a new application once the issue above is resolved.\n\n"+
					"Clearport Onboarding\n",
				first, companyName, reason,
			),
		}
	}
}

// ResolveDestination picks the notification address: the submitting user's
// email when present, otherwise the member's contact email. Empty when
// neither exists.
func ResolveDestination(submitterEmail, contactEmail string) string {
	if submitterEmail != "" {
		return submitterEmail
	}
	return contactEmail
}
