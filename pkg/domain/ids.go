// Package domain holds typed identifiers shared across the service.
//
// IDs are distinct UUID-backed types so the compiler rejects cross-type
// assignment (passing a MemberID where an ApplicationID is expected).
// Parse functions enforce the trust-boundary invariant that IDs are valid,
// non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "clearport/pkg/domain-errors"
)

// UserID identifies a platform user (submitter or reviewer).
type UserID uuid.UUID

// MemberID identifies a settlement member organization.
type MemberID uuid.UUID

// ApplicationID identifies one onboarding application.
type ApplicationID uuid.UUID

func (id UserID) String() string        { return uuid.UUID(id).String() }
func (id MemberID) String() string      { return uuid.UUID(id).String() }
func (id ApplicationID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id MemberID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ApplicationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewUserID returns a fresh random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewMemberID returns a fresh random member ID.
func NewMemberID() MemberID { return MemberID(uuid.New()) }

// NewApplicationID returns a fresh random application ID.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// ParseUserID validates and parses a user ID string.
func ParseUserID(s string) (UserID, error) {
	u, err := parseID(s, "user ID")
	return UserID(u), err
}

// ParseMemberID validates and parses a member ID string.
func ParseMemberID(s string) (MemberID, error) {
	u, err := parseID(s, "member ID")
	return MemberID(u), err
}

// ParseApplicationID validates and parses an application ID string.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseID(s, "application ID")
	return ApplicationID(u), err
}

func parseID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be the nil UUID")
	}
	return u, nil
}
