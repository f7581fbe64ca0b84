// Package store holds the application repository implementations.
package store

import (
	"clearport/internal/member"
	id "clearport/pkg/domain"
)

// ApplicationView is an application joined with the member and submitter
// fields the decision pipeline needs. The read is allowed to be stale
// relative to the subsequent conditional write; the write itself re-checks
// the pending status.
type ApplicationView struct {
	Application member.Application
	CompanyName string
	// ContactEmail is the member organization's contact address; the
	// notification fallback destination.
	ContactEmail string
	// SubmitterEmail is the preferred notification destination. Empty when
	// the submitting user has no address on file.
	SubmitterEmail string
}

// Mismatch is an application whose status disagrees with its member's KYC
// status. Should be impossible while all decisions go through the
// transactional path; the reconciler repairs any that appear anyway.
type Mismatch struct {
	ApplicationID     id.ApplicationID
	MemberID          id.MemberID
	ApplicationStatus member.ApplicationStatus
	KYCStatus         member.KYCStatus
}
