package store

import (
	"context"
	"sort"
	"sync"

	"clearport/internal/member"
	id "clearport/pkg/domain"
	"clearport/pkg/platform/sentinel"
)

// Memory implements the application repository in process memory. The mutex
// is held across the validate-then-mutate pair in ApplyDecision, giving the
// same at-most-one-decision guarantee the Postgres store gets from its
// conditional UPDATE.
type Memory struct {
	mu           sync.Mutex
	members      map[id.MemberID]member.Member
	applications map[id.ApplicationID]member.Application
	// submitterEmails maps user id to address; stands in for the users table join.
	submitterEmails map[id.UserID]string
}

func NewMemory() *Memory {
	return &Memory{
		members:         make(map[id.MemberID]member.Member),
		applications:    make(map[id.ApplicationID]member.Application),
		submitterEmails: make(map[id.UserID]string),
	}
}

// PutMember stores a member record.
func (s *Memory) PutMember(_ context.Context, m member.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[m.ID] = m
	return nil
}

// PutApplication stores an application record.
func (s *Memory) PutApplication(_ context.Context, a member.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[a.ID] = a
	return nil
}

// PutSubmitterEmail records the submitting user's address for the join.
func (s *Memory) PutSubmitterEmail(_ context.Context, userID id.UserID, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.submitterEmails[userID] = email
	return nil
}

// FetchWithRelations returns the application joined with member and
// submitter fields.
func (s *Memory) FetchWithRelations(_ context.Context, applicationID id.ApplicationID) (*ApplicationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked(applicationID)
}

func (s *Memory) viewLocked(applicationID id.ApplicationID) (*ApplicationView, error) {
	app, ok := s.applications[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	m, ok := s.members[app.MemberID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &ApplicationView{
		Application:    app,
		CompanyName:    m.CompanyName,
		ContactEmail:   m.ContactEmail,
		SubmitterEmail: s.submitterEmails[app.SubmittedBy],
	}, nil
}

// ApplyDecision transitions the application and its member as one unit.
// Returns sentinel.ErrConflict when the application is no longer pending
// (a concurrent decision won) and sentinel.ErrNotFound when either entity
// is missing.
func (s *Memory) ApplyDecision(_ context.Context, memberID id.MemberID, applicationID id.ApplicationID, d member.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[applicationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if app.MemberID != memberID {
		return sentinel.ErrNotFound
	}
	m, ok := s.members[memberID]
	if !ok {
		return sentinel.ErrNotFound
	}

	if err := app.CanDecide(d); err != nil {
		return sentinel.ErrConflict
	}

	app.ApplyDecision(d)
	m.ApplyKYCDecision(d)
	s.applications[applicationID] = app
	s.members[memberID] = m
	return nil
}

// ListByStatus returns application views with the given status, oldest first.
func (s *Memory) ListByStatus(_ context.Context, status member.ApplicationStatus) ([]ApplicationView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ApplicationView
	for appID, app := range s.applications {
		if app.Status != status {
			continue
		}
		view, err := s.viewLocked(appID)
		if err != nil {
			return nil, err
		}
		out = append(out, *view)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Application.CreatedAt.Before(out[j].Application.CreatedAt)
	})
	return out, nil
}

// FindStatusMismatches reports application/member pairs whose statuses
// disagree.
func (s *Memory) FindStatusMismatches(_ context.Context) ([]Mismatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Mismatch
	for _, app := range s.applications {
		m, ok := s.members[app.MemberID]
		if !ok {
			continue
		}
		if statusesAgree(app.Status, m.KYCStatus) {
			continue
		}
		out = append(out, Mismatch{
			ApplicationID:     app.ID,
			MemberID:          m.ID,
			ApplicationStatus: app.Status,
			KYCStatus:         m.KYCStatus,
		})
	}
	return out, nil
}

// RepairMemberStatus forces the member's KYC status to agree with its
// application. Reconciler use only.
func (s *Memory) RepairMemberStatus(_ context.Context, memberID id.MemberID, status member.KYCStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.members[memberID]
	if !ok {
		return sentinel.ErrNotFound
	}
	m.KYCStatus = status
	s.members[memberID] = m
	return nil
}

// Member returns a copy of the stored member. Test helper.
func (s *Memory) Member(memberID id.MemberID) (member.Member, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.members[memberID]
	return m, ok
}

// Application returns a copy of the stored application. Test helper.
func (s *Memory) Application(applicationID id.ApplicationID) (member.Application, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[applicationID]
	return a, ok
}

func statusesAgree(app member.ApplicationStatus, kyc member.KYCStatus) bool {
	switch app {
	case member.ApplicationPending:
		return kyc == member.KYCPending
	case member.ApplicationApproved:
		return kyc == member.KYCApproved
	case member.ApplicationRejected:
		return kyc == member.KYCRejected
	}
	return false
}
