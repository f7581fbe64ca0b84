package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clearport/internal/member"
	id "clearport/pkg/domain"
	"clearport/pkg/platform/sentinel"
)

func seedPendingPair(t *testing.T, s *Memory) (member.Member, member.Application) {
	t.Helper()
	ctx := context.Background()
	now := time.Now()

	m := member.Member{
		ID:               id.NewMemberID(),
		CompanyName:      "Acme Clearing Ltd",
		ContactEmail:     "contact@acme.example",
		KYCStatus:        member.KYCPending,
		CollateralAmount: 500_000_00,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, s.PutMember(ctx, m))

	app := member.Application{
		ID:          id.NewApplicationID(),
		MemberID:    m.ID,
		SubmittedBy: id.NewUserID(),
		Status:      member.ApplicationPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.PutApplication(ctx, app))
	require.NoError(t, s.PutSubmitterEmail(ctx, app.SubmittedBy, "applicant@acme.example"))
	return m, app
}

func TestMemoryFetchWithRelations(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	_, app := seedPendingPair(t, s)

	view, err := s.FetchWithRelations(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Clearing Ltd", view.CompanyName)
	assert.Equal(t, "contact@acme.example", view.ContactEmail)
	assert.Equal(t, "applicant@acme.example", view.SubmitterEmail)

	_, err = s.FetchWithRelations(ctx, id.NewApplicationID())
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryApplyDecision(t *testing.T) {
	ctx := context.Background()
	reviewer := id.NewUserID()
	now := time.Now()

	t.Run("both entities transition together", func(t *testing.T) {
		s := NewMemory()
		m, app := seedPendingPair(t, s)

		d := member.Decision{Outcome: member.ApplicationRejected, Reason: "incomplete KYC documents", ReviewerID: reviewer, DecidedAt: now}
		require.NoError(t, s.ApplyDecision(ctx, m.ID, app.ID, d))

		gotMember, ok := s.Member(m.ID)
		require.True(t, ok)
		assert.Equal(t, member.KYCRejected, gotMember.KYCStatus)

		gotApp, ok := s.Application(app.ID)
		require.True(t, ok)
		assert.Equal(t, member.ApplicationRejected, gotApp.Status)
		assert.Equal(t, "incomplete KYC documents", gotApp.RejectionReason)
		require.NotNil(t, gotApp.ReviewedBy)
		assert.Equal(t, reviewer, *gotApp.ReviewedBy)
	})

	t.Run("second decision loses with conflict", func(t *testing.T) {
		s := NewMemory()
		m, app := seedPendingPair(t, s)

		first := member.Decision{Outcome: member.ApplicationApproved, ReviewerID: reviewer, DecidedAt: now}
		require.NoError(t, s.ApplyDecision(ctx, m.ID, app.ID, first))

		second := member.Decision{Outcome: member.ApplicationRejected, Reason: "late", ReviewerID: reviewer, DecidedAt: now}
		err := s.ApplyDecision(ctx, m.ID, app.ID, second)
		assert.ErrorIs(t, err, sentinel.ErrConflict)

		// First decision stands untouched.
		gotApp, _ := s.Application(app.ID)
		assert.Equal(t, member.ApplicationApproved, gotApp.Status)
	})

	t.Run("mismatched member id reads as not found", func(t *testing.T) {
		s := NewMemory()
		_, app := seedPendingPair(t, s)

		d := member.Decision{Outcome: member.ApplicationApproved, ReviewerID: reviewer, DecidedAt: now}
		err := s.ApplyDecision(ctx, id.NewMemberID(), app.ID, d)
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestMemoryReconciliation(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()
	m, app := seedPendingPair(t, s)

	mismatches, err := s.FindStatusMismatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	// Force a disagreement the way an out-of-band write would.
	require.NoError(t, s.RepairMemberStatus(ctx, m.ID, member.KYCApproved))

	mismatches, err = s.FindStatusMismatches(ctx)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, app.ID, mismatches[0].ApplicationID)
	assert.Equal(t, member.KYCApproved, mismatches[0].KYCStatus)

	require.NoError(t, s.RepairMemberStatus(ctx, m.ID, member.KYCPending))
	mismatches, err = s.FindStatusMismatches(ctx)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}
