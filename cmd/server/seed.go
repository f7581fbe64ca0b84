package main

import (
	"context"
	"log/slog"
	"time"

	identitystore "clearport/internal/identity/store"
	"clearport/internal/member"
	memberstore "clearport/internal/member/store"
	"clearport/internal/platform/config"
	id "clearport/pkg/domain"
)

// seedDev loads a bootstrap admin and one pending application pair so the
// review endpoints can be exercised locally without a database.
func seedDev(ctx context.Context, log *slog.Logger, users *identitystore.Memory, members *memberstore.Memory, cfg config.Server) error {
	admin, err := identitystore.SeedBootstrapAdmin(ctx, users, "admin@clearport.local", "admin-dev-password")
	if err != nil {
		return err
	}

	now := time.Now()
	memberID := id.NewMemberID()
	applicationID := id.NewApplicationID()
	if err := members.PutMember(ctx, member.Member{
		ID:               memberID,
		CompanyName:      "Meridian Settlement Partners",
		ContactEmail:     "ops@meridian.example",
		KYCStatus:        member.KYCPending,
		CollateralAmount: 250_000_00,
		CreatedAt:        now,
		UpdatedAt:        now,
	}); err != nil {
		return err
	}
	if err := members.PutApplication(ctx, member.Application{
		ID:          applicationID,
		MemberID:    memberID,
		SubmittedBy: admin.ID,
		Status:      member.ApplicationPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		return err
	}
	if err := members.PutSubmitterEmail(ctx, admin.ID, admin.Email); err != nil {
		return err
	}

	log.Info("seeded dev data",
		"admin", admin.Email,
		"member_id", memberID,
		"application_id", applicationID,
	)
	return nil
}
