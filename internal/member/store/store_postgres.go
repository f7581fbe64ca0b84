package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"clearport/internal/member"
	id "clearport/pkg/domain"
	"clearport/pkg/platform/sentinel"
	txcontext "clearport/pkg/platform/tx"
)

// Postgres implements the application repository against the members,
// applications, and users tables.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const viewColumns = `
	a.id, a.member_id, a.submitted_by, a.status, a.rejection_reason,
	a.reviewed_at, a.reviewed_by, a.created_at, a.updated_at,
	m.company_name, m.contact_email, COALESCE(u.email, '')
`

// FetchWithRelations reads the application joined with its member's company
// name/contact email and the submitting user's email.
func (s *Postgres) FetchWithRelations(ctx context.Context, applicationID id.ApplicationID) (*ApplicationView, error) {
	query := `
		SELECT ` + viewColumns + `
		FROM applications a
		JOIN members m ON m.id = a.member_id
		LEFT JOIN users u ON u.id = a.submitted_by
		WHERE a.id = $1
	`
	view, err := scanView(s.db.QueryRowContext(ctx, query, uuid.UUID(applicationID)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	return view, err
}

// ApplyDecision performs both status writes in one transaction. The
// application update is conditional on status still being pending, so of
// two concurrent reviewers exactly one wins; the loser gets
// sentinel.ErrConflict and nothing is persisted for it.
func (s *Postgres) ApplyDecision(ctx context.Context, memberID id.MemberID, applicationID id.ApplicationID, d member.Decision) error {
	if err := d.Validate(); err != nil {
		return err
	}

	return txcontext.RunInTx(ctx, s.db, func(txCtx context.Context) error {
		exec := s.execer(txCtx)

		const updateApplication = `
			UPDATE applications
			SET status = $1, rejection_reason = $2, reviewed_at = $3,
			    reviewed_by = $4, updated_at = $3
			WHERE id = $5 AND member_id = $6 AND status = 'pending'
		`
		res, err := exec.ExecContext(txCtx, updateApplication,
			string(d.Outcome),
			nullString(d.Reason),
			d.DecidedAt,
			uuid.UUID(d.ReviewerID),
			uuid.UUID(applicationID),
			uuid.UUID(memberID),
		)
		if err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		rows, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update application rows: %w", err)
		}
		if rows == 0 {
			return s.classifyMiss(txCtx, memberID, applicationID)
		}

		const updateMember = `
			UPDATE members
			SET kyc_status = $1,
			    joined_at = CASE WHEN $1 = 'approved' THEN $2 ELSE joined_at END,
			    updated_at = $2
			WHERE id = $3
		`
		res, err = exec.ExecContext(txCtx, updateMember,
			string(d.KYCOutcome()),
			d.DecidedAt,
			uuid.UUID(memberID),
		)
		if err != nil {
			return fmt.Errorf("update member: %w", err)
		}
		rows, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update member rows: %w", err)
		}
		if rows == 0 {
			return sentinel.ErrNotFound
		}
		return nil
	})
}

// classifyMiss distinguishes "application gone or bound to another member"
// from "application already decided" after the conditional update matched
// nothing.
func (s *Postgres) classifyMiss(ctx context.Context, memberID id.MemberID, applicationID id.ApplicationID) error {
	var (
		status  string
		boundTo uuid.UUID
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT status, member_id FROM applications WHERE id = $1`,
		uuid.UUID(applicationID),
	).Scan(&status, &boundTo)
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("classify decision miss: %w", err)
	}
	if boundTo != uuid.UUID(memberID) {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrConflict
}

// ListByStatus returns application views with the given status, oldest first.
func (s *Postgres) ListByStatus(ctx context.Context, status member.ApplicationStatus) ([]ApplicationView, error) {
	query := `
		SELECT ` + viewColumns + `
		FROM applications a
		JOIN members m ON m.id = a.member_id
		LEFT JOIN users u ON u.id = a.submitted_by
		WHERE a.status = $1
		ORDER BY a.created_at
	`
	rows, err := s.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}
	defer rows.Close()

	var out []ApplicationView
	for rows.Next() {
		view, err := scanView(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return out, nil
}

// FindStatusMismatches reports application/member pairs whose statuses
// disagree. Feeds the reconciler.
func (s *Postgres) FindStatusMismatches(ctx context.Context) ([]Mismatch, error) {
	const query = `
		SELECT a.id, a.member_id, a.status, m.kyc_status
		FROM applications a
		JOIN members m ON m.id = a.member_id
		WHERE a.status <> m.kyc_status
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query status mismatches: %w", err)
	}
	defer rows.Close()

	var out []Mismatch
	for rows.Next() {
		var (
			mm        Mismatch
			appID     uuid.UUID
			memID     uuid.UUID
			appStatus string
			kycStatus string
		)
		if err := rows.Scan(&appID, &memID, &appStatus, &kycStatus); err != nil {
			return nil, fmt.Errorf("scan mismatch: %w", err)
		}
		mm.ApplicationID = id.ApplicationID(appID)
		mm.MemberID = id.MemberID(memID)
		mm.ApplicationStatus = member.ApplicationStatus(appStatus)
		mm.KYCStatus = member.KYCStatus(kycStatus)
		out = append(out, mm)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mismatches: %w", err)
	}
	return out, nil
}

// RepairMemberStatus forces the member's KYC status to agree with its
// application. Reconciler use only; normal decisions go through ApplyDecision.
func (s *Postgres) RepairMemberStatus(ctx context.Context, memberID id.MemberID, status member.KYCStatus) error {
	res, err := s.execer(ctx).ExecContext(ctx,
		`UPDATE members SET kyc_status = $1, updated_at = NOW() WHERE id = $2`,
		string(status),
		uuid.UUID(memberID),
	)
	if err != nil {
		return fmt.Errorf("repair member status: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("repair member rows: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// PutMember inserts a member row. Seeding and tests; the submission flow
// that creates members in production lives in another service.
func (s *Postgres) PutMember(ctx context.Context, m member.Member) error {
	const query = `
		INSERT INTO members (
			id, company_name, registration_number, contact_email, kyc_status,
			collateral_amount, joined_at, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(m.ID),
		m.CompanyName,
		nullString(m.RegistrationNumber),
		m.ContactEmail,
		string(m.KYCStatus),
		m.CollateralAmount,
		m.JoinedAt,
		m.CreatedAt,
		m.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

// PutApplication inserts an application row. Seeding and tests.
func (s *Postgres) PutApplication(ctx context.Context, a member.Application) error {
	const query = `
		INSERT INTO applications (
			id, member_id, submitted_by, status, rejection_reason,
			reviewed_at, reviewed_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var reviewedBy any
	if a.ReviewedBy != nil {
		reviewedBy = uuid.UUID(*a.ReviewedBy)
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(a.ID),
		uuid.UUID(a.MemberID),
		uuid.UUID(a.SubmittedBy),
		string(a.Status),
		nullString(a.RejectionReason),
		a.ReviewedAt,
		reviewedBy,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert application: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanView(row rowScanner) (*ApplicationView, error) {
	var (
		view        ApplicationView
		appID       uuid.UUID
		memID       uuid.UUID
		submittedBy uuid.UUID
		status      string
		reason      sql.NullString
		reviewedAt  sql.NullTime
		reviewedBy  uuid.NullUUID
	)
	err := row.Scan(
		&appID,
		&memID,
		&submittedBy,
		&status,
		&reason,
		&reviewedAt,
		&reviewedBy,
		&view.Application.CreatedAt,
		&view.Application.UpdatedAt,
		&view.CompanyName,
		&view.ContactEmail,
		&view.SubmitterEmail,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan application view: %w", err)
	}

	view.Application.ID = id.ApplicationID(appID)
	view.Application.MemberID = id.MemberID(memID)
	view.Application.SubmittedBy = id.UserID(submittedBy)
	view.Application.Status = member.ApplicationStatus(status)
	view.Application.RejectionReason = reason.String
	if reviewedAt.Valid {
		t := reviewedAt.Time
		view.Application.ReviewedAt = &t
	}
	if reviewedBy.Valid {
		reviewer := id.UserID(reviewedBy.UUID)
		view.Application.ReviewedBy = &reviewer
	}
	return &view, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
