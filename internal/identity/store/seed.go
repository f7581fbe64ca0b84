package store

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"clearport/internal/identity"
	id "clearport/pkg/domain"
	"clearport/pkg/requestcontext"
)

// UserSaver is the write surface seeding needs.
type UserSaver interface {
	Save(ctx context.Context, user identity.User) error
}

// SeedBootstrapAdmin creates a default reviewer account for local
// development. Credentials are hashed even here so dev and prod code paths
// stay identical.
func SeedBootstrapAdmin(ctx context.Context, users UserSaver, email, password string) (*identity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash bootstrap password: %w", err)
	}

	admin := identity.User{
		ID:           id.NewUserID(),
		Email:        email,
		Role:         requestcontext.RoleAdmin,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}
	if err := users.Save(ctx, admin); err != nil {
		return nil, fmt.Errorf("save bootstrap admin: %w", err)
	}
	return &admin, nil
}

// requireRole parses a stored role string, defaulting unknown values to the
// least-privileged role.
func requireRole(s string) requestcontext.Role {
	switch requestcontext.Role(s) {
	case requestcontext.RoleAdmin:
		return requestcontext.RoleAdmin
	default:
		return requestcontext.RoleMember
	}
}
