// Package identity resolves authenticated principals and gates privileged
// operations. It owns the User record; the Principal itself is request-scoped
// and never persisted here.
package identity

import (
	"time"

	id "clearport/pkg/domain"
	"clearport/pkg/requestcontext"
)

// User is a platform account that can sign in and, when holding the admin
// role, review onboarding applications.
type User struct {
	ID           id.UserID
	Email        string
	Role         requestcontext.Role
	PasswordHash string
	CreatedAt    time.Time
}
