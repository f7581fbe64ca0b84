// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Context keys and getter/setter functions live here for values that are
// set by middleware but consumed by services. The package stays free of
// net/http so services can import it without pulling in HTTP code.
//
// Usage in services (read values):
//
//	principal, ok := requestcontext.Principal(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in middleware (set values):
//
//	ctx = requestcontext.WithPrincipal(ctx, principal)
//	ctx = requestcontext.WithRequestID(ctx, requestID)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "clearport/pkg/domain"
)

// Role is the coarse authorization level of a principal.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// PrincipalInfo is the resolved identity for the current request.
// It is constructed per-request by the identity middleware and discarded
// after the response is written; it is never persisted here.
type PrincipalInfo struct {
	ID   id.UserID
	Role Role
}

// IsAdmin reports whether the principal holds the administrator role.
func (p PrincipalInfo) IsAdmin() bool { return p.Role == RoleAdmin }

// Context key types (unexported for encapsulation).
type (
	principalKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyPrincipal   = principalKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// Principal retrieves the resolved principal from the context.
// The second return is false when no authenticated session exists.
func Principal(ctx context.Context) (PrincipalInfo, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(PrincipalInfo)
	return p, ok
}

// WithPrincipal injects a resolved principal into the context.
func WithPrincipal(ctx context.Context, p PrincipalInfo) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() for non-HTTP contexts (workers, tests, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests and for workers that need consistent time within a batch.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
