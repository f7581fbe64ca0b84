package testutil

import (
	"net/http"
	"time"

	id "clearport/pkg/domain"
	"clearport/pkg/requestcontext"
)

// WithPrincipal adds a resolved principal to the request context. This
// simulates what the principal middleware does for authenticated requests.
func WithPrincipal(req *http.Request, userID id.UserID, role requestcontext.Role) *http.Request {
	ctx := requestcontext.WithPrincipal(req.Context(), requestcontext.PrincipalInfo{ID: userID, Role: role})
	return req.WithContext(ctx)
}

// WithAdmin adds a fresh administrator principal to the request context and
// returns its user ID alongside the request.
func WithAdmin(req *http.Request) (*http.Request, id.UserID) {
	userID := id.NewUserID()
	return WithPrincipal(req, userID, requestcontext.RoleAdmin), userID
}

// WithRequestID adds a request ID to the request context.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// WithFrozenTime pins the request-scoped clock so assertions on timestamps
// are deterministic.
func WithFrozenTime(req *http.Request, at time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), at))
}
