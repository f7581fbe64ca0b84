// Package principal resolves the authenticated principal for each request.
//
// The middleware never rejects: it attaches a principal to the context when a
// valid session token is presented and otherwise leaves the request
// unauthenticated. The decision pipeline owns the 401/403 verdicts so that
// authorization failures carry the standard error body.
package principal

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"clearport/pkg/requestcontext"
)

// Resolver turns a bearer token into a principal. Implemented by the
// identity service; failures mean "no authenticated session", not an error
// the client sees at this layer.
type Resolver interface {
	Resolve(ctx context.Context, token string) (requestcontext.PrincipalInfo, error)
}

// Middleware extracts the Authorization bearer token, resolves it, and
// stores the principal in the request context on success.
func Middleware(resolver Resolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			const bearerPrefix = "Bearer "
			token, ok := strings.CutPrefix(authHeader, bearerPrefix)
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			p, err := resolver.Resolve(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "could not resolve principal",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithPrincipal(ctx, p)))
		})
	}
}
