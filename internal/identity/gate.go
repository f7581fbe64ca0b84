package identity

import (
	dErrors "clearport/pkg/domain-errors"
	"clearport/pkg/requestcontext"
)

// Authorize decides whether the resolved principal may perform a privileged
// decision. The two failure modes are distinct on purpose: a missing
// principal is unauthenticated (401), a non-admin principal is forbidden
// (403). They must never be conflated.
func Authorize(p requestcontext.PrincipalInfo, resolved bool) error {
	if !resolved {
		return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if !p.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "administrator role required")
	}
	return nil
}
