package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	id "clearport/pkg/domain"
	dErrors "clearport/pkg/domain-errors"
	"clearport/pkg/requestcontext"
)

func TestAuthorize(t *testing.T) {
	t.Run("admin passes", func(t *testing.T) {
		p := requestcontext.PrincipalInfo{ID: id.NewUserID(), Role: requestcontext.RoleAdmin}
		assert.NoError(t, Authorize(p, true))
	})

	t.Run("unresolved principal is unauthenticated, not forbidden", func(t *testing.T) {
		err := Authorize(requestcontext.PrincipalInfo{}, false)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
		assert.False(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("member role is forbidden, not unauthenticated", func(t *testing.T) {
		p := requestcontext.PrincipalInfo{ID: id.NewUserID(), Role: requestcontext.RoleMember}
		err := Authorize(p, true)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
		assert.False(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("unknown role is forbidden", func(t *testing.T) {
		p := requestcontext.PrincipalInfo{ID: id.NewUserID(), Role: "auditor"}
		err := Authorize(p, true)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})
}
