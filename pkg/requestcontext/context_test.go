package requestcontext_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "clearport/pkg/domain"
	"clearport/pkg/requestcontext"
	"clearport/pkg/testutil"
)

func TestPrincipal(t *testing.T) {
	t.Run("absent from a bare context", func(t *testing.T) {
		_, ok := requestcontext.Principal(t.Context())
		assert.False(t, ok)
	})

	t.Run("round-trips through a request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req, userID := testutil.WithAdmin(req)

		p, ok := requestcontext.Principal(req.Context())
		require.True(t, ok)
		assert.Equal(t, userID, p.ID)
		assert.True(t, p.IsAdmin())
	})

	t.Run("member role is not admin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = testutil.WithPrincipal(req, id.NewUserID(), requestcontext.RoleMember)

		p, ok := requestcontext.Principal(req.Context())
		require.True(t, ok)
		assert.False(t, p.IsAdmin())
	})
}

func TestRequestID(t *testing.T) {
	assert.Empty(t, requestcontext.RequestID(t.Context()))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = testutil.WithRequestID(req, "req-42")
	assert.Equal(t, "req-42", requestcontext.RequestID(req.Context()))
}

func TestNow(t *testing.T) {
	t.Run("falls back to the wall clock", func(t *testing.T) {
		assert.WithinDuration(t, time.Now(), requestcontext.Now(t.Context()), time.Second)
	})

	t.Run("returns the frozen request time", func(t *testing.T) {
		at := time.Date(2026, time.March, 14, 10, 30, 0, 0, time.UTC)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = testutil.WithFrozenTime(req, at)
		assert.Equal(t, at, requestcontext.Now(req.Context()))
	})
}
