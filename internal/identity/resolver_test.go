package identity_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clearport/internal/identity"
	identitystore "clearport/internal/identity/store"
	id "clearport/pkg/domain"
	"clearport/pkg/requestcontext"
)

var signingKey = []byte("resolver-test-signing-key")

func seedUser(t *testing.T, users *identitystore.Memory, role requestcontext.Role) identity.User {
	t.Helper()
	user := identity.User{
		ID:        id.NewUserID(),
		Email:     "user@clearport.example",
		Role:      role,
		CreatedAt: time.Now(),
	}
	require.NoError(t, users.Save(context.Background(), user))
	return user
}

func TestResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("valid token yields the stored role", func(t *testing.T) {
		users := identitystore.NewMemory()
		user := seedUser(t, users, requestcontext.RoleAdmin)
		resolver := identity.NewResolver(users, nil, signingKey)

		token, err := identity.MintToken(user.ID, signingKey, time.Hour)
		require.NoError(t, err)

		p, err := resolver.Resolve(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, p.ID)
		assert.Equal(t, requestcontext.RoleAdmin, p.Role)
	})

	t.Run("role comes from the store, not the token", func(t *testing.T) {
		users := identitystore.NewMemory()
		user := seedUser(t, users, requestcontext.RoleAdmin)
		resolver := identity.NewResolver(users, nil, signingKey)

		token, err := identity.MintToken(user.ID, signingKey, time.Hour)
		require.NoError(t, err)

		// Demote after the token was issued.
		user.Role = requestcontext.RoleMember
		require.NoError(t, users.Save(ctx, user))

		p, err := resolver.Resolve(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, requestcontext.RoleMember, p.Role)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		users := identitystore.NewMemory()
		user := seedUser(t, users, requestcontext.RoleAdmin)
		resolver := identity.NewResolver(users, nil, signingKey)

		token, err := identity.MintToken(user.ID, signingKey, -time.Minute)
		require.NoError(t, err)

		_, err = resolver.Resolve(ctx, token)
		assert.Error(t, err)
	})

	t.Run("token signed with another key is rejected", func(t *testing.T) {
		users := identitystore.NewMemory()
		user := seedUser(t, users, requestcontext.RoleAdmin)
		resolver := identity.NewResolver(users, nil, signingKey)

		token, err := identity.MintToken(user.ID, []byte("some-other-key"), time.Hour)
		require.NoError(t, err)

		_, err = resolver.Resolve(ctx, token)
		assert.Error(t, err)
	})

	t.Run("unknown subject is rejected", func(t *testing.T) {
		users := identitystore.NewMemory()
		resolver := identity.NewResolver(users, nil, signingKey)

		token, err := identity.MintToken(id.NewUserID(), signingKey, time.Hour)
		require.NoError(t, err)

		_, err = resolver.Resolve(ctx, token)
		assert.Error(t, err)
	})

	t.Run("garbage token is rejected", func(t *testing.T) {
		users := identitystore.NewMemory()
		resolver := identity.NewResolver(users, nil, signingKey)

		_, err := resolver.Resolve(ctx, "not-a-jwt")
		assert.Error(t, err)
	})
}

func TestSeedBootstrapAdmin(t *testing.T) {
	ctx := context.Background()
	users := identitystore.NewMemory()

	admin, err := identitystore.SeedBootstrapAdmin(ctx, users, "admin@clearport.example", "password123")
	require.NoError(t, err)
	assert.Equal(t, requestcontext.RoleAdmin, admin.Role)
	assert.NotEmpty(t, admin.PasswordHash)
	assert.NotEqual(t, "password123", admin.PasswordHash)

	stored, err := users.FindByEmail(ctx, "admin@clearport.example")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, stored.ID)
}
