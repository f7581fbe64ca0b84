package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "clearport/pkg/domain"
	"clearport/pkg/platform/sentinel"
	"clearport/pkg/requestcontext"
)

// UserStore is the read surface the resolver needs.
type UserStore interface {
	FindByID(ctx context.Context, userID id.UserID) (*User, error)
}

// RoleCache caches role lookups so every request does not hit the user
// store. A nil cache is valid and means "always look up".
type RoleCache interface {
	Get(ctx context.Context, userID id.UserID) (requestcontext.Role, bool)
	Set(ctx context.Context, userID id.UserID, role requestcontext.Role)
}

// Resolver turns session tokens into principals.
type Resolver struct {
	users      UserStore
	cache      RoleCache
	signingKey []byte
}

func NewResolver(users UserStore, cache RoleCache, signingKey []byte) *Resolver {
	return &Resolver{users: users, cache: cache, signingKey: signingKey}
}

// Resolve validates the session token and returns the principal with its
// current role. The role comes from the store (via cache), not from the
// token, so demotions take effect without waiting for token expiry.
func (r *Resolver) Resolve(ctx context.Context, token string) (requestcontext.PrincipalInfo, error) {
	userID, err := r.parseSubject(token)
	if err != nil {
		return requestcontext.PrincipalInfo{}, err
	}

	if r.cache != nil {
		if role, ok := r.cache.Get(ctx, userID); ok {
			return requestcontext.PrincipalInfo{ID: userID, Role: role}, nil
		}
	}

	user, err := r.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return requestcontext.PrincipalInfo{}, fmt.Errorf("unknown principal %s: %w", userID, err)
		}
		return requestcontext.PrincipalInfo{}, fmt.Errorf("lookup principal: %w", err)
	}

	if r.cache != nil {
		r.cache.Set(ctx, userID, user.Role)
	}
	return requestcontext.PrincipalInfo{ID: user.ID, Role: user.Role}, nil
}

func (r *Resolver) parseSubject(token string) (id.UserID, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return id.UserID{}, fmt.Errorf("parse session token: %w", err)
	}

	sub, err := parsed.Claims.GetSubject()
	if err != nil {
		return id.UserID{}, fmt.Errorf("session token subject: %w", err)
	}
	return id.ParseUserID(sub)
}

// MintToken issues a short session token for the given user. Used by dev
// seeding and tests; real sign-in flows live outside this service.
func MintToken(userID id.UserID, signingKey []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString(signingKey)
}
