// Package store holds the user store implementations backing the identity
// resolver.
package store

import (
	"context"
	"sync"

	"clearport/internal/identity"
	id "clearport/pkg/domain"
	"clearport/pkg/platform/sentinel"
)

// Memory is a mutex-guarded in-memory user store for unit tests and dev runs.
type Memory struct {
	mu    sync.RWMutex
	users map[id.UserID]identity.User
}

func NewMemory() *Memory {
	return &Memory{users: make(map[id.UserID]identity.User)}
}

func (s *Memory) Save(_ context.Context, user identity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	return nil
}

func (s *Memory) FindByID(_ context.Context, userID id.UserID) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := user
	return &out, nil
}

func (s *Memory) FindByEmail(_ context.Context, email string) (*identity.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, user := range s.users {
		if user.Email == email {
			out := user
			return &out, nil
		}
	}
	return nil, sentinel.ErrNotFound
}
