package store

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/naveenspark/homedash/pkg/domain"
)

// UserStore is the household member directory used for owner pickers.
type UserStore struct {
	api API

	mu    sync.RWMutex
	users []domain.User
}

func NewUserStore(api API) *UserStore {
	return &UserStore{api: api}
}

// List fetches every user.
func (s *UserStore) List(ctx context.Context) ([]domain.User, error) {
	var users []domain.User
	if err := s.api.Do(ctx, http.MethodGet, "/users", nil, &users); err != nil {
		return nil, fmt.Errorf("store.ListUsers: %w", err)
	}
	if err := validateAll(users); err != nil {
		return nil, fmt.Errorf("store.ListUsers: %w", err)
	}
	s.mu.Lock()
	s.users = users
	s.mu.Unlock()
	return append([]domain.User(nil), users...), nil
}

// Usernames resolves owner ids against the last listed users.
func (s *UserStore) Usernames(ids []string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.Usernames(s.users, ids)
}
