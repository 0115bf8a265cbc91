package auth

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/intelligence/internal/common"
	"github.com/dmitrijs2005/intelligence/internal/server/models"
)

// fakeStore is an in-memory UserStore keyed by id, name and email.
type fakeStore struct {
	mu    sync.Mutex
	users []*models.User
	err   error
	calls int
}

func (s *fakeStore) FindByIdentifier(_ context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	for _, u := range s.users {
		if u.ID == id || u.Name == id || u.Email == id {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (s *fakeStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.users[:0]
	for _, u := range s.users {
		if u.ID != id {
			kept = append(kept, u)
		}
	}
	s.users = kept
}

func (s *fakeStore) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
