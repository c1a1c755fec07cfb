package memstore

import (
	"context"
	"strings"

	"github.com/Shivanand-hulikatti/explore-events/internal/model"
	"github.com/Shivanand-hulikatti/explore-events/internal/repository"
	"github.com/google/uuid"
)

type Users struct{ db *DB }

func (s *Users) Create(_ context.Context, u *model.User) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	s.db.users[u.ID] = *u
	return nil
}

func (s *Users) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	_, ok := s.db.users[id]
	return ok, nil
}

func (s *Users) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.User, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make(map[uuid.UUID]model.User, len(ids))
	for _, id := range ids {
		if u, ok := s.db.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

type Categories struct{ db *DB }

func (s *Categories) Create(_ context.Context, c *model.Category) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, existing := range s.db.categories {
		if existing.Name == c.Name {
			return repository.ErrDuplicate
		}
	}
	s.db.categories[c.ID] = *c
	return nil
}

func (s *Categories) Exists(_ context.Context, id uuid.UUID) (bool, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	_, ok := s.db.categories[id]
	return ok, nil
}

func (s *Categories) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]model.Category, error) {
	s.db.mu.RLock()
	defer s.db.mu.RUnlock()
	out := make(map[uuid.UUID]model.Category, len(ids))
	for _, id := range ids {
		if c, ok := s.db.categories[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}
