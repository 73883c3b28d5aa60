package store

import (
	"context"
	"sync"

	"inscrito/internal/user/models"
	id "inscrito/pkg/domain"
	"inscrito/pkg/platform/sentinel"
)

// InMemory keeps user profiles in maps. Used by unit tests and local runs.
type InMemory struct {
	mu    sync.RWMutex
	byID  map[id.UserID]*models.User
	byCPF map[id.CPF]id.UserID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:  make(map[id.UserID]*models.User),
		byCPF: make(map[id.CPF]id.UserID),
	}
}

func (s *InMemory) Save(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existingID, ok := s.byCPF[user.CPF]; ok && existingID != user.ID {
		return sentinel.ErrConflict
	}
	cp := *user
	s.byID[user.ID] = &cp
	s.byCPF[user.CPF] = user.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.byID[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *user
	return &cp, nil
}

func (s *InMemory) FindByCPF(_ context.Context, cpf id.CPF) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, ok := s.byCPF[cpf]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[userID]
	return &cp, nil
}
