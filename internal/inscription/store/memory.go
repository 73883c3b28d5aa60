// Package store persists inscriptions. The in-memory variant mirrors the
// postgres uniqueness guarantees so service tests exercise the same duplicate
// signals the production store emits.
package store

import (
	"context"
	"sort"
	"sync"

	"inscrito/internal/inscription/models"
	id "inscrito/pkg/domain"
	"inscrito/pkg/platform/sentinel"
)

type eventCPFKey struct {
	eventID id.EventID
	cpf     id.CPF
}

type eventUserKey struct {
	eventID id.EventID
	userID  id.UserID
}

// InMemory enforces the same unique keys as the postgres indexes: one
// inscription per (event, cpf) and per (event, user).
type InMemory struct {
	mu        sync.RWMutex
	byID      map[id.InscriptionID]*models.Inscription
	byCPFKey  map[eventCPFKey]id.InscriptionID
	byUserKey map[eventUserKey]id.InscriptionID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:      make(map[id.InscriptionID]*models.Inscription),
		byCPFKey:  make(map[eventCPFKey]id.InscriptionID),
		byUserKey: make(map[eventUserKey]id.InscriptionID),
	}
}

// Create inserts a new inscription, returning ErrConflict when either unique
// key is already taken. The conflict check and the insert happen under one
// lock, the in-memory stand-in for the database's unique index.
func (s *InMemory) Create(_ context.Context, inscription *models.Inscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[inscription.ID]; ok {
		return sentinel.ErrConflict
	}
	cpfKey := eventCPFKey{eventID: inscription.EventID, cpf: inscription.CPF}
	if _, ok := s.byCPFKey[cpfKey]; ok {
		return sentinel.ErrConflict
	}
	var userKey eventUserKey
	if inscription.UserID != nil {
		userKey = eventUserKey{eventID: inscription.EventID, userID: *inscription.UserID}
		if _, ok := s.byUserKey[userKey]; ok {
			return sentinel.ErrConflict
		}
	}

	cp := *inscription
	s.byID[inscription.ID] = &cp
	s.byCPFKey[cpfKey] = inscription.ID
	if inscription.UserID != nil {
		s.byUserKey[userKey] = inscription.ID
	}
	return nil
}

func (s *InMemory) Update(_ context.Context, inscription *models.Inscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[inscription.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *inscription
	s.byID[inscription.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, inscriptionID id.InscriptionID) (*models.Inscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inscription, ok := s.byID[inscriptionID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *inscription
	return &cp, nil
}

func (s *InMemory) FindByEventIDAndCPF(_ context.Context, eventID id.EventID, cpf id.CPF) (*models.Inscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inscriptionID, ok := s.byCPFKey[eventCPFKey{eventID: eventID, cpf: cpf}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[inscriptionID]
	return &cp, nil
}

func (s *InMemory) FindByEventIDAndUserID(_ context.Context, eventID id.EventID, userID id.UserID) (*models.Inscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	inscriptionID, ok := s.byUserKey[eventUserKey{eventID: eventID, userID: userID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[inscriptionID]
	return &cp, nil
}

func (s *InMemory) FindByUserID(_ context.Context, userID id.UserID) ([]*models.Inscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Inscription
	for _, inscription := range s.byID {
		if inscription.UserID != nil && *inscription.UserID == userID {
			cp := *inscription
			out = append(out, &cp)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemory) FindByCPF(_ context.Context, cpf id.CPF) ([]*models.Inscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Inscription
	for _, inscription := range s.byID {
		if inscription.CPF == cpf {
			cp := *inscription
			out = append(out, &cp)
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *InMemory) FindByEventID(_ context.Context, eventID id.EventID, filter models.ListFilter) ([]*models.Inscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Inscription
	for _, inscription := range s.byID {
		if inscription.EventID != eventID {
			continue
		}
		if filter.Status != "" && inscription.Status != filter.Status {
			continue
		}
		cp := *inscription
		out = append(out, &cp)
	}
	sortByCreation(out)

	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *InMemory) CountByStatus(_ context.Context, eventID id.EventID) (map[models.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.Status]int)
	for _, inscription := range s.byID {
		if inscription.EventID == eventID {
			counts[inscription.Status]++
		}
	}
	return counts, nil
}

func (s *InMemory) Delete(_ context.Context, inscriptionID id.InscriptionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	inscription, ok := s.byID[inscriptionID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byCPFKey, eventCPFKey{eventID: inscription.EventID, cpf: inscription.CPF})
	if inscription.UserID != nil {
		delete(s.byUserKey, eventUserKey{eventID: inscription.EventID, userID: *inscription.UserID})
	}
	delete(s.byID, inscriptionID)
	return nil
}

func sortByCreation(inscriptions []*models.Inscription) {
	sort.Slice(inscriptions, func(i, j int) bool {
		if inscriptions[i].CreatedAt.Equal(inscriptions[j].CreatedAt) {
			return inscriptions[i].ID.String() < inscriptions[j].ID.String()
		}
		return inscriptions[i].CreatedAt.Before(inscriptions[j].CreatedAt)
	})
}
