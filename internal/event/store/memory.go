package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"inscrito/internal/event/models"
	id "inscrito/pkg/domain"
	"inscrito/pkg/platform/sentinel"
)

// InMemory keeps events and their categories in maps. The duplicate and
// ordering behavior mirrors what the postgres indexes enforce so services can
// be tested against this store with the same semantics.
type InMemory struct {
	mu         sync.RWMutex
	events     map[id.EventID]*models.Event
	categories map[id.EventID][]models.Category
}

func NewInMemory() *InMemory {
	return &InMemory{
		events:     make(map[id.EventID]*models.Event),
		categories: make(map[id.EventID][]models.Category),
	}
}

func (s *InMemory) Create(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[event.ID]; exists {
		return sentinel.ErrConflict
	}
	s.events[event.ID] = copyEvent(event)
	return nil
}

func (s *InMemory) Update(_ context.Context, event *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[event.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.events[event.ID] = copyEvent(event)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, eventID id.EventID) (*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	event, ok := s.events[eventID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := copyEvent(event)
	out.Categories = s.sortedCategories(eventID)
	return out, nil
}

func (s *InMemory) List(_ context.Context, filter models.ListEventsFilter) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var all []*models.Event
	for _, event := range s.events {
		if filter.Status != "" && event.Status != filter.Status {
			continue
		}
		out := copyEvent(event)
		out.Categories = s.sortedCategories(event.ID)
		all = append(all, out)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].StartsAt.Before(all[j].StartsAt) })

	if filter.Offset >= len(all) {
		return nil, nil
	}
	all = all[filter.Offset:]
	if filter.Limit > 0 && len(all) > filter.Limit {
		all = all[:filter.Limit]
	}
	return all, nil
}

func (s *InMemory) FindExpiredOpen(_ context.Context, now time.Time) ([]*models.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Event
	for _, event := range s.events {
		if event.ShouldAutoClose(now) {
			out = append(out, copyEvent(event))
		}
	}
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, eventID id.EventID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[eventID]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.events, eventID)
	delete(s.categories, eventID)
	return nil
}

// SaveCategory upserts a category under its event.
func (s *InMemory) SaveCategory(_ context.Context, category *models.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[category.EventID]; !exists {
		return sentinel.ErrNotFound
	}
	cats := s.categories[category.EventID]
	for i := range cats {
		if cats[i].ID == category.ID {
			cats[i] = *category
			return nil
		}
	}
	s.categories[category.EventID] = append(cats, *category)
	return nil
}

func (s *InMemory) DeleteCategory(_ context.Context, eventID id.EventID, categoryID id.CategoryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cats := s.categories[eventID]
	for i := range cats {
		if cats[i].ID == categoryID {
			s.categories[eventID] = append(cats[:i], cats[i+1:]...)
			return nil
		}
	}
	return sentinel.ErrNotFound
}

func (s *InMemory) sortedCategories(eventID id.EventID) []models.Category {
	cats := append([]models.Category(nil), s.categories[eventID]...)
	sort.Slice(cats, func(i, j int) bool { return cats[i].DisplayOrder < cats[j].DisplayOrder })
	return cats
}

func copyEvent(event *models.Event) *models.Event {
	cp := *event
	cp.PaymentMethods = append([]id.PaymentMethod(nil), event.PaymentMethods...)
	cp.Categories = nil
	return &cp
}
