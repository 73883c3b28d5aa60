// Package store persists payments. The charge id is the unique gateway key
// in both variants.
package store

import (
	"context"
	"sort"
	"sync"

	"inscrito/internal/payment/models"
	id "inscrito/pkg/domain"
	"inscrito/pkg/platform/sentinel"
)

type InMemory struct {
	mu       sync.RWMutex
	byID     map[id.PaymentID]*models.Payment
	byCharge map[string]id.PaymentID
}

func NewInMemory() *InMemory {
	return &InMemory{
		byID:     make(map[id.PaymentID]*models.Payment),
		byCharge: make(map[string]id.PaymentID),
	}
}

func (s *InMemory) Create(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[payment.ID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byCharge[payment.ChargeID]; ok {
		return sentinel.ErrConflict
	}
	cp := *payment
	s.byID[payment.ID] = &cp
	s.byCharge[payment.ChargeID] = payment.ID
	return nil
}

func (s *InMemory) Update(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[payment.ID]; !ok {
		return sentinel.ErrNotFound
	}
	cp := *payment
	s.byID[payment.ID] = &cp
	return nil
}

func (s *InMemory) FindByID(_ context.Context, paymentID id.PaymentID) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payment, ok := s.byID[paymentID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *payment
	return &cp, nil
}

func (s *InMemory) FindByExternalChargeID(_ context.Context, chargeID string) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	paymentID, ok := s.byCharge[chargeID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *s.byID[paymentID]
	return &cp, nil
}

func (s *InMemory) FindByInscriptionID(_ context.Context, inscriptionID id.InscriptionID) (*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var newest *models.Payment
	for _, payment := range s.byID {
		if payment.InscriptionID != inscriptionID {
			continue
		}
		if newest == nil || payment.CreatedAt.After(newest.CreatedAt) {
			newest = payment
		}
	}
	if newest == nil {
		return nil, sentinel.ErrNotFound
	}
	cp := *newest
	return &cp, nil
}

func (s *InMemory) FindByUserID(_ context.Context, userID id.UserID) ([]*models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Payment
	for _, payment := range s.byID {
		if payment.UserID != nil && *payment.UserID == userID {
			cp := *payment
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) Delete(_ context.Context, paymentID id.PaymentID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payment, ok := s.byID[paymentID]
	if !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byCharge, payment.ChargeID)
	delete(s.byID, paymentID)
	return nil
}

// SumConfirmedByEvent totals money that has actually arrived for one event.
func (s *InMemory) SumConfirmedByEvent(_ context.Context, eventID id.EventID) (id.Money, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total id.Money
	for _, payment := range s.byID {
		if payment.EventID == eventID && payment.IsConfirmed() {
			total = total.Add(payment.Amount)
		}
	}
	return total, nil
}
