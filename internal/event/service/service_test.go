package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"inscrito/internal/audit"
	"inscrito/internal/event/models"
	eventStore "inscrito/internal/event/store"
	"inscrito/internal/platform/metrics"
	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
)

// =============================================================================
// Event Service Test Suite
// =============================================================================
// The event lifecycle (status transition table, auto-close predicate, category
// management) lives in the service and entity layers; exercising it here keeps
// the HTTP tests thin.

type EventServiceSuite struct {
	suite.Suite
	store   *eventStore.InMemory
	auditor *audit.Memory
	service *Service
	now     time.Time
}

func TestEventServiceSuite(t *testing.T) {
	suite.Run(t, new(EventServiceSuite))
}

func (s *EventServiceSuite) SetupTest() {
	s.store = eventStore.NewInMemory()
	s.auditor = audit.NewMemory()
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.service = New(s.store,
		WithAuditPublisher(s.auditor),
		WithMetrics(metrics.NewForTesting()),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *EventServiceSuite) createOpenEvent(title string) *models.Event {
	event, err := s.service.Create(context.Background(), &models.CreateEventRequest{
		Title:    title,
		StartsAt: s.now.Add(24 * time.Hour),
	})
	s.Require().NoError(err)
	event, err = s.service.ChangeStatus(context.Background(), event.ID, models.StatusOpen)
	s.Require().NoError(err)
	return event
}

// =============================================================================
// Create Tests
// =============================================================================

func (s *EventServiceSuite) TestCreate() {
	ctx := context.Background()

	s.Run("creates a draft with pix as the default method", func() {
		event, err := s.service.Create(ctx, &models.CreateEventRequest{
			Title:    "Encontro de Corrida",
			StartsAt: s.now.Add(48 * time.Hour),
		})
		s.NoError(err)
		s.Equal(models.StatusDraft, event.Status)
		s.Equal([]id.PaymentMethod{id.PaymentMethodPix}, event.PaymentMethods)
		s.Len(s.auditor.ByAction(audit.ActionEventCreated), 1)
	})

	s.Run("rejects empty title", func() {
		_, err := s.service.Create(ctx, &models.CreateEventRequest{
			Title:    "   ",
			StartsAt: s.now,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects unknown payment method", func() {
		_, err := s.service.Create(ctx, &models.CreateEventRequest{
			Title:          "Pedalada",
			StartsAt:       s.now,
			PaymentMethods: []string{"cheque"},
		})
		s.Error(err)
	})

	s.Run("rejects end before start", func() {
		ends := s.now.Add(-time.Hour)
		_, err := s.service.Create(ctx, &models.CreateEventRequest{
			Title:    "Evento Invertido",
			StartsAt: s.now,
			EndsAt:   &ends,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Status Transition Tests
// =============================================================================

func (s *EventServiceSuite) TestChangeStatus() {
	ctx := context.Background()

	s.Run("draft opens", func() {
		event, err := s.service.Create(ctx, &models.CreateEventRequest{Title: "E1", StartsAt: s.now})
		s.Require().NoError(err)

		updated, err := s.service.ChangeStatus(ctx, event.ID, models.StatusOpen)
		s.NoError(err)
		s.Equal(models.StatusOpen, updated.Status)
	})

	s.Run("draft cannot end directly", func() {
		event, err := s.service.Create(ctx, &models.CreateEventRequest{Title: "E2", StartsAt: s.now})
		s.Require().NoError(err)

		_, err = s.service.ChangeStatus(ctx, event.ID, models.StatusEnded)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("closed event can reopen", func() {
		event := s.createOpenEvent("E3")
		_, err := s.service.ChangeStatus(ctx, event.ID, models.StatusClosed)
		s.Require().NoError(err)

		updated, err := s.service.ChangeStatus(ctx, event.ID, models.StatusOpen)
		s.NoError(err)
		s.Equal(models.StatusOpen, updated.Status)
	})

	s.Run("ended is terminal", func() {
		event := s.createOpenEvent("E4")
		_, err := s.service.ChangeStatus(ctx, event.ID, models.StatusEnded)
		s.Require().NoError(err)

		_, err = s.service.ChangeStatus(ctx, event.ID, models.StatusOpen)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown status rejected", func() {
		event := s.createOpenEvent("E5")
		_, err := s.service.ChangeStatus(ctx, event.ID, models.EventStatus("pausado"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing event returns not found", func() {
		_, err := s.service.ChangeStatus(ctx, id.NewEventID(), models.StatusOpen)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Close Tests
// =============================================================================

func (s *EventServiceSuite) TestClose() {
	ctx := context.Background()

	s.Run("closes an open event and audits it", func() {
		event := s.createOpenEvent("Corrida da Serra")

		closed, err := s.service.Close(ctx, event.ID)
		s.NoError(err)
		s.Equal(models.StatusEnded, closed.Status)
		s.Len(s.auditor.ByAction(audit.ActionEventClosed), 1)
	})

	s.Run("closing twice fails", func() {
		event := s.createOpenEvent("Corrida do Vale")
		_, err := s.service.Close(ctx, event.ID)
		s.Require().NoError(err)

		_, err = s.service.Close(ctx, event.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *EventServiceSuite) TestCloseExpired() {
	ctx := context.Background()

	s.Run("ends only open events past their deadline", func() {
		past := s.createOpenEvent("Passado")
		future := s.createOpenEvent("Futuro")

		// Move the clock past the first event's start but not the second's.
		startsAt := s.now.Add(-48 * time.Hour)
		_, err := s.service.Update(ctx, past.ID, &models.UpdateEventRequest{StartsAt: &startsAt})
		s.Require().NoError(err)

		closed, err := s.service.CloseExpired(ctx)
		s.NoError(err)
		s.Equal(1, closed)

		got, err := s.service.Get(ctx, past.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusEnded, got.Status)

		got, err = s.service.Get(ctx, future.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusOpen, got.Status)
	})

	s.Run("prefers ends_at over starts_at as the deadline", func() {
		event := s.createOpenEvent("Com Fim")
		startsAt := s.now.Add(-72 * time.Hour)
		endsAt := s.now.Add(24 * time.Hour)
		_, err := s.service.Update(ctx, event.ID, &models.UpdateEventRequest{
			StartsAt: &startsAt,
			EndsAt:   &endsAt,
		})
		s.Require().NoError(err)

		closed, err := s.service.CloseExpired(ctx)
		s.NoError(err)
		s.Equal(0, closed)
	})
}

// =============================================================================
// Listing Tests
// =============================================================================

func (s *EventServiceSuite) TestListOpen() {
	ctx := context.Background()

	s.Run("returns only open events", func() {
		s.createOpenEvent("Aberto")
		_, err := s.service.Create(ctx, &models.CreateEventRequest{Title: "Rascunho", StartsAt: s.now})
		s.Require().NoError(err)

		events, err := s.service.ListOpen(ctx)
		s.NoError(err)
		s.Len(events, 1)
		s.Equal("Aberto", events[0].Title)
	})
}

func (s *EventServiceSuite) TestList() {
	ctx := context.Background()

	s.Run("invalid status filter rejected", func() {
		_, err := s.service.List(ctx, models.ListEventsFilter{Status: "inexistente"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("pagination defaults applied", func() {
		for range 3 {
			s.createOpenEvent("Evento")
		}
		events, err := s.service.List(ctx, models.ListEventsFilter{Limit: -5})
		s.NoError(err)
		s.Len(events, 3)
	})
}

// =============================================================================
// Delete Tests
// =============================================================================

func (s *EventServiceSuite) TestDelete() {
	ctx := context.Background()

	s.Run("draft can be deleted", func() {
		event, err := s.service.Create(ctx, &models.CreateEventRequest{Title: "Descartado", StartsAt: s.now})
		s.Require().NoError(err)

		s.NoError(s.service.Delete(ctx, event.ID))
		_, err = s.service.Get(ctx, event.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("open event cannot be deleted", func() {
		event := s.createOpenEvent("Protegido")
		err := s.service.Delete(ctx, event.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Category Tests
// =============================================================================

func (s *EventServiceSuite) TestCategories() {
	ctx := context.Background()

	s.Run("adds a priced category", func() {
		event := s.createOpenEvent("Meia Maratona")

		category, err := s.service.AddCategory(ctx, event.ID, &models.CreateCategoryRequest{
			Name:          "21km",
			PriceCentavos: 9000,
		})
		s.NoError(err)
		s.Equal(id.Money(9000), category.Price)

		got, err := s.service.Get(ctx, event.ID)
		s.Require().NoError(err)
		s.Len(got.Categories, 1)
	})

	s.Run("zero price is a free category", func() {
		event := s.createOpenEvent("Caminhada")
		category, err := s.service.AddCategory(ctx, event.ID, &models.CreateCategoryRequest{
			Name: "Kids",
		})
		s.NoError(err)
		s.Equal(id.Money(0), category.Price)
	})

	s.Run("negative price rejected", func() {
		event := s.createOpenEvent("Trilha")
		_, err := s.service.AddCategory(ctx, event.ID, &models.CreateCategoryRequest{
			Name:          "5km",
			PriceCentavos: -100,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("category on missing event is not found", func() {
		_, err := s.service.AddCategory(ctx, id.NewEventID(), &models.CreateCategoryRequest{Name: "10km"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("update rewrites name and price", func() {
		event := s.createOpenEvent("Revezamento")
		category, err := s.service.AddCategory(ctx, event.ID, &models.CreateCategoryRequest{
			Name:          "Dupla",
			PriceCentavos: 12000,
		})
		s.Require().NoError(err)

		updated, err := s.service.UpdateCategory(ctx, event.ID, category.ID, &models.CreateCategoryRequest{
			Name:          "Quarteto",
			PriceCentavos: 20000,
		})
		s.NoError(err)
		s.Equal("Quarteto", updated.Name)
		s.Equal(id.Money(20000), updated.Price)
	})

	s.Run("remove deletes the category", func() {
		event := s.createOpenEvent("Noturna")
		category, err := s.service.AddCategory(ctx, event.ID, &models.CreateCategoryRequest{Name: "10km"})
		s.Require().NoError(err)

		s.NoError(s.service.RemoveCategory(ctx, event.ID, category.ID))
		got, err := s.service.Get(ctx, event.ID)
		s.Require().NoError(err)
		s.Empty(got.Categories)
	})
}
