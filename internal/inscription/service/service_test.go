package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"inscrito/internal/audit"
	eventModels "inscrito/internal/event/models"
	eventStore "inscrito/internal/event/store"
	"inscrito/internal/inscription/models"
	inscriptionStore "inscrito/internal/inscription/store"
	"inscrito/internal/platform/metrics"
	userModels "inscrito/internal/user/models"
	userStore "inscrito/internal/user/store"
	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
)

// =============================================================================
// Inscription Service Test Suite
// =============================================================================
// The duplicate-prevention protocol spans three stores and a unique-index
// fallback; it is exercised here against the in-memory fakes, which enforce
// the same unique keys as the postgres indexes.

const validCPF = "529.982.247-25"

type InscriptionServiceSuite struct {
	suite.Suite
	inscriptions *inscriptionStore.InMemory
	events       *eventStore.InMemory
	users        *userStore.InMemory
	auditor      *audit.Memory
	service      *Service
	now          time.Time

	event    *eventModels.Event
	category *eventModels.Category
}

func TestInscriptionServiceSuite(t *testing.T) {
	suite.Run(t, new(InscriptionServiceSuite))
}

func (s *InscriptionServiceSuite) SetupTest() {
	s.inscriptions = inscriptionStore.NewInMemory()
	s.events = eventStore.NewInMemory()
	s.users = userStore.NewInMemory()
	s.auditor = audit.NewMemory()
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.service = New(s.inscriptions, s.events, s.users,
		WithAuditPublisher(s.auditor),
		WithMetrics(metrics.NewForTesting()),
		WithClock(func() time.Time { return s.now }),
	)

	ctx := context.Background()
	event, err := eventModels.NewEvent(id.NewEventID(), "Corrida da Serra", s.now.Add(72*time.Hour), nil,
		[]id.PaymentMethod{id.PaymentMethodPix, id.PaymentMethodCash}, s.now)
	s.Require().NoError(err)
	event.Status = eventModels.StatusOpen
	s.Require().NoError(s.events.Create(ctx, event))

	category, err := eventModels.NewCategory(id.NewCategoryID(), event.ID, "5km", 5000, "", 0)
	s.Require().NoError(err)
	s.Require().NoError(s.events.SaveCategory(ctx, category))

	s.event = event
	s.category = category
}

func (s *InscriptionServiceSuite) guestRequest(cpf string) *models.CreateGuestInscriptionRequest {
	return &models.CreateGuestInscriptionRequest{
		CategoryID:    s.category.ID.String(),
		PaymentMethod: "pix",
		Name:          "Maria da Silva",
		Email:         "maria@example.com",
		CPF:           cpf,
	}
}

func (s *InscriptionServiceSuite) seedUser(cpf string) *userModels.User {
	user, err := userModels.NewUser(id.NewUserID(), "Joao Pereira", "joao@example.com", id.CPF(onlyDigitsForTest(cpf)), "", s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.users.Save(context.Background(), user))
	return user
}

func onlyDigitsForTest(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			out = append(out, s[i])
		}
	}
	return string(out)
}

// =============================================================================
// Guest Registration Tests
// =============================================================================

func (s *InscriptionServiceSuite) TestCreateForGuest() {
	ctx := context.Background()

	s.Run("creates pending inscription with category price", func() {
		inscription, err := s.service.CreateForGuest(ctx, s.event.ID, s.guestRequest(validCPF))
		s.Require().NoError(err)
		s.Equal(models.StatusPending, inscription.Status)
		s.Equal(id.Money(5000), inscription.Amount)
		s.True(inscription.IsGuest())
		s.Len(s.auditor.ByAction(audit.ActionInscriptionCreated), 1)
	})

	s.Run("second registration with same cpf is a duplicate", func() {
		_, err := s.service.CreateForGuest(ctx, s.event.ID, s.guestRequest(validCPF))
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateInscription))
	})

	s.Run("formatted and bare cpf hit the same key", func() {
		_, err := s.service.CreateForGuest(ctx, s.event.ID, s.guestRequest("52998224725"))
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateInscription))
	})

	s.Run("invalid cpf rejected before any store access", func() {
		_, err := s.service.CreateForGuest(ctx, s.event.ID, s.guestRequest("111.111.111-11"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown category is not found", func() {
		req := s.guestRequest("987.654.321-00")
		req.CategoryID = id.NewCategoryID().String()
		_, err := s.service.CreateForGuest(ctx, s.event.ID, req)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("rejected payment method", func() {
		req := s.guestRequest("987.654.321-00")
		req.PaymentMethod = "cartao"
		_, err := s.service.CreateForGuest(ctx, s.event.ID, req)
		s.Error(err)
	})
}

func (s *InscriptionServiceSuite) TestEventNotOpen() {
	ctx := context.Background()

	s.Run("ended event rejects any registration", func() {
		s.event.Status = eventModels.StatusEnded
		s.Require().NoError(s.events.Update(ctx, s.event))

		_, err := s.service.CreateForGuest(ctx, s.event.ID, s.guestRequest(validCPF))
		s.True(dErrors.HasCode(err, dErrors.CodeEventNotOpen))
	})

	s.Run("draft event rejects any registration", func() {
		s.event.Status = eventModels.StatusDraft
		s.Require().NoError(s.events.Update(ctx, s.event))

		_, err := s.service.CreateForGuest(ctx, s.event.ID, s.guestRequest(validCPF))
		s.True(dErrors.HasCode(err, dErrors.CodeEventNotOpen))
	})
}

// =============================================================================
// Cross-Identity Duplicate Tests
// =============================================================================

func (s *InscriptionServiceSuite) TestGuestVersusUserDuplicates() {
	ctx := context.Background()

	s.Run("guest blocked when a user with same cpf already registered", func() {
		user := s.seedUser(validCPF)
		_, err := s.service.CreateForUser(ctx, s.event.ID, user.ID, &models.CreateUserInscriptionRequest{
			CategoryID:    s.category.ID.String(),
			PaymentMethod: "pix",
		})
		s.Require().NoError(err)

		_, err = s.service.CreateForGuest(ctx, s.event.ID, s.guestRequest(validCPF))
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateInscription))
	})

	s.Run("user blocked when a guest with same cpf already registered", func() {
		s.SetupTest()
		_, err := s.service.CreateForGuest(ctx, s.event.ID, s.guestRequest(validCPF))
		s.Require().NoError(err)

		user := s.seedUser(validCPF)
		_, err = s.service.CreateForUser(ctx, s.event.ID, user.ID, &models.CreateUserInscriptionRequest{
			CategoryID:    s.category.ID.String(),
			PaymentMethod: "pix",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateInscription))
	})

	s.Run("user registering twice is a duplicate", func() {
		s.SetupTest()
		user := s.seedUser(validCPF)
		req := &models.CreateUserInscriptionRequest{CategoryID: s.category.ID.String(), PaymentMethod: "pix"}

		_, err := s.service.CreateForUser(ctx, s.event.ID, user.ID, req)
		s.Require().NoError(err)
		_, err = s.service.CreateForUser(ctx, s.event.ID, user.ID, req)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicateInscription))
	})
}

// =============================================================================
// Lifecycle Tests
// =============================================================================

func (s *InscriptionServiceSuite) TestCancel() {
	ctx := context.Background()

	s.Run("pending inscription cancels", func() {
		inscription, err := s.service.CreateForGuest(ctx, s.event.ID, s.guestRequest(validCPF))
		s.Require().NoError(err)

		cancelled, err := s.service.Cancel(ctx, inscription.ID)
		s.NoError(err)
		s.True(cancelled.IsCancelled())
		s.Len(s.auditor.ByAction(audit.ActionInscriptionCancelled), 1)
	})

	s.Run("unknown inscription is not found", func() {
		_, err := s.service.Cancel(ctx, id.NewInscriptionID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *InscriptionServiceSuite) TestConfirmManually() {
	ctx := context.Background()

	s.Run("organizer confirms a cash registration", func() {
		req := s.guestRequest(validCPF)
		req.PaymentMethod = "dinheiro"
		inscription, err := s.service.CreateForGuest(ctx, s.event.ID, req)
		s.Require().NoError(err)

		confirmed, err := s.service.ConfirmManually(ctx, inscription.ID, "organizer-1")
		s.NoError(err)
		s.True(confirmed.IsConfirmed())
		s.Contains(confirmed.PaymentRef, "MANUAL-organizer-1-")

		audits := s.auditor.ByAction(audit.ActionInscriptionConfirmed)
		s.Require().Len(audits, 1)
		s.Equal("manual", audits[0].Reason)
	})

	s.Run("confirming an already-confirmed inscription fails", func() {
		s.SetupTest()
		inscription, err := s.service.CreateForGuest(ctx, s.event.ID, s.guestRequest(validCPF))
		s.Require().NoError(err)
		_, err = s.service.ConfirmManually(ctx, inscription.ID, "organizer-1")
		s.Require().NoError(err)

		_, err = s.service.ConfirmManually(ctx, inscription.ID, "organizer-2")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// Lookup Tests
// =============================================================================

func (s *InscriptionServiceSuite) TestLookupByCPF() {
	ctx := context.Background()

	s.Run("finds registrations across events by normalized cpf", func() {
		_, err := s.service.CreateForGuest(ctx, s.event.ID, s.guestRequest(validCPF))
		s.Require().NoError(err)

		found, err := s.service.LookupByCPF(ctx, "529.982.247-25")
		s.NoError(err)
		s.Len(found, 1)
	})

	s.Run("invalid cpf rejected", func() {
		_, err := s.service.LookupByCPF(ctx, "not-a-cpf")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *InscriptionServiceSuite) TestCountByStatus() {
	ctx := context.Background()

	inscription, err := s.service.CreateForGuest(ctx, s.event.ID, s.guestRequest(validCPF))
	s.Require().NoError(err)
	_, err = s.service.ConfirmManually(ctx, inscription.ID, "organizer-1")
	s.Require().NoError(err)

	counts, err := s.service.CountByStatus(ctx, s.event.ID)
	s.NoError(err)
	s.Equal(1, counts[models.StatusConfirmed])
	s.Zero(counts[models.StatusPending])
}
