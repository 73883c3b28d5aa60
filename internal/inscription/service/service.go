// Package service orchestrates registrations: event-openness and category
// checks, the duplicate-prevention protocol, and the pending -> confirmed /
// cancelled transitions.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"inscrito/internal/audit"
	eventModels "inscrito/internal/event/models"
	"inscrito/internal/inscription/models"
	"inscrito/internal/platform/metrics"
	userModels "inscrito/internal/user/models"
	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
	"inscrito/pkg/platform/sentinel"
)

// InscriptionStore is the persistence boundary for inscriptions. Create must
// enforce the (event, cpf) and (event, user) unique keys and surface a
// violation as sentinel.ErrConflict.
type InscriptionStore interface {
	Create(ctx context.Context, inscription *models.Inscription) error
	Update(ctx context.Context, inscription *models.Inscription) error
	FindByID(ctx context.Context, inscriptionID id.InscriptionID) (*models.Inscription, error)
	FindByEventIDAndCPF(ctx context.Context, eventID id.EventID, cpf id.CPF) (*models.Inscription, error)
	FindByEventIDAndUserID(ctx context.Context, eventID id.EventID, userID id.UserID) (*models.Inscription, error)
	FindByUserID(ctx context.Context, userID id.UserID) ([]*models.Inscription, error)
	FindByCPF(ctx context.Context, cpf id.CPF) ([]*models.Inscription, error)
	FindByEventID(ctx context.Context, eventID id.EventID, filter models.ListFilter) ([]*models.Inscription, error)
	CountByStatus(ctx context.Context, eventID id.EventID) (map[models.Status]int, error)
}

// EventFinder resolves the target event with its categories.
type EventFinder interface {
	FindByID(ctx context.Context, eventID id.EventID) (*eventModels.Event, error)
}

// UserFinder resolves registrant profiles for the authenticated path and the
// guest-vs-user duplicate check.
type UserFinder interface {
	FindByID(ctx context.Context, userID id.UserID) (*userModels.User, error)
	FindByCPF(ctx context.Context, cpf id.CPF) (*userModels.User, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service implements registration use cases over the stores.
type Service struct {
	inscriptions InscriptionStore
	events       EventFinder
	users        UserFinder
	logger       *slog.Logger
	metrics      *metrics.Metrics
	auditor      AuditPublisher
	clock        func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

func New(inscriptions InscriptionStore, events EventFinder, users UserFinder, opts ...Option) *Service {
	s := &Service{
		inscriptions: inscriptions,
		events:       events,
		users:        users,
		logger:       slog.Default(),
		clock:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateForGuest registers an unauthenticated person. The duplicate protocol
// runs three advisory pre-checks, then treats a unique-key violation on the
// insert as the authoritative duplicate signal for whatever race slipped by.
func (s *Service) CreateForGuest(ctx context.Context, eventID id.EventID, req *models.CreateGuestInscriptionRequest) (*models.Inscription, error) {
	req.Normalize()
	guest, err := req.GuestData()
	if err != nil {
		return nil, err
	}
	categoryID, err := req.Category()
	if err != nil {
		return nil, err
	}
	method, err := req.Method()
	if err != nil {
		return nil, err
	}

	category, err := s.resolveOpenCategory(ctx, eventID, categoryID, method)
	if err != nil {
		return nil, err
	}

	// Pre-check (b): an inscription with this cpf already exists for the event.
	if err := s.rejectExistingCPF(ctx, eventID, guest.CPF); err != nil {
		return nil, err
	}
	// Pre-check (c): a registered user carries this cpf and is already in.
	if user, err := s.users.FindByCPF(ctx, guest.CPF); err == nil {
		if _, err := s.inscriptions.FindByEventIDAndUserID(ctx, eventID, user.ID); err == nil {
			return nil, s.duplicate()
		}
	}

	now := s.clock()
	inscription, err := models.NewForGuest(id.NewInscriptionID(), eventID, categoryID, guest, category.Price, method, now)
	if err != nil {
		return nil, err
	}
	return s.persistNew(ctx, inscription, "guest")
}

// CreateForUser registers the authenticated caller. Identity and cpf come
// from the stored profile.
func (s *Service) CreateForUser(ctx context.Context, eventID id.EventID, userID id.UserID, req *models.CreateUserInscriptionRequest) (*models.Inscription, error) {
	categoryID, err := req.Category()
	if err != nil {
		return nil, err
	}
	method, err := req.Method()
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "user not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load user")
	}

	category, err := s.resolveOpenCategory(ctx, eventID, categoryID, method)
	if err != nil {
		return nil, err
	}

	if _, err := s.inscriptions.FindByEventIDAndUserID(ctx, eventID, userID); err == nil {
		return nil, s.duplicate()
	}
	if err := s.rejectExistingCPF(ctx, eventID, user.CPF); err != nil {
		return nil, err
	}

	now := s.clock()
	inscription, err := models.NewForUser(id.NewInscriptionID(), eventID, categoryID, userID, user.CPF, category.Price, method, now)
	if err != nil {
		return nil, err
	}
	return s.persistNew(ctx, inscription, "user")
}

func (s *Service) Get(ctx context.Context, inscriptionID id.InscriptionID) (*models.Inscription, error) {
	inscription, err := s.inscriptions.FindByID(ctx, inscriptionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "inscription not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load inscription")
	}
	return inscription, nil
}

// LookupByCPF is the duplicate-rejection recovery path: "find your existing
// registration by tax id".
func (s *Service) LookupByCPF(ctx context.Context, rawCPF string) ([]*models.Inscription, error) {
	cpf, err := id.ParseCPF(rawCPF)
	if err != nil {
		return nil, err
	}
	inscriptions, err := s.inscriptions.FindByCPF(ctx, cpf)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up inscriptions")
	}
	return inscriptions, nil
}

func (s *Service) ListByUser(ctx context.Context, userID id.UserID) ([]*models.Inscription, error) {
	inscriptions, err := s.inscriptions.FindByUserID(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list inscriptions")
	}
	return inscriptions, nil
}

func (s *Service) ListByEvent(ctx context.Context, eventID id.EventID, filter models.ListFilter) ([]*models.Inscription, error) {
	filter.Normalize()
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid inscription status filter")
	}
	inscriptions, err := s.inscriptions.FindByEventID(ctx, eventID, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list inscriptions")
	}
	return inscriptions, nil
}

// CountByStatus powers the organizer dashboard counters.
func (s *Service) CountByStatus(ctx context.Context, eventID id.EventID) (map[models.Status]int, error) {
	counts, err := s.inscriptions.CountByStatus(ctx, eventID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count inscriptions")
	}
	return counts, nil
}

// Cancel withdraws a pending inscription on behalf of its owner.
func (s *Service) Cancel(ctx context.Context, inscriptionID id.InscriptionID) (*models.Inscription, error) {
	inscription, err := s.Get(ctx, inscriptionID)
	if err != nil {
		return nil, err
	}
	if err := inscription.Cancel(s.clock()); err != nil {
		return nil, err
	}
	if err := s.inscriptions.Update(ctx, inscription); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel inscription")
	}
	s.emitAudit(ctx, audit.Event{
		Action:        audit.ActionInscriptionCancelled,
		EventID:       inscription.EventID.String(),
		InscriptionID: inscription.ID.String(),
	})
	return inscription, nil
}

// ConfirmManually is the organizer override for cash collected at the door.
func (s *Service) ConfirmManually(ctx context.Context, inscriptionID id.InscriptionID, actorID string) (*models.Inscription, error) {
	inscription, err := s.Get(ctx, inscriptionID)
	if err != nil {
		return nil, err
	}
	if err := inscription.ConfirmManually(actorID, s.clock()); err != nil {
		return nil, err
	}
	if err := s.inscriptions.Update(ctx, inscription); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to confirm inscription")
	}
	if s.metrics != nil {
		s.metrics.PaymentsConfirmed.WithLabelValues("manual").Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Action:        audit.ActionInscriptionConfirmed,
		ActorID:       actorID,
		EventID:       inscription.EventID.String(),
		InscriptionID: inscription.ID.String(),
		PaymentID:     inscription.PaymentRef,
		Reason:        "manual",
	})
	return inscription, nil
}

// resolveOpenCategory runs pre-check (a): the event is open, the category
// exists under it, and the chosen method is accepted.
func (s *Service) resolveOpenCategory(ctx context.Context, eventID id.EventID, categoryID id.CategoryID, method id.PaymentMethod) (*eventModels.Category, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	if !event.IsOpen() {
		return nil, dErrors.Newf(dErrors.CodeEventNotOpen, "event %q is not open for registration", event.Title)
	}
	category, ok := event.Category(categoryID)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "category not found for this event")
	}
	if !event.AcceptsPaymentMethod(method) {
		return nil, dErrors.Newf(dErrors.CodeValidation, "event does not accept payment method %q", method)
	}
	return category, nil
}

func (s *Service) rejectExistingCPF(ctx context.Context, eventID id.EventID, cpf id.CPF) error {
	if _, err := s.inscriptions.FindByEventIDAndCPF(ctx, eventID, cpf); err == nil {
		return s.duplicate()
	}
	return nil
}

func (s *Service) persistNew(ctx context.Context, inscription *models.Inscription, kind string) (*models.Inscription, error) {
	if err := s.inscriptions.Create(ctx, inscription); err != nil {
		// The unique index wins whatever race passed the pre-checks.
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, s.duplicate()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create inscription")
	}
	if s.metrics != nil {
		s.metrics.InscriptionsCreated.WithLabelValues(kind).Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Action:        audit.ActionInscriptionCreated,
		EventID:       inscription.EventID.String(),
		InscriptionID: inscription.ID.String(),
	})
	return inscription, nil
}

func (s *Service) duplicate() error {
	if s.metrics != nil {
		s.metrics.DuplicatesRejected.Inc()
	}
	return dErrors.New(dErrors.CodeDuplicateInscription, "a registration already exists for this person and event")
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event",
			"action", event.Action,
			"error", err.Error(),
		)
	}
}
