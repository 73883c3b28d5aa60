package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"inscrito/internal/audit"
	"inscrito/internal/event/models"
	"inscrito/internal/platform/metrics"
	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
	"inscrito/pkg/platform/sentinel"
)

// EventStore is the persistence boundary for the event aggregate.
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	FindByID(ctx context.Context, eventID id.EventID) (*models.Event, error)
	List(ctx context.Context, filter models.ListEventsFilter) ([]*models.Event, error)
	FindExpiredOpen(ctx context.Context, now time.Time) ([]*models.Event, error)
	Delete(ctx context.Context, eventID id.EventID) error
	SaveCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, eventID id.EventID, categoryID id.CategoryID) error
}

// ListCache caches the public open-event listing.
type ListCache interface {
	GetOpen(ctx context.Context) ([]*models.Event, bool)
	SetOpen(ctx context.Context, events []*models.Event)
	Invalidate(ctx context.Context)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service orchestrates event lifecycle and category management.
type Service struct {
	store   EventStore
	cache   ListCache
	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor AuditPublisher
	clock   func() time.Time
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

func WithListCache(c ListCache) Option {
	return func(s *Service) { s.cache = c }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// New constructs a Service.
func New(store EventStore, opts ...Option) *Service {
	s := &Service{
		store:  store,
		logger: slog.Default(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Create(ctx context.Context, req *models.CreateEventRequest) (*models.Event, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	methods, err := req.Methods()
	if err != nil {
		return nil, err
	}

	now := s.clock()
	event, err := models.NewEvent(id.NewEventID(), req.Title, req.StartsAt, req.EndsAt, methods, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		return nil, err
	}
	event.Subtitle = req.Subtitle
	event.Description = req.Description
	event.Location = req.Location

	if err := s.store.Create(ctx, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create event")
	}
	s.invalidateCache(ctx)
	s.emitAudit(ctx, audit.Event{Action: audit.ActionEventCreated, EventID: event.ID.String()})
	return event, nil
}

func (s *Service) Get(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	event, err := s.store.FindByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event")
	}
	return event, nil
}

// ListOpen serves the public listing, cache first.
func (s *Service) ListOpen(ctx context.Context) ([]*models.Event, error) {
	if s.cache != nil {
		if events, ok := s.cache.GetOpen(ctx); ok {
			return events, nil
		}
	}
	events, err := s.store.List(ctx, models.ListEventsFilter{Status: models.StatusOpen, Limit: 100})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	if s.cache != nil {
		s.cache.SetOpen(ctx, events)
	}
	return events, nil
}

func (s *Service) List(ctx context.Context, filter models.ListEventsFilter) ([]*models.Event, error) {
	filter.Normalize()
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid event status filter")
	}
	events, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list events")
	}
	return events, nil
}

func (s *Service) Update(ctx context.Context, eventID id.EventID, req *models.UpdateEventRequest) (*models.Event, error) {
	if err := req.ParseMethods(); err != nil {
		return nil, err
	}
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := event.Update(req, s.clock()); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update event")
	}
	s.invalidateCache(ctx)
	return event, nil
}

// ChangeStatus moves the event through the guarded transition table.
func (s *Service) ChangeStatus(ctx context.Context, eventID id.EventID, target models.EventStatus) (*models.Event, error) {
	if !target.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "invalid event status")
	}
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := event.CanChangeStatusTo(target); err != nil {
		return nil, err
	}
	event.ApplyStatus(target, s.clock())
	if err := s.store.Update(ctx, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update event status")
	}
	s.invalidateCache(ctx)
	return event, nil
}

// Close ends an open event on organizer request.
func (s *Service) Close(ctx context.Context, eventID id.EventID) (*models.Event, error) {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if err := event.Close(s.clock()); err != nil {
		return nil, err
	}
	if err := s.store.Update(ctx, event); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to close event")
	}
	s.invalidateCache(ctx)
	s.emitAudit(ctx, audit.Event{Action: audit.ActionEventClosed, EventID: event.ID.String()})
	if s.metrics != nil {
		s.metrics.EventsClosed.WithLabelValues("manual").Inc()
	}
	return event, nil
}

// CloseExpired ends every open event whose end (or start) date has passed.
// Invoked by an external scheduler, not a resident timer. Returns how many
// events were closed; individual failures are logged and skipped so one bad
// row does not wedge the batch.
func (s *Service) CloseExpired(ctx context.Context) (int, error) {
	now := s.clock()
	expired, err := s.store.FindExpiredOpen(ctx, now)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to find expired events")
	}

	closed := 0
	for _, event := range expired {
		if err := event.Close(now); err != nil {
			continue
		}
		if err := s.store.Update(ctx, event); err != nil {
			s.logger.ErrorContext(ctx, "failed to auto-close event",
				"event_id", event.ID,
				"error", err.Error(),
			)
			continue
		}
		closed++
		s.emitAudit(ctx, audit.Event{Action: audit.ActionEventClosed, EventID: event.ID.String(), Reason: "expired"})
		if s.metrics != nil {
			s.metrics.EventsClosed.WithLabelValues("expired").Inc()
		}
	}
	if closed > 0 {
		s.invalidateCache(ctx)
	}
	return closed, nil
}

// Delete removes an event. Only drafts and cancelled events can go; anything
// that was ever open may have inscriptions referencing it.
func (s *Service) Delete(ctx context.Context, eventID id.EventID) error {
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return err
	}
	if event.Status != models.StatusDraft && event.Status != models.StatusCancelled {
		return dErrors.Newf(dErrors.CodeValidation, "cannot delete event in status %q", event.Status)
	}
	if err := s.store.Delete(ctx, eventID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete event")
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *Service) AddCategory(ctx context.Context, eventID id.EventID, req *models.CreateCategoryRequest) (*models.Category, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.Get(ctx, eventID); err != nil {
		return nil, err
	}
	price, err := id.ParseMoney(req.PriceCentavos)
	if err != nil {
		return nil, err
	}
	category, err := models.NewCategory(id.NewCategoryID(), eventID, req.Name, price, req.Description, req.DisplayOrder)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveCategory(ctx, category); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "event not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save category")
	}
	s.invalidateCache(ctx)
	return category, nil
}

func (s *Service) UpdateCategory(ctx context.Context, eventID id.EventID, categoryID id.CategoryID, req *models.CreateCategoryRequest) (*models.Category, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	event, err := s.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	existing, ok := event.Category(categoryID)
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "category not found")
	}
	price, err := id.ParseMoney(req.PriceCentavos)
	if err != nil {
		return nil, err
	}
	existing.Name = req.Name
	existing.Price = price
	existing.Description = req.Description
	existing.DisplayOrder = req.DisplayOrder
	if err := s.store.SaveCategory(ctx, existing); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update category")
	}
	s.invalidateCache(ctx)
	return existing, nil
}

func (s *Service) RemoveCategory(ctx context.Context, eventID id.EventID, categoryID id.CategoryID) error {
	if err := s.store.DeleteCategory(ctx, eventID, categoryID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "category not found")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete category")
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *Service) invalidateCache(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
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
