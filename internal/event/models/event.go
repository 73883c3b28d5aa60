// Package models holds the Event aggregate and its priced categories.
package models

import (
	"time"

	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
)

// Event is the aggregate root for a community event.
//
// Invariants:
//   - Title is non-empty and at most 160 characters
//   - Status is one of the EventStatus values; transitions follow the table
//     in status.go (checked by the service before ApplyStatus)
//   - Categories only exist under a persisted event and are mutated only
//     through the aggregate's category methods
//   - EndsAt, when set, is not before StartsAt
type Event struct {
	ID             id.EventID         `json:"id"`
	Title          string             `json:"title"`
	Subtitle       string             `json:"subtitle,omitempty"`
	Description    string             `json:"description,omitempty"`
	Location       string             `json:"location,omitempty"`
	Status         EventStatus        `json:"status"`
	StartsAt       time.Time          `json:"starts_at"`
	EndsAt         *time.Time         `json:"ends_at,omitempty"`
	PaymentMethods []id.PaymentMethod `json:"payment_methods"`
	Categories     []Category         `json:"categories"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// Category is a priced registration tier. Price is integer centavos; zero is
// a legal "free category".
type Category struct {
	ID           id.CategoryID `json:"id"`
	EventID      id.EventID    `json:"event_id"`
	Name         string        `json:"name"`
	Price        id.Money      `json:"price_centavos"`
	Description  string        `json:"description,omitempty"`
	DisplayOrder int           `json:"display_order"`
}

func NewEvent(eventID id.EventID, title string, startsAt time.Time, endsAt *time.Time, methods []id.PaymentMethod, now time.Time) (*Event, error) {
	if title == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event title cannot be empty")
	}
	if len(title) > 160 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event title must be 160 characters or less")
	}
	if endsAt != nil && endsAt.Before(startsAt) {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "event cannot end before it starts")
	}
	for _, m := range methods {
		if !m.IsValid() {
			return nil, dErrors.New(dErrors.CodeInvariantViolation, "unsupported payment method")
		}
	}
	return &Event{
		ID:             eventID,
		Title:          title,
		Status:         StatusDraft,
		StartsAt:       startsAt,
		EndsAt:         endsAt,
		PaymentMethods: methods,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (e *Event) IsOpen() bool { return e.Status == StatusOpen }

// AcceptsPaymentMethod is a membership test over the configured methods.
func (e *Event) AcceptsPaymentMethod(m id.PaymentMethod) bool {
	for _, accepted := range e.PaymentMethods {
		if accepted == m {
			return true
		}
	}
	return false
}

// ShouldAutoClose reports whether a scheduled job should end this event: it
// is open and its end date (start date when no end is set) has passed. The
// predicate is pure; the transition itself belongs to the close-expired job.
func (e *Event) ShouldAutoClose(now time.Time) bool {
	if e.Status != StatusOpen {
		return false
	}
	deadline := e.StartsAt
	if e.EndsAt != nil {
		deadline = *e.EndsAt
	}
	return now.After(deadline)
}

// Close ends an open event. Fails unless the current status is open.
func (e *Event) Close(now time.Time) error {
	if e.Status != StatusOpen {
		return dErrors.Newf(dErrors.CodeValidation, "cannot close event in status %q", e.Status)
	}
	e.Status = StatusEnded
	e.UpdatedAt = now
	return nil
}

// CanChangeStatusTo checks the transition table. The service calls this
// before ApplyStatus so the error names both labels for the operator.
func (e *Event) CanChangeStatusTo(target EventStatus) error {
	if !e.Status.CanTransitionTo(target) {
		return dErrors.Newf(dErrors.CodeValidation, "illegal event status transition %q -> %q", e.Status, target)
	}
	return nil
}

// ApplyStatus moves the event to target. Call CanChangeStatusTo first.
func (e *Event) ApplyStatus(target EventStatus, now time.Time) {
	e.Status = target
	e.UpdatedAt = now
}

// Update applies the partial fields of req. Status is deliberately not part
// of the request; it moves only through the guarded transition path.
func (e *Event) Update(req *UpdateEventRequest, now time.Time) error {
	if req.Title != nil {
		if *req.Title == "" {
			return dErrors.New(dErrors.CodeValidation, "event title cannot be empty").WithField("title", "cannot be empty")
		}
		if len(*req.Title) > 160 {
			return dErrors.New(dErrors.CodeValidation, "event title must be 160 characters or less").WithField("title", "must be 160 characters or less")
		}
		e.Title = *req.Title
	}
	if req.Subtitle != nil {
		e.Subtitle = *req.Subtitle
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.StartsAt != nil {
		e.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		e.EndsAt = req.EndsAt
	}
	if req.PaymentMethods != nil {
		for _, m := range req.PaymentMethods {
			if !m.IsValid() {
				return dErrors.New(dErrors.CodeValidation, "unsupported payment method").WithField("payment_methods", "unsupported value")
			}
		}
		e.PaymentMethods = req.PaymentMethods
	}
	if e.EndsAt != nil && e.EndsAt.Before(e.StartsAt) {
		return dErrors.New(dErrors.CodeValidation, "event cannot end before it starts").WithField("ends_at", "before starts_at")
	}
	e.UpdatedAt = now
	return nil
}

// Category returns the category with the given id, if present.
func (e *Event) Category(categoryID id.CategoryID) (*Category, bool) {
	for i := range e.Categories {
		if e.Categories[i].ID == categoryID {
			return &e.Categories[i], true
		}
	}
	return nil, false
}

func NewCategory(categoryID id.CategoryID, eventID id.EventID, name string, price id.Money, description string, displayOrder int) (*Category, error) {
	if eventID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "category requires a persisted event")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "category name cannot be empty").WithField("name", "cannot be empty")
	}
	if price < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "category price cannot be negative").WithField("price_centavos", "cannot be negative")
	}
	return &Category{
		ID:           categoryID,
		EventID:      eventID,
		Name:         name,
		Price:        price,
		Description:  description,
		DisplayOrder: displayOrder,
	}, nil
}
