package models

import (
	"strings"
	"time"

	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
)

// CreateEventRequest carries the organizer's input for a new event.
type CreateEventRequest struct {
	Title          string     `json:"title"`
	Subtitle       string     `json:"subtitle"`
	Description    string     `json:"description"`
	Location       string     `json:"location"`
	StartsAt       time.Time  `json:"starts_at"`
	EndsAt         *time.Time `json:"ends_at"`
	PaymentMethods []string   `json:"payment_methods"`
}

func (r *CreateEventRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Subtitle = strings.TrimSpace(r.Subtitle)
	r.Location = strings.TrimSpace(r.Location)
}

// Methods parses the payment method strings, defaulting to pix-only.
func (r *CreateEventRequest) Methods() ([]id.PaymentMethod, error) {
	if len(r.PaymentMethods) == 0 {
		return []id.PaymentMethod{id.PaymentMethodPix}, nil
	}
	out := make([]id.PaymentMethod, 0, len(r.PaymentMethods))
	for _, s := range r.PaymentMethods {
		m, err := id.ParsePaymentMethod(s)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r *CreateEventRequest) Validate() error {
	if r.Title == "" {
		return dErrors.New(dErrors.CodeValidation, "title is required").WithField("title", "required")
	}
	if r.StartsAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "starts_at is required").WithField("starts_at", "required")
	}
	return nil
}

// UpdateEventRequest applies partial updates; nil fields are left untouched.
type UpdateEventRequest struct {
	Title          *string            `json:"title"`
	Subtitle       *string            `json:"subtitle"`
	Description    *string            `json:"description"`
	Location       *string            `json:"location"`
	StartsAt       *time.Time         `json:"starts_at"`
	EndsAt         *time.Time         `json:"ends_at"`
	PaymentMethods []id.PaymentMethod `json:"-"`

	// RawPaymentMethods is decoded from JSON and parsed into PaymentMethods.
	RawPaymentMethods []string `json:"payment_methods"`
}

func (r *UpdateEventRequest) ParseMethods() error {
	if r.RawPaymentMethods == nil {
		return nil
	}
	out := make([]id.PaymentMethod, 0, len(r.RawPaymentMethods))
	for _, s := range r.RawPaymentMethods {
		m, err := id.ParsePaymentMethod(s)
		if err != nil {
			return err
		}
		out = append(out, m)
	}
	r.PaymentMethods = out
	return nil
}

// CreateCategoryRequest adds a priced tier under an event.
type CreateCategoryRequest struct {
	Name          string `json:"name"`
	PriceCentavos int64  `json:"price_centavos"`
	Description   string `json:"description"`
	DisplayOrder  int    `json:"display_order"`
}

func (r *CreateCategoryRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
}

func (r *CreateCategoryRequest) Validate() error {
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required").WithField("name", "required")
	}
	if r.PriceCentavos < 0 {
		return dErrors.New(dErrors.CodeValidation, "price cannot be negative").WithField("price_centavos", "cannot be negative")
	}
	return nil
}

// ListEventsFilter narrows and pages event listings.
type ListEventsFilter struct {
	Status EventStatus
	Limit  int
	Offset int
}

func (f *ListEventsFilter) Normalize() {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 20
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
