package models

import (
	"strings"

	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
)

// CreateGuestInscriptionRequest is the unauthenticated registration payload.
// The target event comes from the URL, everything else from the body.
type CreateGuestInscriptionRequest struct {
	CategoryID    string `json:"category_id"`
	PaymentMethod string `json:"payment_method"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	CPF           string `json:"cpf"`
	BirthDate     string `json:"birth_date"`
	Gender        string `json:"gender"`
}

func (r *CreateGuestInscriptionRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.CPF = strings.TrimSpace(r.CPF)
}

func (r *CreateGuestInscriptionRequest) Category() (id.CategoryID, error) {
	categoryID, err := id.ParseCategoryID(r.CategoryID)
	if err != nil {
		return id.CategoryID{}, dErrors.New(dErrors.CodeValidation, "invalid category id").WithField("category_id", "must be a uuid")
	}
	return categoryID, nil
}

func (r *CreateGuestInscriptionRequest) Method() (id.PaymentMethod, error) {
	return id.ParsePaymentMethod(r.PaymentMethod)
}

// GuestData builds the validated guest identity from the raw fields.
func (r *CreateGuestInscriptionRequest) GuestData() (GuestData, error) {
	return NewGuestData(r.Name, r.Email, r.Phone, r.CPF, r.BirthDate, r.Gender)
}

// CreateUserInscriptionRequest is the authenticated registration payload. The
// registrant's identity and CPF come from their profile, never from input.
type CreateUserInscriptionRequest struct {
	CategoryID    string `json:"category_id"`
	PaymentMethod string `json:"payment_method"`
}

func (r *CreateUserInscriptionRequest) Category() (id.CategoryID, error) {
	categoryID, err := id.ParseCategoryID(r.CategoryID)
	if err != nil {
		return id.CategoryID{}, dErrors.New(dErrors.CodeValidation, "invalid category id").WithField("category_id", "must be a uuid")
	}
	return categoryID, nil
}

func (r *CreateUserInscriptionRequest) Method() (id.PaymentMethod, error) {
	return id.ParsePaymentMethod(r.PaymentMethod)
}

// ListFilter pages event-scoped inscription listings.
type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

func (f *ListFilter) Normalize() {
	if f.Limit <= 0 || f.Limit > 200 {
		f.Limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
}
