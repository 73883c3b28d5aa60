// Package models holds the Inscription entity, the registration record at the
// center of the platform.
package models

import (
	"fmt"
	"time"

	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
)

// Inscription is one person's registration for one event category.
//
// Invariants:
//   - Exactly one of UserID and Guest is set, never both, never neither
//   - CPF is always present in normalized digits-only form (copied from the
//     user profile on the authenticated path, from GuestData on the guest path)
//   - Amount is the category price at registration time and never re-read,
//     so later price changes do not touch existing registrations
//   - Status moves pendente -> confirmado and pendente -> cancelado only;
//     both transitions fail loudly from any other status
type Inscription struct {
	ID            id.InscriptionID `json:"id"`
	EventID       id.EventID       `json:"event_id"`
	CategoryID    id.CategoryID    `json:"category_id"`
	UserID        *id.UserID       `json:"user_id,omitempty"`
	Guest         *GuestData       `json:"guest,omitempty"`
	CPF           id.CPF           `json:"cpf"`
	Amount        id.Money         `json:"amount_centavos"`
	PaymentMethod id.PaymentMethod `json:"payment_method"`
	Status        Status           `json:"status"`

	// PaymentRef is the associated payment's identifier once one exists. On
	// manual confirmation it carries the synthesized audit sentinel instead
	// of a gateway-backed id.
	PaymentRef string `json:"payment_ref,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewForUser creates a pending inscription tied to an authenticated user.
// The CPF comes from the user's profile, not from request input.
func NewForUser(inscriptionID id.InscriptionID, eventID id.EventID, categoryID id.CategoryID, userID id.UserID, cpf id.CPF, amount id.Money, method id.PaymentMethod, now time.Time) (*Inscription, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user inscription requires a user id")
	}
	return newInscription(inscriptionID, eventID, categoryID, &userID, nil, cpf, amount, method, now)
}

// NewForGuest creates a pending inscription for an unauthenticated registrant.
func NewForGuest(inscriptionID id.InscriptionID, eventID id.EventID, categoryID id.CategoryID, guest GuestData, amount id.Money, method id.PaymentMethod, now time.Time) (*Inscription, error) {
	return newInscription(inscriptionID, eventID, categoryID, nil, &guest, guest.CPF, amount, method, now)
}

func newInscription(inscriptionID id.InscriptionID, eventID id.EventID, categoryID id.CategoryID, userID *id.UserID, guest *GuestData, cpf id.CPF, amount id.Money, method id.PaymentMethod, now time.Time) (*Inscription, error) {
	if userID != nil && guest != nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "inscription cannot carry both a user id and guest data")
	}
	if userID == nil && guest == nil {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "inscription requires either a user id or guest data")
	}
	if eventID.IsNil() || categoryID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "inscription requires event and category ids")
	}
	if cpf.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "inscription requires a cpf")
	}
	if !method.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "inscription requires a valid payment method")
	}
	if amount < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "inscription amount cannot be negative")
	}
	return &Inscription{
		ID:            inscriptionID,
		EventID:       eventID,
		CategoryID:    categoryID,
		UserID:        userID,
		Guest:         guest,
		CPF:           cpf,
		Amount:        amount,
		PaymentMethod: method,
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

func (i *Inscription) IsGuest() bool     { return i.Guest != nil }
func (i *Inscription) IsPending() bool   { return i.Status == StatusPending }
func (i *Inscription) IsConfirmed() bool { return i.Status == StatusConfirmed }
func (i *Inscription) IsCancelled() bool { return i.Status == StatusCancelled }
func (i *Inscription) CanCancel() bool   { return i.IsPending() }

func (i *Inscription) IsPixPayment() bool  { return i.PaymentMethod == id.PaymentMethodPix }
func (i *Inscription) IsCashPayment() bool { return i.PaymentMethod == id.PaymentMethodCash }

// ParticipantName resolves the registrant's display name whichever identity
// path created the inscription. The user-path name is denormalized by the
// service at read time; entities never reach into other aggregates.
func (i *Inscription) ParticipantName() string {
	if i.Guest != nil {
		return i.Guest.Name.String()
	}
	return ""
}

func (i *Inscription) ParticipantEmail() string {
	if i.Guest != nil {
		return i.Guest.Email.String()
	}
	return ""
}

// Confirm promotes a pending inscription, recording the payment that paid for
// it. Fails from any status other than pendente.
func (i *Inscription) Confirm(paymentRef string, now time.Time) error {
	if !i.IsPending() {
		return dErrors.Newf(dErrors.CodeValidation, "cannot confirm inscription in status %q", i.Status)
	}
	i.Status = StatusConfirmed
	i.PaymentRef = paymentRef
	i.UpdatedAt = now
	return nil
}

// ConfirmManually is the organizer override for cash payments collected
// outside the gateway. It is the same transition as Confirm with a synthesized
// payment reference for the audit trail.
func (i *Inscription) ConfirmManually(actorID string, now time.Time) error {
	return i.Confirm(fmt.Sprintf("MANUAL-%s-%d", actorID, now.Unix()), now)
}

// Cancel withdraws a pending inscription. Confirmed inscriptions cannot be
// cancelled through this path.
func (i *Inscription) Cancel(now time.Time) error {
	if !i.CanCancel() {
		return dErrors.Newf(dErrors.CodeValidation, "cannot cancel inscription in status %q", i.Status)
	}
	i.Status = StatusCancelled
	i.UpdatedAt = now
	return nil
}
