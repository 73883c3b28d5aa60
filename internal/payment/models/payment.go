// Package models holds the Payment entity, the local mirror of a gateway
// charge against one inscription.
package models

import (
	"time"

	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
)

// Payment tracks one collection attempt.
//
// Invariants:
//   - A payment exists only against an existing inscription; Amount is copied
//     from it at creation and never recomputed
//   - Status starts PENDING and only moves along gateway-dictated transitions
//   - ChargeID is unique across all payments (gateway key)
type Payment struct {
	ID            id.PaymentID     `json:"id"`
	InscriptionID id.InscriptionID `json:"inscription_id"`
	EventID       id.EventID       `json:"event_id"`
	UserID        *id.UserID       `json:"user_id,omitempty"`
	ChargeID      string           `json:"charge_id"`
	Amount        id.Money         `json:"amount_centavos"`
	Status        Status           `json:"status"`
	Method        id.PaymentMethod `json:"payment_method"`
	PixPayload    string           `json:"pix_payload,omitempty"`
	PixQRImage    string           `json:"pix_qr_image,omitempty"`
	SlipURL       string           `json:"slip_url,omitempty"`
	DueDate       time.Time        `json:"due_date"`
	PaidAt        *time.Time       `json:"paid_at,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func New(paymentID id.PaymentID, inscriptionID id.InscriptionID, eventID id.EventID, userID *id.UserID, chargeID string, amount id.Money, method id.PaymentMethod, dueDate time.Time, now time.Time) (*Payment, error) {
	if inscriptionID.IsNil() || eventID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "payment requires inscription and event ids")
	}
	if chargeID == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "payment requires a gateway charge id")
	}
	if amount < 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "payment amount cannot be negative")
	}
	return &Payment{
		ID:            paymentID,
		InscriptionID: inscriptionID,
		EventID:       eventID,
		UserID:        userID,
		ChargeID:      chargeID,
		Amount:        amount,
		Status:        StatusPending,
		Method:        method,
		DueDate:       dueDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// IsConfirmed is true once money has arrived. The gateway uses RECEIVED and
// CONFIRMED as near-synonyms for that; the domain treats them the same for
// unlocking the registration.
func (p *Payment) IsConfirmed() bool {
	return p.Status == StatusReceived || p.Status == StatusConfirmed
}

func (p *Payment) MarkReceived(paidAt time.Time, now time.Time) error {
	if err := p.transition(StatusReceived, now); err != nil {
		return err
	}
	p.PaidAt = &paidAt
	return nil
}

func (p *Payment) MarkConfirmed(paidAt *time.Time, now time.Time) error {
	if err := p.transition(StatusConfirmed, now); err != nil {
		return err
	}
	if paidAt != nil {
		p.PaidAt = paidAt
	}
	return nil
}

func (p *Payment) MarkOverdue(now time.Time) error   { return p.transition(StatusOverdue, now) }
func (p *Payment) MarkRefunded(now time.Time) error  { return p.transition(StatusRefunded, now) }
func (p *Payment) MarkCancelled(now time.Time) error { return p.transition(StatusCancelled, now) }

// AttachPixCode records the instant-transfer artifacts fetched after the
// charge was created.
func (p *Payment) AttachPixCode(payload, encodedImage string) {
	p.PixPayload = payload
	p.PixQRImage = encodedImage
}

func (p *Payment) transition(target Status, now time.Time) error {
	if !p.Status.canTransitionTo(target) {
		return dErrors.Newf(dErrors.CodeValidation, "illegal payment status transition %q -> %q", p.Status, target)
	}
	p.Status = target
	p.UpdatedAt = now
	return nil
}
