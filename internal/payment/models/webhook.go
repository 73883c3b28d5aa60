package models

import (
	"fmt"
	"strings"

	id "inscrito/pkg/domain"
)

// Gateway event names this system acts on. Everything else is acknowledged
// and ignored so vocabulary growth on the provider side stays harmless.
const (
	WebhookEventConfirmed = "PAYMENT_CONFIRMED"
	WebhookEventReceived  = "PAYMENT_RECEIVED"
)

// WebhookPayload is the inbound delivery shape.
type WebhookPayload struct {
	Event   string        `json:"event"`
	Payment WebhookCharge `json:"payment"`
}

// WebhookCharge is the charge snapshot inside a delivery. Value is the
// provider's decimal reais representation; the local payment record remains
// the amount authority.
type WebhookCharge struct {
	ID                string  `json:"id"`
	Customer          string  `json:"customer"`
	Value             float64 `json:"value"`
	Status            string  `json:"status"`
	DueDate           string  `json:"dueDate"`
	PaymentDate       string  `json:"paymentDate,omitempty"`
	ExternalReference string  `json:"externalReference,omitempty"`
}

// WebhookResult is the structured fail-soft outcome. The handler always
// responds 200 with this body so provider retries are not triggered by local
// lookup misses.
type WebhookResult struct {
	Success       bool   `json:"success"`
	Message       string `json:"message"`
	EventID       string `json:"event_id,omitempty"`
	InscriptionID string `json:"inscription_id,omitempty"`
}

// ExternalReference is the "<eventID>:<inscriptionID>" correlation key
// attached to every charge.
type ExternalReference struct {
	EventID       id.EventID
	InscriptionID id.InscriptionID
}

func NewExternalReference(eventID id.EventID, inscriptionID id.InscriptionID) ExternalReference {
	return ExternalReference{EventID: eventID, InscriptionID: inscriptionID}
}

func (r ExternalReference) String() string {
	return fmt.Sprintf("%s:%s", r.EventID, r.InscriptionID)
}

// ParseExternalReference rejects anything that is not exactly two uuids
// joined by a colon.
func ParseExternalReference(s string) (ExternalReference, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return ExternalReference{}, fmt.Errorf("external reference %q: want \"<eventID>:<inscriptionID>\"", s)
	}
	eventID, err := id.ParseEventID(parts[0])
	if err != nil {
		return ExternalReference{}, fmt.Errorf("external reference event id: %w", err)
	}
	inscriptionID, err := id.ParseInscriptionID(parts[1])
	if err != nil {
		return ExternalReference{}, fmt.Errorf("external reference inscription id: %w", err)
	}
	return ExternalReference{EventID: eventID, InscriptionID: inscriptionID}, nil
}
