// Package audit captures domain actions for the out-of-scope notification and
// compliance collaborators. Events are transport-agnostic so sinks (Kafka,
// memory, noop) can fan out.
package audit

import (
	"time"

	"github.com/mssola/useragent"
)

// Action names follow "<aggregate>.<what happened>".
type Action string

const (
	ActionEventCreated         Action = "event.created"
	ActionEventClosed          Action = "event.closed"
	ActionInscriptionCreated   Action = "inscription.created"
	ActionInscriptionConfirmed Action = "inscription.confirmed"
	ActionInscriptionCancelled Action = "inscription.cancelled"
	ActionPaymentCreated       Action = "payment.created"
	ActionPaymentConfirmed     Action = "payment.confirmed"
	ActionWebhookProcessed     Action = "webhook.processed"
)

// Event is emitted from domain logic to capture key actions.
type Event struct {
	ID            string    `json:"id"`
	Action        Action    `json:"action"`
	Timestamp     time.Time `json:"timestamp"`
	UserID        string    `json:"user_id,omitempty"`
	ActorID       string    `json:"actor_id,omitempty"`
	EventID       string    `json:"event_id,omitempty"`
	InscriptionID string    `json:"inscription_id,omitempty"`
	PaymentID     string    `json:"payment_id,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	Device        string    `json:"device,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

// DeviceFromUserAgent condenses a User-Agent header into "browser/os" for the
// audit trail. Empty input yields empty output.
func DeviceFromUserAgent(ua string) string {
	if ua == "" {
		return ""
	}
	parsed := useragent.New(ua)
	name, version := parsed.Browser()
	os := parsed.OS()
	switch {
	case name == "" && os == "":
		return ""
	case os == "":
		return name + " " + version
	case name == "":
		return os
	default:
		return name + " " + version + " / " + os
	}
}
