// Package service owns payment reconciliation: minting gateway charges for
// pending inscriptions, the pull-based resync when a user revisits their
// status page, and the webhook push path.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"inscrito/internal/audit"
	eventModels "inscrito/internal/event/models"
	"inscrito/internal/gateway"
	inscriptionModels "inscrito/internal/inscription/models"
	"inscrito/internal/payment/models"
	"inscrito/internal/platform/metrics"
	"inscrito/internal/platform/tracing"
	userModels "inscrito/internal/user/models"
	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
	"inscrito/pkg/platform/sentinel"
)

// PaymentStore is the persistence boundary for payments.
type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	Update(ctx context.Context, payment *models.Payment) error
	FindByID(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error)
	FindByExternalChargeID(ctx context.Context, chargeID string) (*models.Payment, error)
	FindByInscriptionID(ctx context.Context, inscriptionID id.InscriptionID) (*models.Payment, error)
	FindByUserID(ctx context.Context, userID id.UserID) ([]*models.Payment, error)
	SumConfirmedByEvent(ctx context.Context, eventID id.EventID) (id.Money, error)
}

// InscriptionStore is the slice of the inscription store this service needs
// to promote registrations once money arrives.
type InscriptionStore interface {
	FindByID(ctx context.Context, inscriptionID id.InscriptionID) (*inscriptionModels.Inscription, error)
	Update(ctx context.Context, inscription *inscriptionModels.Inscription) error
}

type EventFinder interface {
	FindByID(ctx context.Context, eventID id.EventID) (*eventModels.Event, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, userID id.UserID) (*userModels.User, error)
}

// WebhookLedger records processed deliveries. Purely observational: webhook
// idempotency rests on the inscription's own state guard, the ledger exists
// so operators can audit what the gateway delivered.
type WebhookLedger interface {
	Record(ctx context.Context, deliveryKey string)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service reconciles local payment state with the gateway.
type Service struct {
	payments      PaymentStore
	inscriptions  InscriptionStore
	events        EventFinder
	users         UserFinder
	gateway       gateway.Client
	ledger        WebhookLedger
	logger        *slog.Logger
	metrics       *metrics.Metrics
	auditor       AuditPublisher
	clock         func() time.Time
	dueDateOffset time.Duration
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

func WithWebhookLedger(l WebhookLedger) Option {
	return func(s *Service) { s.ledger = l }
}

func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithDueDateOffset overrides how far in the future new charges fall due.
func WithDueDateOffset(d time.Duration) Option {
	return func(s *Service) { s.dueDateOffset = d }
}

func New(payments PaymentStore, inscriptions InscriptionStore, events EventFinder, users UserFinder, gw gateway.Client, opts ...Option) *Service {
	s := &Service{
		payments:      payments,
		inscriptions:  inscriptions,
		events:        events,
		users:         users,
		gateway:       gw,
		logger:        slog.Default(),
		clock:         time.Now,
		dueDateOffset: 72 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateForInscription returns the payment for an inscription, creating a
// gateway charge when none exists yet. Calling it repeatedly is safe:
//   - a confirmed payment comes back unchanged
//   - an unconfirmed payment is re-checked against the gateway first (the
//     pull path that covers webhooks that never arrived)
//   - only when no payment exists is a new charge minted
func (s *Service) CreateForInscription(ctx context.Context, inscriptionID id.InscriptionID) (*models.Payment, error) {
	ctx, span := tracing.Start(ctx, "payment.create_for_inscription",
		attribute.String("inscription_id", inscriptionID.String()))
	defer span.End()

	inscription, err := s.loadInscription(ctx, inscriptionID)
	if err != nil {
		return nil, err
	}
	if inscription.IsCancelled() {
		return nil, dErrors.New(dErrors.CodeValidation, "cannot collect payment for a cancelled inscription")
	}
	if inscription.IsCashPayment() {
		return nil, dErrors.New(dErrors.CodeValidation, "cash registrations are confirmed manually, not through the gateway")
	}

	existing, err := s.payments.FindByInscriptionID(ctx, inscriptionID)
	switch {
	case err == nil:
		if existing.IsConfirmed() {
			return existing, nil
		}
		return s.reconcileFromGateway(ctx, existing, inscription)
	case errors.Is(err, sentinel.ErrNotFound):
		return s.createCharge(ctx, inscription)
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment")
	}
}

func (s *Service) Get(ctx context.Context, paymentID id.PaymentID) (*models.Payment, error) {
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "payment not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment")
	}
	return payment, nil
}

func (s *Service) GetByInscription(ctx context.Context, inscriptionID id.InscriptionID) (*models.Payment, error) {
	payment, err := s.payments.FindByInscriptionID(ctx, inscriptionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no payment exists for this inscription")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load payment")
	}
	return payment, nil
}

// SumConfirmedByEvent totals received money for the organizer dashboard.
func (s *Service) SumConfirmedByEvent(ctx context.Context, eventID id.EventID) (id.Money, error) {
	total, err := s.payments.SumConfirmedByEvent(ctx, eventID)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sum payments")
	}
	return total, nil
}

// ProcessWebhook handles one gateway delivery. It never returns an error:
// every failure mode produces a structured result so the HTTP layer responds
// 200 and the gateway does not retry over local lookup misses.
func (s *Service) ProcessWebhook(ctx context.Context, payload *models.WebhookPayload) models.WebhookResult {
	ctx, span := tracing.Start(ctx, "payment.process_webhook",
		attribute.String("webhook_event", payload.Event),
		attribute.String("charge_id", payload.Payment.ID))
	defer span.End()

	switch payload.Event {
	case models.WebhookEventConfirmed, models.WebhookEventReceived:
	default:
		s.countWebhook("ignored")
		return models.WebhookResult{Success: true, Message: fmt.Sprintf("event %q ignored", payload.Event)}
	}

	ref, err := models.ParseExternalReference(payload.Payment.ExternalReference)
	if err != nil {
		s.logger.WarnContext(ctx, "webhook with unusable external reference",
			"event", payload.Event,
			"charge_id", payload.Payment.ID,
			"error", err.Error(),
		)
		s.countWebhook("bad_reference")
		return models.WebhookResult{Success: false, Message: "missing or malformed external reference"}
	}

	payment, err := s.payments.FindByExternalChargeID(ctx, payload.Payment.ID)
	if err != nil {
		s.logger.WarnContext(ctx, "webhook for unknown charge",
			"charge_id", payload.Payment.ID,
			"event_id", ref.EventID,
			"inscription_id", ref.InscriptionID,
		)
		s.countWebhook("unknown_charge")
		return models.WebhookResult{Success: false, Message: "no local payment matches this charge"}
	}

	now := s.clock()
	paidAt := s.paidAt(payload.Payment.PaymentDate, now)

	// Payment write happens before the inscription write. A crash in between
	// leaves confirmed money against a pending inscription, which the pull
	// path repairs on the next status-page load; the reverse order could
	// confirm a registration that was never paid.
	if changed, err := s.applyGatewayEvent(payment, payload.Event, paidAt, now); err != nil {
		s.logger.ErrorContext(ctx, "webhook payment transition failed",
			"charge_id", payment.ChargeID,
			"status", payment.Status,
			"error", err.Error(),
		)
		s.countWebhook("error")
		return models.WebhookResult{Success: false, Message: "payment is not in a confirmable state"}
	} else if changed {
		if err := s.payments.Update(ctx, payment); err != nil {
			s.logger.ErrorContext(ctx, "webhook payment persist failed", "charge_id", payment.ChargeID, "error", err.Error())
			s.countWebhook("error")
			return models.WebhookResult{Success: false, Message: "failed to persist payment status"}
		}
		if s.metrics != nil {
			s.metrics.PaymentsConfirmed.WithLabelValues("webhook").Inc()
		}
	}

	inscription, err := s.inscriptions.FindByID(ctx, ref.InscriptionID)
	if err != nil {
		s.logger.WarnContext(ctx, "webhook references missing inscription",
			"inscription_id", ref.InscriptionID,
			"charge_id", payment.ChargeID,
		)
		s.countWebhook("unknown_inscription")
		return models.WebhookResult{Success: false, Message: "inscription not found"}
	}

	// Replay guard: an already-confirmed inscription is a no-op success.
	if inscription.IsPending() {
		if err := inscription.Confirm(payment.ID.String(), now); err != nil {
			s.countWebhook("error")
			return models.WebhookResult{Success: false, Message: "inscription is not confirmable"}
		}
		if err := s.inscriptions.Update(ctx, inscription); err != nil {
			s.logger.ErrorContext(ctx, "webhook inscription persist failed", "inscription_id", inscription.ID, "error", err.Error())
			s.countWebhook("error")
			return models.WebhookResult{Success: false, Message: "failed to persist inscription status"}
		}
		s.emitAudit(ctx, audit.Event{
			Action:        audit.ActionInscriptionConfirmed,
			EventID:       ref.EventID.String(),
			InscriptionID: inscription.ID.String(),
			PaymentID:     payment.ID.String(),
			Reason:        "webhook",
		})
	}

	if s.ledger != nil {
		s.ledger.Record(ctx, payload.Event+":"+payload.Payment.ID)
	}
	s.countWebhook("processed")
	s.emitAudit(ctx, audit.Event{
		Action:        audit.ActionWebhookProcessed,
		EventID:       ref.EventID.String(),
		InscriptionID: ref.InscriptionID.String(),
		PaymentID:     payment.ID.String(),
	})
	return models.WebhookResult{
		Success:       true,
		Message:       "payment reconciled",
		EventID:       ref.EventID.String(),
		InscriptionID: ref.InscriptionID.String(),
	}
}

// reconcileFromGateway is the pull path: the local payment is unconfirmed, so
// ask the gateway directly and catch up if money already arrived.
func (s *Service) reconcileFromGateway(ctx context.Context, payment *models.Payment, inscription *inscriptionModels.Inscription) (*models.Payment, error) {
	status, err := s.gateway.GetPayment(ctx, payment.ChargeID)
	if err != nil {
		// Gateway down: serve local state, the next visit retries.
		s.logger.WarnContext(ctx, "gateway poll failed, serving local payment state",
			"charge_id", payment.ChargeID,
			"error", err.Error(),
		)
		return payment, nil
	}

	now := s.clock()
	changed, err := s.applyGatewayStatus(payment, status, now)
	if err != nil {
		return nil, err
	}
	if !changed {
		return payment, nil
	}
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist payment status")
	}
	if payment.IsConfirmed() {
		if s.metrics != nil {
			s.metrics.PaymentsConfirmed.WithLabelValues("poll").Inc()
		}
		if inscription.IsPending() {
			if err := inscription.Confirm(payment.ID.String(), now); err == nil {
				if err := s.inscriptions.Update(ctx, inscription); err != nil {
					return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist inscription status")
				}
				s.emitAudit(ctx, audit.Event{
					Action:        audit.ActionInscriptionConfirmed,
					EventID:       inscription.EventID.String(),
					InscriptionID: inscription.ID.String(),
					PaymentID:     payment.ID.String(),
					Reason:        "poll",
				})
			}
		}
	}
	return payment, nil
}

// createCharge mints the gateway charge and the local payment record.
func (s *Service) createCharge(ctx context.Context, inscription *inscriptionModels.Inscription) (*models.Payment, error) {
	contact, err := s.billingContact(ctx, inscription)
	if err != nil {
		return nil, err
	}

	event, err := s.events.FindByID(ctx, inscription.EventID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load event for charge description")
	}

	customerID, err := s.gateway.FindOrCreateCustomer(ctx, contact)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	dueDate := now.Add(s.dueDateOffset)
	ref := models.NewExternalReference(inscription.EventID, inscription.ID)
	charge, err := s.gateway.CreateCharge(ctx, gateway.ChargeRequest{
		CustomerID:        customerID,
		BillingType:       gateway.BillingTypePix,
		AmountCentavos:    inscription.Amount.Centavos(),
		DueDate:           dueDate,
		Description:       fmt.Sprintf("Inscricao - %s", event.Title),
		ExternalReference: ref.String(),
	})
	if err != nil {
		return nil, err
	}

	payment, err := models.New(id.NewPaymentID(), inscription.ID, inscription.EventID, inscription.UserID,
		charge.ID, inscription.Amount, inscription.PaymentMethod, dueDate, now)
	if err != nil {
		return nil, err
	}
	payment.SlipURL = charge.BankSlipURL

	// The QR code is display data; a fetch failure should not lose the charge.
	if qr, err := s.gateway.GetPixQRCode(ctx, charge.ID); err == nil {
		payment.AttachPixCode(qr.Payload, qr.EncodedImage)
	} else {
		s.logger.WarnContext(ctx, "failed to fetch pix qr code", "charge_id", charge.ID, "error", err.Error())
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to persist payment")
	}
	if s.metrics != nil {
		s.metrics.PaymentsCreated.Inc()
	}
	s.emitAudit(ctx, audit.Event{
		Action:        audit.ActionPaymentCreated,
		EventID:       inscription.EventID.String(),
		InscriptionID: inscription.ID.String(),
		PaymentID:     payment.ID.String(),
	})
	return payment, nil
}

func (s *Service) billingContact(ctx context.Context, inscription *inscriptionModels.Inscription) (gateway.CustomerRequest, error) {
	if inscription.Guest != nil {
		return gateway.CustomerRequest{
			Name:  inscription.Guest.Name.String(),
			Email: inscription.Guest.Email.String(),
			CPF:   inscription.Guest.CPF.String(),
			Phone: inscription.Guest.Phone.String(),
		}, nil
	}
	user, err := s.users.FindByID(ctx, *inscription.UserID)
	if err != nil {
		return gateway.CustomerRequest{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve billing contact")
	}
	return gateway.CustomerRequest{
		Name:  user.Name.String(),
		Email: user.Email.String(),
		CPF:   user.CPF.String(),
		Phone: user.Phone.String(),
	}, nil
}

// applyGatewayEvent maps a webhook event name onto the payment state machine.
// An already-confirmed payment absorbs replays as a no-op.
func (s *Service) applyGatewayEvent(payment *models.Payment, event string, paidAt time.Time, now time.Time) (bool, error) {
	if payment.IsConfirmed() {
		return false, nil
	}
	switch event {
	case models.WebhookEventReceived:
		return true, payment.MarkReceived(paidAt, now)
	case models.WebhookEventConfirmed:
		return true, payment.MarkConfirmed(&paidAt, now)
	default:
		return false, nil
	}
}

// applyGatewayStatus maps a polled charge status onto the payment.
func (s *Service) applyGatewayStatus(payment *models.Payment, status *gateway.ChargeStatus, now time.Time) (bool, error) {
	target := models.Status(status.Status)
	if target == payment.Status {
		return false, nil
	}
	paidAt := now
	if status.PaymentDate != nil {
		paidAt = *status.PaymentDate
	}
	switch target {
	case models.StatusReceived:
		return true, payment.MarkReceived(paidAt, now)
	case models.StatusConfirmed:
		return true, payment.MarkConfirmed(&paidAt, now)
	case models.StatusOverdue:
		return true, payment.MarkOverdue(now)
	case models.StatusRefunded:
		return true, payment.MarkRefunded(now)
	case models.StatusCancelled:
		return true, payment.MarkCancelled(now)
	default:
		// Unknown or still-pending gateway vocabulary: leave local state.
		return false, nil
	}
}

func (s *Service) loadInscription(ctx context.Context, inscriptionID id.InscriptionID) (*inscriptionModels.Inscription, error) {
	inscription, err := s.inscriptions.FindByID(ctx, inscriptionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "inscription not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load inscription")
	}
	return inscription, nil
}

func (s *Service) paidAt(raw string, fallback time.Time) time.Time {
	if raw == "" {
		return fallback
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t
	}
	return fallback
}

func (s *Service) countWebhook(outcome string) {
	if s.metrics != nil {
		s.metrics.WebhookEvents.WithLabelValues(outcome).Inc()
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
