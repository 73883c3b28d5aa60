package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"inscrito/internal/audit"
	eventModels "inscrito/internal/event/models"
	eventStore "inscrito/internal/event/store"
	"inscrito/internal/gateway"
	"inscrito/internal/gateway/mocks"
	inscriptionModels "inscrito/internal/inscription/models"
	inscriptionStore "inscrito/internal/inscription/store"
	"inscrito/internal/payment/models"
	paymentStore "inscrito/internal/payment/store"
	"inscrito/internal/platform/metrics"
	userStore "inscrito/internal/user/store"
	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
)

// =============================================================================
// Payment Service Test Suite
// =============================================================================
// Reconciliation has two entry points that must converge on the same state:
// the webhook push path and the status-page pull path. Both are exercised
// here against a mocked gateway, including replays, lost webhooks, and
// deliveries that reference nothing we know about.

type PaymentServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	gateway      *mocks.MockClient
	payments     *paymentStore.InMemory
	inscriptions *inscriptionStore.InMemory
	events       *eventStore.InMemory
	users        *userStore.InMemory
	auditor      *audit.Memory
	service      *Service
	now          time.Time

	event       *eventModels.Event
	inscription *inscriptionModels.Inscription
}

func TestPaymentServiceSuite(t *testing.T) {
	suite.Run(t, new(PaymentServiceSuite))
}

func (s *PaymentServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.gateway = mocks.NewMockClient(s.ctrl)
	s.payments = paymentStore.NewInMemory()
	s.inscriptions = inscriptionStore.NewInMemory()
	s.events = eventStore.NewInMemory()
	s.users = userStore.NewInMemory()
	s.auditor = audit.NewMemory()
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.service = New(s.payments, s.inscriptions, s.events, s.users, s.gateway,
		WithAuditPublisher(s.auditor),
		WithMetrics(metrics.NewForTesting()),
		WithClock(func() time.Time { return s.now }),
	)

	ctx := context.Background()
	event, err := eventModels.NewEvent(id.NewEventID(), "Corrida da Serra", s.now.Add(72*time.Hour), nil,
		[]id.PaymentMethod{id.PaymentMethodPix, id.PaymentMethodCash}, s.now)
	s.Require().NoError(err)
	event.Status = eventModels.StatusOpen
	s.Require().NoError(s.events.Create(ctx, event))
	s.event = event

	s.inscription = s.seedGuestInscription(id.PaymentMethodPix)
}

func (s *PaymentServiceSuite) seedGuestInscription(method id.PaymentMethod) *inscriptionModels.Inscription {
	guest, err := inscriptionModels.NewGuestData("Maria da Silva", "maria@example.com", "", "529.982.247-25", "", "")
	s.Require().NoError(err)
	inscription, err := inscriptionModels.NewForGuest(id.NewInscriptionID(), s.event.ID, id.NewCategoryID(),
		guest, id.Money(5000), method, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.inscriptions.Create(context.Background(), inscription))
	return inscription
}

func (s *PaymentServiceSuite) seedPendingPayment(inscription *inscriptionModels.Inscription, chargeID string) *models.Payment {
	payment, err := models.New(id.NewPaymentID(), inscription.ID, inscription.EventID, inscription.UserID,
		chargeID, inscription.Amount, inscription.PaymentMethod, s.now.Add(72*time.Hour), s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.payments.Create(context.Background(), payment))
	return payment
}

func (s *PaymentServiceSuite) webhookPayload(event, chargeID, extRef string) *models.WebhookPayload {
	return &models.WebhookPayload{
		Event: event,
		Payment: models.WebhookCharge{
			ID:                chargeID,
			Value:             50.00,
			Status:            "CONFIRMED",
			PaymentDate:       "2026-03-11",
			ExternalReference: extRef,
		},
	}
}

// ==== Charge creation ====

func (s *PaymentServiceSuite) TestCreateForInscription() {
	ctx := context.Background()

	s.Run("mints a charge with qr code and three-day due date", func() {
		wantRef := models.NewExternalReference(s.event.ID, s.inscription.ID).String()
		s.gateway.EXPECT().FindOrCreateCustomer(gomock.Any(), gateway.CustomerRequest{
			Name:  "Maria da Silva",
			Email: "maria@example.com",
			CPF:   "52998224725",
		}).Return("cus_1", nil)
		s.gateway.EXPECT().CreateCharge(gomock.Any(), gateway.ChargeRequest{
			CustomerID:        "cus_1",
			BillingType:       gateway.BillingTypePix,
			AmountCentavos:    5000,
			DueDate:           s.now.Add(72 * time.Hour),
			Description:       "Inscricao - Corrida da Serra",
			ExternalReference: wantRef,
		}).Return(&gateway.Charge{ID: "pay_1", Status: "PENDING", BankSlipURL: "https://gw/slip/pay_1"}, nil)
		s.gateway.EXPECT().GetPixQRCode(gomock.Any(), "pay_1").
			Return(&gateway.PixQRCode{Payload: "00020126...", EncodedImage: "iVBORw0KGgo="}, nil)

		payment, err := s.service.CreateForInscription(ctx, s.inscription.ID)
		s.Require().NoError(err)
		s.Equal("pay_1", payment.ChargeID)
		s.Equal(models.StatusPending, payment.Status)
		s.Equal(id.Money(5000), payment.Amount)
		s.Equal("00020126...", payment.PixPayload)
		s.Equal("https://gw/slip/pay_1", payment.SlipURL)
		s.Equal(s.now.Add(72*time.Hour), payment.DueDate)

		stored, err := s.payments.FindByExternalChargeID(ctx, "pay_1")
		s.Require().NoError(err)
		s.Equal(payment.ID, stored.ID)
		s.Len(s.auditor.Events(), 1)
		s.Equal(audit.ActionPaymentCreated, s.auditor.Events()[0].Action)
	})

	s.Run("a qr fetch failure does not lose the charge", func() {
		s.SetupTest()
		s.gateway.EXPECT().FindOrCreateCustomer(gomock.Any(), gomock.Any()).Return("cus_1", nil)
		s.gateway.EXPECT().CreateCharge(gomock.Any(), gomock.Any()).
			Return(&gateway.Charge{ID: "pay_2", Status: "PENDING"}, nil)
		s.gateway.EXPECT().GetPixQRCode(gomock.Any(), "pay_2").
			Return(nil, dErrors.New(dErrors.CodeUnavailable, "gateway timeout"))

		payment, err := s.service.CreateForInscription(ctx, s.inscription.ID)
		s.Require().NoError(err)
		s.Equal("pay_2", payment.ChargeID)
		s.Empty(payment.PixPayload)
	})

	s.Run("returns an existing confirmed payment untouched", func() {
		s.SetupTest()
		payment := s.seedPendingPayment(s.inscription, "pay_3")
		s.Require().NoError(payment.MarkConfirmed(nil, s.now))
		s.Require().NoError(s.payments.Update(ctx, payment))

		got, err := s.service.CreateForInscription(ctx, s.inscription.ID)
		s.Require().NoError(err)
		s.Equal(payment.ID, got.ID)
		s.Equal(models.StatusConfirmed, got.Status)
	})

	s.Run("unknown inscription", func() {
		_, err := s.service.CreateForInscription(ctx, id.NewInscriptionID())
		s.Equal(dErrors.CodeNotFound, dErrors.CodeOf(err))
	})

	s.Run("cash inscriptions never reach the gateway", func() {
		s.SetupTest()
		cash := s.seedGuestInscription(id.PaymentMethodCash)
		_, err := s.service.CreateForInscription(ctx, cash.ID)
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})

	s.Run("cancelled inscriptions are not billable", func() {
		s.SetupTest()
		s.Require().NoError(s.inscription.Cancel(s.now))
		s.Require().NoError(s.inscriptions.Update(ctx, s.inscription))
		_, err := s.service.CreateForInscription(ctx, s.inscription.ID)
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})
}

// ==== Pull reconciliation ====

func (s *PaymentServiceSuite) TestPullReconciliation() {
	ctx := context.Background()

	s.Run("a lost webhook is repaired on the next status load", func() {
		payment := s.seedPendingPayment(s.inscription, "pay_1")
		paidAt := s.now.Add(-time.Hour)
		s.gateway.EXPECT().GetPayment(gomock.Any(), "pay_1").
			Return(&gateway.ChargeStatus{Status: "CONFIRMED", PaymentDate: &paidAt}, nil)

		got, err := s.service.CreateForInscription(ctx, s.inscription.ID)
		s.Require().NoError(err)
		s.Equal(payment.ID, got.ID)
		s.Equal(models.StatusConfirmed, got.Status)
		s.Equal(paidAt, *got.PaidAt)

		inscription, err := s.inscriptions.FindByID(ctx, s.inscription.ID)
		s.Require().NoError(err)
		s.True(inscription.IsConfirmed())
		s.Equal(payment.ID.String(), inscription.PaymentRef)
	})

	s.Run("gateway still pending leaves local state alone", func() {
		s.SetupTest()
		payment := s.seedPendingPayment(s.inscription, "pay_1")
		s.gateway.EXPECT().GetPayment(gomock.Any(), "pay_1").
			Return(&gateway.ChargeStatus{Status: "PENDING"}, nil)

		got, err := s.service.CreateForInscription(ctx, s.inscription.ID)
		s.Require().NoError(err)
		s.Equal(payment.ID, got.ID)
		s.Equal(models.StatusPending, got.Status)
	})

	s.Run("gateway outage serves local state instead of failing", func() {
		s.SetupTest()
		payment := s.seedPendingPayment(s.inscription, "pay_1")
		s.gateway.EXPECT().GetPayment(gomock.Any(), "pay_1").
			Return(nil, dErrors.New(dErrors.CodeUnavailable, "gateway unreachable"))

		got, err := s.service.CreateForInscription(ctx, s.inscription.ID)
		s.Require().NoError(err)
		s.Equal(payment.ID, got.ID)
		s.Equal(models.StatusPending, got.Status)
	})

	s.Run("overdue propagates without touching the inscription", func() {
		s.SetupTest()
		s.seedPendingPayment(s.inscription, "pay_1")
		s.gateway.EXPECT().GetPayment(gomock.Any(), "pay_1").
			Return(&gateway.ChargeStatus{Status: "OVERDUE"}, nil)

		got, err := s.service.CreateForInscription(ctx, s.inscription.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusOverdue, got.Status)

		inscription, err := s.inscriptions.FindByID(ctx, s.inscription.ID)
		s.Require().NoError(err)
		s.True(inscription.IsPending())
	})
}

// ==== Webhook processing ====

func (s *PaymentServiceSuite) TestProcessWebhook() {
	ctx := context.Background()

	s.Run("confirms payment then inscription", func() {
		payment := s.seedPendingPayment(s.inscription, "pay_1")
		ref := models.NewExternalReference(s.event.ID, s.inscription.ID).String()

		result := s.service.ProcessWebhook(ctx, s.webhookPayload(models.WebhookEventConfirmed, "pay_1", ref))
		s.True(result.Success)
		s.Equal(s.event.ID.String(), result.EventID)
		s.Equal(s.inscription.ID.String(), result.InscriptionID)

		stored, err := s.payments.FindByID(ctx, payment.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusConfirmed, stored.Status)
		s.Require().NotNil(stored.PaidAt)
		s.Equal(time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), *stored.PaidAt)

		inscription, err := s.inscriptions.FindByID(ctx, s.inscription.ID)
		s.Require().NoError(err)
		s.True(inscription.IsConfirmed())
		s.Equal(payment.ID.String(), inscription.PaymentRef)
	})

	s.Run("received is treated as money arrived", func() {
		s.SetupTest()
		s.seedPendingPayment(s.inscription, "pay_1")
		ref := models.NewExternalReference(s.event.ID, s.inscription.ID).String()

		result := s.service.ProcessWebhook(ctx, s.webhookPayload(models.WebhookEventReceived, "pay_1", ref))
		s.True(result.Success)

		inscription, err := s.inscriptions.FindByID(ctx, s.inscription.ID)
		s.Require().NoError(err)
		s.True(inscription.IsConfirmed())
	})

	s.Run("replayed delivery is a no-op success", func() {
		s.SetupTest()
		payment := s.seedPendingPayment(s.inscription, "pay_1")
		ref := models.NewExternalReference(s.event.ID, s.inscription.ID).String()
		payload := s.webhookPayload(models.WebhookEventConfirmed, "pay_1", ref)

		s.True(s.service.ProcessWebhook(ctx, payload).Success)
		s.True(s.service.ProcessWebhook(ctx, payload).Success, "second delivery must also succeed")

		stored, err := s.payments.FindByID(ctx, payment.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusConfirmed, stored.Status)
		inscription, err := s.inscriptions.FindByID(ctx, s.inscription.ID)
		s.Require().NoError(err)
		s.True(inscription.IsConfirmed())
	})

	s.Run("confirmed after received is absorbed", func() {
		s.SetupTest()
		s.seedPendingPayment(s.inscription, "pay_1")
		ref := models.NewExternalReference(s.event.ID, s.inscription.ID).String()

		s.True(s.service.ProcessWebhook(ctx, s.webhookPayload(models.WebhookEventReceived, "pay_1", ref)).Success)
		s.True(s.service.ProcessWebhook(ctx, s.webhookPayload(models.WebhookEventConfirmed, "pay_1", ref)).Success)
	})

	s.Run("unrelated gateway events are acknowledged and ignored", func() {
		s.SetupTest()
		payment := s.seedPendingPayment(s.inscription, "pay_1")
		ref := models.NewExternalReference(s.event.ID, s.inscription.ID).String()

		result := s.service.ProcessWebhook(ctx, s.webhookPayload("PAYMENT_UPDATED", "pay_1", ref))
		s.True(result.Success)

		stored, err := s.payments.FindByID(ctx, payment.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusPending, stored.Status, "ignored events must not move state")
	})

	s.Run("missing external reference fails soft", func() {
		s.SetupTest()
		s.seedPendingPayment(s.inscription, "pay_1")
		result := s.service.ProcessWebhook(ctx, s.webhookPayload(models.WebhookEventConfirmed, "pay_1", ""))
		s.False(result.Success)
		s.NotEmpty(result.Message)
	})

	s.Run("malformed external reference fails soft", func() {
		result := s.service.ProcessWebhook(ctx, s.webhookPayload(models.WebhookEventConfirmed, "pay_1", "garbage"))
		s.False(result.Success)
	})

	s.Run("unknown charge fails soft", func() {
		s.SetupTest()
		ref := models.NewExternalReference(s.event.ID, s.inscription.ID).String()
		result := s.service.ProcessWebhook(ctx, s.webhookPayload(models.WebhookEventConfirmed, "pay_missing", ref))
		s.False(result.Success)
	})

	s.Run("missing inscription fails soft but keeps the payment write", func() {
		s.SetupTest()
		payment := s.seedPendingPayment(s.inscription, "pay_1")
		ref := models.NewExternalReference(s.event.ID, id.NewInscriptionID()).String()

		result := s.service.ProcessWebhook(ctx, s.webhookPayload(models.WebhookEventConfirmed, "pay_1", ref))
		s.False(result.Success)

		stored, err := s.payments.FindByID(ctx, payment.ID)
		s.Require().NoError(err)
		s.Equal(models.StatusConfirmed, stored.Status, "payment write happens before the inscription lookup")
	})
}

// ==== Revenue summary ====

func (s *PaymentServiceSuite) TestSumConfirmedByEvent() {
	ctx := context.Background()

	first := s.seedPendingPayment(s.inscription, "pay_1")
	s.Require().NoError(first.MarkConfirmed(nil, s.now))
	s.Require().NoError(s.payments.Update(ctx, first))

	second := s.seedGuestInscriptionWithCPF("987.654.321-00")
	pending := s.seedPendingPayment(second, "pay_2")
	_ = pending // still PENDING, must not count

	total, err := s.service.SumConfirmedByEvent(ctx, s.event.ID)
	s.Require().NoError(err)
	s.Equal(id.Money(5000), total)
}

func (s *PaymentServiceSuite) seedGuestInscriptionWithCPF(cpf string) *inscriptionModels.Inscription {
	guest, err := inscriptionModels.NewGuestData("Joao Pereira", "joao@example.com", "", cpf, "", "")
	s.Require().NoError(err)
	inscription, err := inscriptionModels.NewForGuest(id.NewInscriptionID(), s.event.ID, id.NewCategoryID(),
		guest, id.Money(5000), id.PaymentMethodPix, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.inscriptions.Create(context.Background(), inscription))
	return inscription
}
