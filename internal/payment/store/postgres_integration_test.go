//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"inscrito/internal/payment/models"
	"inscrito/internal/payment/store"
	id "inscrito/pkg/domain"
	"inscrito/pkg/platform/sentinel"
	"inscrito/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
	now      time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.now = time.Now().UTC().Truncate(time.Millisecond)
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "payments"))
}

func (s *PostgresStoreSuite) newPayment(eventID id.EventID, chargeID string) *models.Payment {
	payment, err := models.New(id.NewPaymentID(), id.NewInscriptionID(), eventID, nil,
		chargeID, id.Money(5000), id.PaymentMethodPix, s.now.Add(72*time.Hour), s.now)
	s.Require().NoError(err)
	return payment
}

func (s *PostgresStoreSuite) TestRoundTrip() {
	ctx := context.Background()
	payment := s.newPayment(id.NewEventID(), "pay_1")
	payment.AttachPixCode("00020126...", "iVBORw0KGgo=")
	payment.SlipURL = "https://gw/slip/pay_1"
	s.Require().NoError(s.store.Create(ctx, payment))

	found, err := s.store.FindByID(ctx, payment.ID)
	s.Require().NoError(err)
	s.Equal("pay_1", found.ChargeID)
	s.Equal(models.StatusPending, found.Status)
	s.Equal("00020126...", found.PixPayload)
	s.Equal("https://gw/slip/pay_1", found.SlipURL)
	s.Nil(found.PaidAt)
	s.Nil(found.UserID)

	byCharge, err := s.store.FindByExternalChargeID(ctx, "pay_1")
	s.Require().NoError(err)
	s.Equal(payment.ID, byCharge.ID)

	byInscription, err := s.store.FindByInscriptionID(ctx, payment.InscriptionID)
	s.Require().NoError(err)
	s.Equal(payment.ID, byInscription.ID)
}

func (s *PostgresStoreSuite) TestChargeIDIsUnique() {
	ctx := context.Background()
	eventID := id.NewEventID()
	s.Require().NoError(s.store.Create(ctx, s.newPayment(eventID, "pay_1")))
	s.ErrorIs(s.store.Create(ctx, s.newPayment(eventID, "pay_1")), sentinel.ErrConflict)
}

func (s *PostgresStoreSuite) TestUpdatePersistsStatusAndPaidAt() {
	ctx := context.Background()
	payment := s.newPayment(id.NewEventID(), "pay_1")
	s.Require().NoError(s.store.Create(ctx, payment))

	paidAt := s.now.Add(time.Hour)
	s.Require().NoError(payment.MarkConfirmed(&paidAt, s.now))
	s.Require().NoError(s.store.Update(ctx, payment))

	found, err := s.store.FindByID(ctx, payment.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusConfirmed, found.Status)
	s.Require().NotNil(found.PaidAt)
	s.Equal(paidAt, found.PaidAt.UTC())
}

func (s *PostgresStoreSuite) TestSumConfirmedByEvent() {
	ctx := context.Background()
	eventID := id.NewEventID()

	confirmed := s.newPayment(eventID, "pay_1")
	s.Require().NoError(confirmed.MarkConfirmed(nil, s.now))
	s.Require().NoError(s.store.Create(ctx, confirmed))

	received := s.newPayment(eventID, "pay_2")
	s.Require().NoError(received.MarkReceived(s.now, s.now))
	s.Require().NoError(s.store.Create(ctx, received))

	s.Require().NoError(s.store.Create(ctx, s.newPayment(eventID, "pay_3")))
	s.Require().NoError(s.store.Create(ctx, s.newPayment(id.NewEventID(), "pay_4")))

	total, err := s.store.SumConfirmedByEvent(ctx, eventID)
	s.Require().NoError(err)
	s.Equal(id.Money(10000), total, "pending payments and other events do not count")
}
