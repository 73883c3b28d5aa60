package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
)

type PaymentSuite struct {
	suite.Suite

	now time.Time
}

func TestPaymentSuite(t *testing.T) {
	suite.Run(t, new(PaymentSuite))
}

func (s *PaymentSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func (s *PaymentSuite) newPayment() *Payment {
	payment, err := New(id.NewPaymentID(), id.NewInscriptionID(), id.NewEventID(), nil,
		"pay_123", id.Money(5000), id.PaymentMethodPix, s.now.Add(72*time.Hour), s.now)
	s.Require().NoError(err)
	return payment
}

// ==== Construction ====

func (s *PaymentSuite) TestNew() {
	s.Run("starts pending", func() {
		payment := s.newPayment()
		s.Equal(StatusPending, payment.Status)
		s.Nil(payment.PaidAt)
		s.False(payment.IsConfirmed())
	})

	s.Run("rejects missing charge id", func() {
		_, err := New(id.NewPaymentID(), id.NewInscriptionID(), id.NewEventID(), nil,
			"", id.Money(5000), id.PaymentMethodPix, s.now, s.now)
		s.Equal(dErrors.CodeInvariantViolation, dErrors.CodeOf(err))
	})

	s.Run("rejects negative amount", func() {
		_, err := New(id.NewPaymentID(), id.NewInscriptionID(), id.NewEventID(), nil,
			"pay_123", id.Money(-1), id.PaymentMethodPix, s.now, s.now)
		s.Equal(dErrors.CodeInvariantViolation, dErrors.CodeOf(err))
	})

	s.Run("accepts a zero amount for free categories", func() {
		payment, err := New(id.NewPaymentID(), id.NewInscriptionID(), id.NewEventID(), nil,
			"pay_123", id.Money(0), id.PaymentMethodPix, s.now, s.now)
		s.Require().NoError(err)
		s.Equal(id.Money(0), payment.Amount)
	})
}

// ==== Status transitions ====

func (s *PaymentSuite) TestTransitions() {
	s.Run("pending to received to confirmed", func() {
		payment := s.newPayment()
		paidAt := s.now.Add(time.Hour)

		s.Require().NoError(payment.MarkReceived(paidAt, s.now))
		s.Equal(StatusReceived, payment.Status)
		s.True(payment.IsConfirmed())
		s.Require().NotNil(payment.PaidAt)
		s.Equal(paidAt, *payment.PaidAt)

		s.Require().NoError(payment.MarkConfirmed(nil, s.now))
		s.Equal(StatusConfirmed, payment.Status)
		s.Equal(paidAt, *payment.PaidAt, "confirming keeps the recorded paid time")
	})

	s.Run("pending straight to confirmed", func() {
		payment := s.newPayment()
		paidAt := s.now.Add(time.Hour)
		s.Require().NoError(payment.MarkConfirmed(&paidAt, s.now))
		s.Equal(StatusConfirmed, payment.Status)
		s.Equal(paidAt, *payment.PaidAt)
	})

	s.Run("confirmed rejects replay", func() {
		payment := s.newPayment()
		s.Require().NoError(payment.MarkConfirmed(nil, s.now))
		err := payment.MarkConfirmed(nil, s.now)
		s.Equal(dErrors.CodeValidation, dErrors.CodeOf(err))
	})

	s.Run("overdue can still be paid", func() {
		payment := s.newPayment()
		s.Require().NoError(payment.MarkOverdue(s.now))
		s.Require().NoError(payment.MarkReceived(s.now.Add(time.Hour), s.now))
		s.Equal(StatusReceived, payment.Status)
	})

	s.Run("refunded is terminal", func() {
		payment := s.newPayment()
		s.Require().NoError(payment.MarkReceived(s.now, s.now))
		s.Require().NoError(payment.MarkRefunded(s.now))
		s.Error(payment.MarkConfirmed(nil, s.now))
		s.Error(payment.MarkCancelled(s.now))
	})

	s.Run("cancelled is terminal", func() {
		payment := s.newPayment()
		s.Require().NoError(payment.MarkCancelled(s.now))
		s.Error(payment.MarkReceived(s.now, s.now))
	})

	s.Run("confirmed cannot be cancelled", func() {
		payment := s.newPayment()
		s.Require().NoError(payment.MarkConfirmed(nil, s.now))
		s.Error(payment.MarkCancelled(s.now))
		s.NoError(payment.MarkRefunded(s.now))
	})
}

// ==== Pix attachment ====

func (s *PaymentSuite) TestAttachPixCode() {
	payment := s.newPayment()
	payment.AttachPixCode("00020126...", "iVBORw0KGgo=")
	s.Equal("00020126...", payment.PixPayload)
	s.Equal("iVBORw0KGgo=", payment.PixQRImage)
}

// ==== External reference ====

func (s *PaymentSuite) TestExternalReference() {
	s.Run("round trip", func() {
		eventID, inscriptionID := id.NewEventID(), id.NewInscriptionID()
		ref := NewExternalReference(eventID, inscriptionID)
		parsed, err := ParseExternalReference(ref.String())
		s.Require().NoError(err)
		s.Equal(eventID, parsed.EventID)
		s.Equal(inscriptionID, parsed.InscriptionID)
	})

	s.Run("rejects malformed input", func() {
		for _, raw := range []string{"", "not-a-ref", "a:b:c", "a:b", id.NewEventID().String()} {
			_, err := ParseExternalReference(raw)
			s.Error(err, "input %q", raw)
		}
	})
}
