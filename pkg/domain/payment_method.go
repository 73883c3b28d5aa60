package domain

import dErrors "inscrito/pkg/domain-errors"

// PaymentMethod is how a participant intends to pay. The gateway only ever
// sees pix charges; cash is settled in person and confirmed manually by an
// organizer.
type PaymentMethod string

const (
	PaymentMethodPix  PaymentMethod = "pix"
	PaymentMethodCash PaymentMethod = "dinheiro"
)

var validPaymentMethods = map[PaymentMethod]bool{
	PaymentMethodPix:  true,
	PaymentMethodCash: true,
}

// ParsePaymentMethod constructs a PaymentMethod from external input.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	m := PaymentMethod(s)
	if !validPaymentMethods[m] {
		return "", dErrors.New(dErrors.CodeValidation, "invalid payment method").WithField("payment_method", "invalid value")
	}
	return m, nil
}

func (m PaymentMethod) IsValid() bool { return validPaymentMethods[m] }

func (m PaymentMethod) String() string { return string(m) }
