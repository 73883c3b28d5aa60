package domain

import (
	"fmt"
	"strconv"

	dErrors "inscrito/pkg/domain-errors"
)

// Money is an amount in integer centavos. Arithmetic and comparison never
// touch floating point.
type Money int64

// ParseMoney validates an amount in centavos from external input.
func ParseMoney(centavos int64) (Money, error) {
	if centavos < 0 {
		return 0, dErrors.New(dErrors.CodeValidation, "amount cannot be negative").WithField("amount", "cannot be negative")
	}
	return Money(centavos), nil
}

func (m Money) Centavos() int64 { return int64(m) }

func (m Money) IsZero() bool { return m == 0 }

func (m Money) Add(other Money) Money { return m + other }

// FormatBRL renders the amount in Brazilian currency notation, e.g.
// 5000 -> "R$ 50,00" and 123456 -> "R$ 1.234,56".
func (m Money) FormatBRL() string {
	cents := int64(m)
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	reais := cents / 100
	rest := cents % 100

	digits := strconv.FormatInt(reais, 10)
	var grouped []byte
	for i, d := range []byte(digits) {
		if i > 0 && (len(digits)-i)%3 == 0 {
			grouped = append(grouped, '.')
		}
		grouped = append(grouped, d)
	}
	return fmt.Sprintf("%sR$ %s,%02d", sign, grouped, rest)
}
