package domain

import (
	"strings"

	dErrors "inscrito/pkg/domain-errors"
)

// CPF is a Brazilian tax id in its normalized, digits-only form. All
// comparisons and storage happen on this form; Format produces the familiar
// punctuated rendering for display.
//
// Invariant: a non-empty CPF always carries 11 digits with valid check digits.
type CPF string

// ParseCPF normalizes and validates a CPF from external input. It accepts the
// punctuated form ("529.982.247-25") and the bare form ("52998224725").
func ParseCPF(s string) (CPF, error) {
	digits := onlyDigits(s)
	if len(digits) != 11 {
		return "", dErrors.New(dErrors.CodeValidation, "cpf must contain 11 digits").WithField("cpf", "must contain 11 digits")
	}
	if allSame(digits) {
		return "", dErrors.New(dErrors.CodeValidation, "invalid cpf").WithField("cpf", "invalid check digits")
	}
	if digits[9] != cpfCheckDigit(digits[:9]) || digits[10] != cpfCheckDigit(digits[:10]) {
		return "", dErrors.New(dErrors.CodeValidation, "invalid cpf").WithField("cpf", "invalid check digits")
	}
	return CPF(digits), nil
}

func (c CPF) String() string { return string(c) }

func (c CPF) IsZero() bool { return c == "" }

// Format renders the CPF as XXX.XXX.XXX-XX.
func (c CPF) Format() string {
	s := string(c)
	if len(s) != 11 {
		return s
	}
	return s[:3] + "." + s[3:6] + "." + s[6:9] + "-" + s[9:]
}

// cpfCheckDigit computes a check digit over the given prefix using the
// standard weights (len+1 down to 2).
func cpfCheckDigit(prefix string) byte {
	sum := 0
	weight := len(prefix) + 1
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * (weight - i)
	}
	rest := (sum * 10) % 11
	if rest == 10 {
		rest = 0
	}
	return byte('0' + rest)
}

func onlyDigits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func allSame(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}
