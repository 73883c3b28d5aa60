package domain

import (
	"net/mail"
	"strings"

	dErrors "inscrito/pkg/domain-errors"
)

// Email is a normalized (lowercased) email address.
type Email string

func ParseEmail(s string) (Email, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "email cannot be empty").WithField("email", "cannot be empty")
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", dErrors.New(dErrors.CodeValidation, "invalid email").WithField("email", "invalid address")
	}
	return Email(strings.ToLower(s)), nil
}

func (e Email) String() string { return string(e) }
func (e Email) IsZero() bool   { return e == "" }

// Phone is a Brazilian phone number normalized to digits: DDD plus an 8 or 9
// digit subscriber number. A leading 55 country code is stripped on parse.
type Phone string

func ParsePhone(s string) (Phone, error) {
	digits := onlyDigits(s)
	if len(digits) == 12 || len(digits) == 13 {
		if strings.HasPrefix(digits, "55") {
			digits = digits[2:]
		}
	}
	if len(digits) < 10 || len(digits) > 11 {
		return "", dErrors.New(dErrors.CodeValidation, "phone must contain 10 or 11 digits").WithField("phone", "must contain 10 or 11 digits")
	}
	if digits[0] == '0' {
		return "", dErrors.New(dErrors.CodeValidation, "invalid phone area code").WithField("phone", "invalid area code")
	}
	return Phone(digits), nil
}

func (p Phone) String() string { return string(p) }
func (p Phone) IsZero() bool   { return p == "" }

// PersonName is a display name with surrounding whitespace removed.
type PersonName string

func ParsePersonName(s string) (PersonName, error) {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return "", dErrors.New(dErrors.CodeValidation, "name cannot be empty").WithField("name", "cannot be empty")
	}
	if len([]rune(s)) > 120 {
		return "", dErrors.New(dErrors.CodeValidation, "name must be 120 characters or less").WithField("name", "must be 120 characters or less")
	}
	return PersonName(s), nil
}

func (n PersonName) String() string { return string(n) }
func (n PersonName) IsZero() bool   { return n == "" }
