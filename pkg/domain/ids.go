// Package domain holds identifiers and value objects shared across modules.
// Values are constructed through Parse functions at trust boundaries; direct
// conversion bypasses validation and is reserved for code that already holds
// a validated value (stores rehydrating rows, tests).
package domain

import (
	"github.com/google/uuid"

	dErrors "inscrito/pkg/domain-errors"
)

// Typed ids prevent mixing identifiers of different aggregates. They marshal
// as canonical UUID strings.

type EventID uuid.UUID

func NewEventID() EventID { return EventID(uuid.New()) }

func ParseEventID(s string) (EventID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return EventID{}, dErrors.New(dErrors.CodeValidation, "invalid event id")
	}
	return EventID(u), nil
}

func (id EventID) String() string { return uuid.UUID(id).String() }
func (id EventID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id EventID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *EventID) UnmarshalText(b []byte) error {
	parsed, err := ParseEventID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type CategoryID uuid.UUID

func NewCategoryID() CategoryID { return CategoryID(uuid.New()) }

func ParseCategoryID(s string) (CategoryID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return CategoryID{}, dErrors.New(dErrors.CodeValidation, "invalid category id")
	}
	return CategoryID(u), nil
}

func (id CategoryID) String() string { return uuid.UUID(id).String() }
func (id CategoryID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id CategoryID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *CategoryID) UnmarshalText(b []byte) error {
	parsed, err := ParseCategoryID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type InscriptionID uuid.UUID

func NewInscriptionID() InscriptionID { return InscriptionID(uuid.New()) }

func ParseInscriptionID(s string) (InscriptionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return InscriptionID{}, dErrors.New(dErrors.CodeValidation, "invalid inscription id")
	}
	return InscriptionID(u), nil
}

func (id InscriptionID) String() string { return uuid.UUID(id).String() }
func (id InscriptionID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id InscriptionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *InscriptionID) UnmarshalText(b []byte) error {
	parsed, err := ParseInscriptionID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type PaymentID uuid.UUID

func NewPaymentID() PaymentID { return PaymentID(uuid.New()) }

func ParsePaymentID(s string) (PaymentID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return PaymentID{}, dErrors.New(dErrors.CodeValidation, "invalid payment id")
	}
	return PaymentID(u), nil
}

func (id PaymentID) String() string { return uuid.UUID(id).String() }
func (id PaymentID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id PaymentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *PaymentID) UnmarshalText(b []byte) error {
	parsed, err := ParsePaymentID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

type UserID uuid.UUID

func NewUserID() UserID { return UserID(uuid.New()) }

func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, dErrors.New(dErrors.CodeValidation, "invalid user id")
	}
	return UserID(u), nil
}

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id UserID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

func (id UserID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	parsed, err := ParseUserID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
