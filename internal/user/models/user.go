// Package models holds the user directory profile. Account lifecycle
// (signup, credentials, sessions) belongs to the identity provider; this
// profile exists so registrations can resolve billing contact data and so the
// duplicate-prevention protocol can match guests against registered users by
// tax id.
package models

import (
	"time"

	id "inscrito/pkg/domain"
	dErrors "inscrito/pkg/domain-errors"
)

type User struct {
	ID        id.UserID     `json:"id"`
	Name      id.PersonName `json:"name"`
	Email     id.Email      `json:"email"`
	CPF       id.CPF        `json:"cpf"`
	Phone     id.Phone      `json:"phone"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func NewUser(userID id.UserID, name id.PersonName, email id.Email, cpf id.CPF, phone id.Phone, now time.Time) (*User, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user id is required")
	}
	if name.IsZero() || email.IsZero() || cpf.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user requires name, email and cpf")
	}
	return &User{
		ID:        userID,
		Name:      name,
		Email:     email,
		CPF:       cpf,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
