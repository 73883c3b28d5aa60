package models

import (
	dErrors "inscrito/pkg/domain-errors"
)

// Status is the inscription lifecycle label. Values are the Portuguese wire
// vocabulary the rest of the platform already speaks.
type Status string

const (
	StatusPending   Status = "pendente"
	StatusConfirmed Status = "confirmado"
	StatusCancelled Status = "cancelado"
)

func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown inscription status %q", s)
	}
	return status, nil
}

func (s Status) IsValid() bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCancelled
}

func (s Status) String() string { return string(s) }
