package models

import (
	dErrors "inscrito/pkg/domain-errors"
)

// Status mirrors the gateway's charge vocabulary. Local code never invents a
// status; every transition is keyed to a gateway-reported event.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusReceived  Status = "RECEIVED"
	StatusConfirmed Status = "CONFIRMED"
	StatusOverdue   Status = "OVERDUE"
	StatusRefunded  Status = "REFUNDED"
	StatusCancelled Status = "CANCELLED"
)

// statusTransitions is the forward-only lattice. An overdue charge can still
// be paid late, which is why OVERDUE is not terminal.
var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusReceived, StatusConfirmed, StatusOverdue, StatusCancelled},
	StatusReceived:  {StatusConfirmed, StatusRefunded},
	StatusConfirmed: {StatusRefunded},
	StatusOverdue:   {StatusReceived, StatusConfirmed, StatusCancelled},
	StatusRefunded:  {},
	StatusCancelled: {},
}

func (s Status) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

func (s Status) String() string { return string(s) }

func (s Status) canTransitionTo(target Status) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func ParseStatus(s string) (Status, error) {
	status := Status(s)
	if !status.IsValid() {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown payment status %q", s)
	}
	return status, nil
}
