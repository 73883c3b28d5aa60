package models

import dErrors "inscrito/pkg/domain-errors"

// EventStatus carries the Portuguese wire values the organizer UI and stored
// data already use.
type EventStatus string

const (
	StatusDraft     EventStatus = "rascunho"
	StatusOpen      EventStatus = "aberto"
	StatusClosed    EventStatus = "fechado"
	StatusEnded     EventStatus = "encerrado"
	StatusCancelled EventStatus = "cancelado"
)

// statusTransitions is the single source of truth for legal status moves.
// Ended and cancelled are terminal.
var statusTransitions = map[EventStatus][]EventStatus{
	StatusDraft:     {StatusOpen, StatusCancelled},
	StatusOpen:      {StatusClosed, StatusEnded, StatusCancelled},
	StatusClosed:    {StatusOpen, StatusEnded, StatusCancelled},
	StatusEnded:     {},
	StatusCancelled: {},
}

func ParseEventStatus(s string) (EventStatus, error) {
	status := EventStatus(s)
	if !status.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "invalid event status")
	}
	return status, nil
}

func (s EventStatus) IsValid() bool {
	_, ok := statusTransitions[s]
	return ok
}

func (s EventStatus) String() string { return string(s) }

// CanTransitionTo reports whether moving from s to target is legal.
func (s EventStatus) CanTransitionTo(target EventStatus) bool {
	for _, allowed := range statusTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
