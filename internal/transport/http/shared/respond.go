// Package shared holds the response helpers every HTTP handler uses.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "inscrito/pkg/domain-errors"
)

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes v with the given status. Encoding failures are swallowed;
// by the time Encode fails the status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps a domain error to its HTTP status and serializes it.
// Non-domain errors come out as 500 internal.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	detail := ErrorDetail{
		Code:    string(code),
		Message: err.Error(),
	}
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		detail.Message = dErr.Message
		detail.Fields = dErr.Fields
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), ErrorBody{Error: detail})
}
