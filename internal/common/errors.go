package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/commonsfund/treasury/pkg/treasury"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError maps a treasury error kind to a distinct status code and body so
// clients can render an accurate message without parsing free text
func WriteError(w http.ResponseWriter, err error) {
	code, status := "internal", http.StatusInternalServerError

	switch {
	case errors.Is(err, treasury.ErrUnauthorized):
		code, status = "unauthorized", http.StatusForbidden
	case errors.Is(err, treasury.ErrNotFound):
		code, status = "not_found", http.StatusNotFound
	case errors.Is(err, treasury.ErrAlreadyApproved):
		code, status = "already_approved", http.StatusConflict
	case errors.Is(err, treasury.ErrInvalidState):
		code, status = "invalid_state", http.StatusConflict
	case errors.Is(err, treasury.ErrLimitExceeded):
		code, status = "limit_exceeded", http.StatusTooManyRequests
	case errors.Is(err, treasury.ErrTimelockNotExpired):
		code, status = "timelock_not_expired", http.StatusLocked
	case errors.Is(err, treasury.ErrNotDue):
		code, status = "not_due", http.StatusTooEarly
	case errors.Is(err, treasury.ErrInvalidOperation):
		code, status = "invalid_operation", http.StatusBadRequest
	}

	b, merr := json.Marshal(&errorResponse{Code: code, Message: err.Error()})
	if merr != nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(b)
}
