package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clausewise/clausewise-engine/pkg/apperrors"
)

// ErrorResponse writes a JSON error response and returns any encoding error.
func ErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(map[string]string{
		"error":   errorCode,
		"message": message,
	})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteDomainError maps engine errors to HTTP responses.
func WriteDomainError(w http.ResponseWriter, err error) error {
	switch {
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrUnknownRun):
		return ErrorResponse(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrInvalidRuleDefinition):
		return ErrorResponse(w, http.StatusUnprocessableEntity, "invalid_rule_definition", err.Error())
	case errors.Is(err, apperrors.ErrAlreadyActive):
		return ErrorResponse(w, http.StatusConflict, "already_active", err.Error())
	case errors.Is(err, apperrors.ErrNoAttachment):
		return ErrorResponse(w, http.StatusUnprocessableEntity, "no_attachment", err.Error())
	case errors.Is(err, apperrors.ErrInvalidTransition):
		return ErrorResponse(w, http.StatusConflict, "invalid_transition", err.Error())
	case errors.Is(err, apperrors.ErrConflict):
		return ErrorResponse(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		return ErrorResponse(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
