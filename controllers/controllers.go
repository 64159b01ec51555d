package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"huddle_server/services"
)

// writeJSON writes a JSON response with the given status
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// writeError maps service errors onto HTTP statuses. Validation failures are
// 400, authorization 403, conflicts that a client can resolve by re-fetching
// are 409, and exhausted store retries are 503.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, services.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, services.ErrSelfRequest),
		errors.Is(err, services.ErrEmptyMembership),
		errors.Is(err, services.ErrEmptyName),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrEmptyQuestion),
		errors.Is(err, services.ErrInsufficientOptions),
		errors.Is(err, services.ErrUnknownOption),
		errors.Is(err, services.ErrUnknownDirection):
		status = http.StatusBadRequest
	case errors.Is(err, services.ErrDuplicateRequest),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrNotAMember),
		errors.Is(err, services.ErrAlreadyVoted),
		errors.Is(err, services.ErrPollClosed),
		errors.Is(err, services.ErrWriteConflict):
		status = http.StatusConflict
	case errors.Is(err, services.ErrUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
