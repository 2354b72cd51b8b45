package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"voyago/internal/database"
	"voyago/internal/payment"
	"voyago/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service and storage errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var apiErr *payment.APIError
	switch {
	case errors.Is(err, database.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, database.ErrDuplicate):
		writeError(w, http.StatusConflict, "already exists")
	case errors.Is(err, database.ErrVersionConflict):
		writeError(w, http.StatusConflict, "resource was modified, retry")
	case errors.Is(err, service.ErrNotOwner):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrInvalidBooking),
		errors.Is(err, service.ErrPastDate),
		errors.Is(err, service.ErrDateOrder),
		errors.Is(err, service.ErrPriceMismatch),
		errors.Is(err, service.ErrAmountMismatch),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrMissingIntentID),
		errors.Is(err, service.ErrAlreadyPaid),
		errors.Is(err, service.ErrBookingFinal),
		errors.Is(err, service.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &apiErr):
		// Processor rejections come back as 502 so clients can tell
		// them apart from our own validation.
		writeError(w, http.StatusBadGateway, apiErr.Message)
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
