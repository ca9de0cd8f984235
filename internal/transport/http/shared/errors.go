package shared

import (
	"errors"
	"net/http"

	"timetracker/internal/domain/timesheet"
	"timetracker/internal/transport/http/api"
)

// FailDomain maps a domain error onto the JSON error envelope. Unknown
// errors come back as a generic 500 without leaking internals.
func FailDomain(w http.ResponseWriter, err error, requestID string) {
	var stateErr *timesheet.InvalidStateError
	switch {
	case errors.Is(err, timesheet.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "resource not found", requestID)
	case errors.As(err, &stateErr):
		api.Fail(w, http.StatusConflict, "invalid_state", stateErr.Error(), requestID)
	case errors.Is(err, timesheet.ErrEmptySubmission):
		api.Fail(w, http.StatusBadRequest, "empty_submission", "cannot submit a timesheet with no hours", requestID)
	case errors.Is(err, timesheet.ErrInvalidCadence):
		api.Fail(w, http.StatusBadRequest, "invalid_cadence", err.Error(), requestID)
	case errors.Is(err, timesheet.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	default:
		api.Fail(w, http.StatusInternalServerError, "internal_error", "internal server error", requestID)
	}
}
