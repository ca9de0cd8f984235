package timesheet

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCadence  = errors.New("invalid period type")
	ErrNotFound        = errors.New("timesheet not found")
	ErrEmptySubmission = errors.New("timesheet has no logged hours")
	ErrValidation      = errors.New("invalid input")
)

// InvalidStateError reports a transition attempted from a status that
// forbids it. Status lets callers tell "wrong state" apart from "not
// found" and build a user-facing message.
type InvalidStateError struct {
	Op     string
	Status string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("timesheet cannot be %s. Current status: %s", e.Op, e.Status)
}

func validationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
