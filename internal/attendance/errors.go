package attendance

import (
	"attendtrack/internal/apperr"
	"attendtrack/internal/model"
)

var errAlreadyMarked = apperr.New(apperr.AlreadyMarked, "Attendance already marked for today")

// AlreadyMarkedError reports a second mark for the same day. Existing is the record that won.
type AlreadyMarkedError struct {
	Existing *model.Attendance
}

func (e *AlreadyMarkedError) Error() string {
	return errAlreadyMarked.Message
}

func (e *AlreadyMarkedError) Unwrap() error {
	return errAlreadyMarked
}
