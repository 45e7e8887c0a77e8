package workflows

import "errors"

var (
	// ErrUnknownDecider — decider с таким именем не зарегистрирован.
	ErrUnknownDecider = errors.New("unknown deciding class")

	// ErrBookingNotAllowed — участники бронирования отказали.
	ErrBookingNotAllowed = errors.New("booking not allowed")

	// ErrRevisionNotAllowed — участники пересмотра отказали.
	ErrRevisionNotAllowed = errors.New("revision not allowed")
)
