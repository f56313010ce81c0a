package service

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidRequest marks input-contract violations. Never retried.
	ErrInvalidRequest = errors.New("invalid request")

	// ErrRequestNotFound means no training request matches the given id or
	// reference code.
	ErrRequestNotFound = errors.New("training request not found")

	// ErrSchedulingFailed means a tentative write could not be completed and
	// the request was left off the calendar.
	ErrSchedulingFailed = errors.New("scheduling failed")
)

// Conflict describes one calendar date that blocks a requested range.
type Conflict struct {
	Date    time.Time
	Status  string
	Owner   string
	Summary string
}

// ConflictError is the expected, recoverable outcome of asking for dates
// that are taken. Callers answer it with the alternative-date flow; it is
// not a system fault.
type ConflictError struct {
	Technician string
	Conflicts  []Conflict
}

func (e *ConflictError) Error() string {
	dates := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		dates[i] = c.Date.Format(time.DateOnly)
	}
	return fmt.Sprintf("dates conflict for %s: %s", e.Technician, strings.Join(dates, ", "))
}

// AsConflict unwraps err into a *ConflictError if it is one.
func AsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
