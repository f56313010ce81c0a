package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/machtek/trainsched/internal/model"
)

var (
	// ErrUnavailableBackend means the external calendar could not be reached.
	// Transient: callers either surface it for manual retry or pick the
	// request up again on the next poller sweep.
	ErrUnavailableBackend = errors.New("calendar backend unavailable")

	// ErrSlotNotFound means the date lies outside the tracked calendar
	// horizon. Distinct from a free slot.
	ErrSlotNotFound = errors.New("slot outside calendar horizon")
)

// PartialWriteError reports a tentative write that landed on some dates but
// not all. The store has no transactions; the caller owns the cleanup.
type PartialWriteError struct {
	Succeeded []time.Time
	Failed    time.Time
	Err       error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("partial tentative write: %d slots written, failed at %s: %v",
		len(e.Succeeded), e.Failed.Format(time.DateOnly), e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

// Store is the narrow contract against the external team calendar. The
// calendar is shared with humans who edit it directly, so nothing here is
// transactional and reads may lag writes; callers must re-read before acting
// rather than trust any cached view.
type Store interface {
	// ReadSlotStatus returns the slot at (technician, date).
	ReadSlotStatus(ctx context.Context, technician string, date time.Time) (model.CalendarSlot, error)

	// WriteTentative marks `days` consecutive dates starting at start as
	// tentative, tagged with ownerRef and label. Slots are written one by
	// one; a mid-run failure is reported as *PartialWriteError.
	WriteTentative(ctx context.Context, technician string, start time.Time, days int, ownerRef, label string) error

	// ListSlotsInRange returns one slot per calendar date in [start, end],
	// in date order, with untracked dates reported as free.
	ListSlotsInRange(ctx context.Context, technician string, start, end time.Time) ([]model.CalendarSlot, error)

	// ClearSlots frees the given dates if they are held by ownerRef.
	// Slots held by anyone else are left alone.
	ClearSlots(ctx context.Context, technician string, dates []time.Time, ownerRef string) error
}
