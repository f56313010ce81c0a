package model

import "time"

type SlotStatus string

const (
	SlotStatusFree      SlotStatus = "free"
	SlotStatusTentative SlotStatus = "tentative"
	SlotStatusConfirmed SlotStatus = "confirmed"
	SlotStatusBlocked   SlotStatus = "blocked"
)

// CalendarSlot is one (technician, date) cell of the external team calendar.
// The calendar is owned by the office staff, not by this system; slots are
// only ever read and written through the calendar store adapter.
type CalendarSlot struct {
	Technician string     `json:"technician"`
	Date       time.Time  `json:"date"` // UTC midnight, date precision only
	Status     SlotStatus `json:"status"`
	OwnerRef   string     `json:"owner_ref"` // request reference code that holds the slot
	Label      string     `json:"label"`     // free-form text as it appears in the calendar cell
}

// IsFree reports whether the slot can be taken by a new booking.
func (s CalendarSlot) IsFree() bool {
	return s.Status == SlotStatusFree
}

// ConflictsWith reports whether the slot blocks a booking attempt made by the
// request identified by ownRef. A tentative slot held by the same request does
// not conflict with its own retry.
func (s CalendarSlot) ConflictsWith(ownRef string) bool {
	switch s.Status {
	case SlotStatusConfirmed, SlotStatusBlocked:
		return true
	case SlotStatusTentative:
		return ownRef == "" || s.OwnerRef != ownRef
	}
	return false
}

// Summary renders the slot the way the office sees it, for conflict messages.
func (s CalendarSlot) Summary() string {
	if s.Label != "" {
		return string(s.Status) + ": " + s.Label
	}
	return string(s.Status)
}
