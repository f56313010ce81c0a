package calendar

import (
	"context"
	"sync"
	"time"

	"github.com/machtek/trainsched/internal/model"
)

type slotKey struct {
	technician string
	date       string // time.DateOnly
}

// MemoryStore is an in-process calendar used in development mode and in
// tests. It honors the same horizon semantics as the real calendar: dates
// outside [now-horizon, now+horizon] are not tracked.
type MemoryStore struct {
	mu      sync.RWMutex
	slots   map[slotKey]model.CalendarSlot
	bounded bool
	horizon int       // days either side of anchor
	anchor  time.Time // horizon midpoint, UTC midnight
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots: make(map[slotKey]model.CalendarSlot),
	}
}

// NewBoundedMemoryStore tracks only dates within horizonDays of anchor,
// returning ErrSlotNotFound outside it, like the spreadsheet's fixed tabs.
func NewBoundedMemoryStore(anchor time.Time, horizonDays int) *MemoryStore {
	return &MemoryStore{
		slots:   make(map[slotKey]model.CalendarSlot),
		bounded: true,
		horizon: horizonDays,
		anchor:  model.Midnight(anchor),
	}
}

func key(technician string, date time.Time) slotKey {
	return slotKey{technician: technician, date: model.Midnight(date).Format(time.DateOnly)}
}

func (m *MemoryStore) inHorizon(date time.Time) bool {
	if !m.bounded {
		return true
	}
	d := model.Midnight(date)
	lo := m.anchor.AddDate(0, 0, -m.horizon)
	hi := m.anchor.AddDate(0, 0, m.horizon)
	return !d.Before(lo) && !d.After(hi)
}

func (m *MemoryStore) ReadSlotStatus(_ context.Context, technician string, date time.Time) (model.CalendarSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.inHorizon(date) {
		return model.CalendarSlot{}, ErrSlotNotFound
	}
	if slot, ok := m.slots[key(technician, date)]; ok {
		return slot, nil
	}
	return model.CalendarSlot{
		Technician: technician,
		Date:       model.Midnight(date),
		Status:     model.SlotStatusFree,
	}, nil
}

func (m *MemoryStore) WriteTentative(_ context.Context, technician string, start time.Time, days int, ownerRef, label string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var written []time.Time
	for i := 0; i < days; i++ {
		date := model.Midnight(start).AddDate(0, 0, i)
		if !m.inHorizon(date) {
			return &PartialWriteError{Succeeded: written, Failed: date, Err: ErrSlotNotFound}
		}
		m.slots[key(technician, date)] = model.CalendarSlot{
			Technician: technician,
			Date:       date,
			Status:     model.SlotStatusTentative,
			OwnerRef:   ownerRef,
			Label:      label,
		}
		written = append(written, date)
	}
	return nil
}

func (m *MemoryStore) ListSlotsInRange(_ context.Context, technician string, start, end time.Time) ([]model.CalendarSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.CalendarSlot
	for d := model.Midnight(start); !d.After(model.Midnight(end)); d = d.AddDate(0, 0, 1) {
		if !m.inHorizon(d) {
			return nil, ErrSlotNotFound
		}
		if slot, ok := m.slots[key(technician, d)]; ok {
			out = append(out, slot)
			continue
		}
		out = append(out, model.CalendarSlot{
			Technician: technician,
			Date:       d,
			Status:     model.SlotStatusFree,
		})
	}
	return out, nil
}

func (m *MemoryStore) ClearSlots(_ context.Context, technician string, dates []time.Time, ownerRef string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, date := range dates {
		k := key(technician, date)
		slot, ok := m.slots[k]
		if !ok || slot.OwnerRef != ownerRef {
			continue
		}
		delete(m.slots, k)
	}
	return nil
}

// SetSlot places a slot directly, standing in for an office member editing
// the calendar by hand.
func (m *MemoryStore) SetSlot(slot model.CalendarSlot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	slot.Date = model.Midnight(slot.Date)
	m.slots[key(slot.Technician, slot.Date)] = slot
}

// ConfirmSlots flips ownerRef's tentative slots to confirmed, the way the
// office confirms a booking by recoloring the cells.
func (m *MemoryStore) ConfirmSlots(technician string, dates []time.Time, ownerRef string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, date := range dates {
		k := key(technician, date)
		slot, ok := m.slots[k]
		if !ok || slot.OwnerRef != ownerRef {
			continue
		}
		slot.Status = model.SlotStatusConfirmed
		m.slots[k] = slot
	}
}
