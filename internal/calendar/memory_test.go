package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/machtek/trainsched/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_UntrackedDatesAreFree(t *testing.T) {
	store := NewMemoryStore()

	slot, err := store.ReadSlotStatus(context.Background(), "marcus.hale", model.DateOf(2026, 3, 10))
	require.NoError(t, err)

	assert.Equal(t, model.SlotStatusFree, slot.Status)
	assert.Equal(t, "marcus.hale", slot.Technician)
}

func TestMemoryStore_WriteTentativeSpansRange(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	err := store.WriteTentative(ctx, "marcus.hale", model.DateOf(2026, 3, 10), 3, "TR-2026-0001", "TR-2026-0001 Acme")
	require.NoError(t, err)

	slots, err := store.ListSlotsInRange(ctx, "marcus.hale", model.DateOf(2026, 3, 9), model.DateOf(2026, 3, 13))
	require.NoError(t, err)
	require.Len(t, slots, 5)

	assert.Equal(t, model.SlotStatusFree, slots[0].Status)
	for i := 1; i <= 3; i++ {
		assert.Equal(t, model.SlotStatusTentative, slots[i].Status)
		assert.Equal(t, "TR-2026-0001", slots[i].OwnerRef)
	}
	assert.Equal(t, model.SlotStatusFree, slots[4].Status)

	// Ordered by date.
	for i := 1; i < len(slots); i++ {
		assert.True(t, slots[i-1].Date.Before(slots[i].Date))
	}
}

func TestMemoryStore_HorizonBounds(t *testing.T) {
	anchor := model.DateOf(2026, 3, 1)
	store := NewBoundedMemoryStore(anchor, 10)
	ctx := context.Background()

	_, err := store.ReadSlotStatus(ctx, "marcus.hale", anchor.AddDate(0, 0, 11))
	assert.ErrorIs(t, err, ErrSlotNotFound)

	_, err = store.ReadSlotStatus(ctx, "marcus.hale", anchor.AddDate(0, 0, 10))
	assert.NoError(t, err)
}

func TestMemoryStore_PartialWriteAtHorizonEdge(t *testing.T) {
	anchor := model.DateOf(2026, 3, 10)
	store := NewBoundedMemoryStore(anchor, 1)

	err := store.WriteTentative(context.Background(), "marcus.hale", anchor, 3, "TR-2026-0001", "label")

	var partial *PartialWriteError
	require.ErrorAs(t, err, &partial)
	assert.Len(t, partial.Succeeded, 2)
	assert.Equal(t, anchor.AddDate(0, 0, 2), partial.Failed)
}

func TestMemoryStore_ClearSlotsRespectsOwner(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	date := model.DateOf(2026, 3, 10)

	require.NoError(t, store.WriteTentative(ctx, "marcus.hale", date, 1, "TR-2026-0001", "mine"))
	store.SetSlot(model.CalendarSlot{
		Technician: "marcus.hale",
		Date:       date.AddDate(0, 0, 1),
		Status:     model.SlotStatusTentative,
		OwnerRef:   "TR-2026-0002",
	})

	// Clearing with the wrong owner leaves the other request's slot alone.
	err := store.ClearSlots(ctx, "marcus.hale", []time.Time{date, date.AddDate(0, 0, 1)}, "TR-2026-0001")
	require.NoError(t, err)

	mine, _ := store.ReadSlotStatus(ctx, "marcus.hale", date)
	theirs, _ := store.ReadSlotStatus(ctx, "marcus.hale", date.AddDate(0, 0, 1))
	assert.Equal(t, model.SlotStatusFree, mine.Status)
	assert.Equal(t, model.SlotStatusTentative, theirs.Status)
}

func TestMemoryStore_ConfirmSlots(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	start := model.DateOf(2026, 3, 10)

	require.NoError(t, store.WriteTentative(ctx, "marcus.hale", start, 2, "TR-2026-0001", "label"))
	store.ConfirmSlots("marcus.hale", []time.Time{start, start.AddDate(0, 0, 1)}, "TR-2026-0001")

	slots, err := store.ListSlotsInRange(ctx, "marcus.hale", start, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	for _, slot := range slots {
		assert.Equal(t, model.SlotStatusConfirmed, slot.Status)
		assert.Equal(t, "TR-2026-0001", slot.OwnerRef)
	}
}

func TestMemoryStore_TechniciansAreIndependent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	date := model.DateOf(2026, 3, 10)

	require.NoError(t, store.WriteTentative(ctx, "marcus.hale", date, 1, "TR-2026-0001", "label"))

	slot, err := store.ReadSlotStatus(ctx, "elena.cruz", date)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusFree, slot.Status)
}
