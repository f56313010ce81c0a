package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/machtek/trainsched/internal/calendar"
	"github.com/machtek/trainsched/internal/model"
	"go.uber.org/zap"
)

// fakeStore is an in-memory RequestStore mirroring the repository's
// semantics: nil on missing rows, whole field sets updated together.
type fakeStore struct {
	mu     sync.Mutex
	nextID int64
	seq    int64
	byID   map[int64]*model.TrainingRequest
}

func newFakeStore() *fakeStore {
	return &fakeStore{byID: make(map[int64]*model.TrainingRequest)}
}

func (f *fakeStore) Create(_ context.Context, req *model.TrainingRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	req.ID = f.nextID
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	cp := *req
	f.byID[req.ID] = &cp
	return nil
}

func (f *fakeStore) GetByID(_ context.Context, id int64) (*model.TrainingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (f *fakeStore) GetByReferenceCode(_ context.Context, code string) (*model.TrainingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, req := range f.byID {
		if req.ReferenceCode == code {
			cp := *req
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListPendingConfirmation(_ context.Context) ([]*model.TrainingRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.TrainingRequest
	for _, req := range f.byID {
		if req.CalendarStatus == model.CalendarStatusPending {
			cp := *req
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateTentative(_ context.Context, id int64, start, end time.Time, eventRef string) error {
	return f.update(id, func(req *model.TrainingRequest) {
		req.RequestedStartDate = &start
		req.RequestedEndDate = &end
		req.CalendarEventRef = eventRef
		req.CalendarStatus = model.CalendarStatusPending
		req.Status = model.RequestStatusTentative
	})
}

func (f *fakeStore) UpdateConfirmed(_ context.Context, id int64, start, end time.Time) error {
	return f.update(id, func(req *model.TrainingRequest) {
		req.ConfirmedStartDate = &start
		req.ConfirmedEndDate = &end
		req.CalendarStatus = model.CalendarStatusConfirmed
		req.Status = model.RequestStatusConfirmed
	})
}

func (f *fakeStore) UpdateRejected(_ context.Context, id int64, reason string) error {
	return f.update(id, func(req *model.TrainingRequest) {
		req.Status = model.RequestStatusRejected
		req.RejectionReason = reason
		req.CalendarStatus = model.CalendarStatusNone
	})
}

func (f *fakeStore) UpdateCompleted(_ context.Context, id int64) error {
	return f.update(id, func(req *model.TrainingRequest) {
		req.Status = model.RequestStatusCompleted
	})
}

func (f *fakeStore) MarkNotificationSent(_ context.Context, id int64) error {
	return f.update(id, func(req *model.TrainingRequest) {
		req.ConfirmationNotificationSent = true
	})
}

func (f *fakeStore) NextReferenceSeq(_ context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return f.seq, nil
}

func (f *fakeStore) update(id int64, fn func(*model.TrainingRequest)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.byID[id]
	if !ok {
		return errors.New("training request not found")
	}
	fn(req)
	req.UpdatedAt = time.Now()
	return nil
}

// mustGet is a test helper for asserting on persisted state.
func (f *fakeStore) mustGet(id int64) model.TrainingRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.byID[id]
}

// fakeSink records notification sends and can be told to fail.
type fakeSink struct {
	mu            sync.Mutex
	confirmations int
	rejections    int
	failNext      bool
}

func (f *fakeSink) SendConfirmation(context.Context, *model.TrainingRequest, time.Time, time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext {
		f.failNext = false
		return errors.New("smtp down")
	}
	f.confirmations++
	return nil
}

func (f *fakeSink) SendRejection(context.Context, *model.TrainingRequest, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejections++
	return nil
}

func (f *fakeSink) confirmationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirmations
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// deadlineCal writes one slot, then stalls until the caller's deadline
// expires before reporting the partial write, the way the bridge dies on a
// timeout. ClearSlots honors its context.
type deadlineCal struct {
	*calendar.MemoryStore
}

func (d *deadlineCal) WriteTentative(ctx context.Context, technician string, start time.Time, days int, ownerRef, label string) error {
	first := model.Midnight(start)
	d.SetSlot(model.CalendarSlot{
		Technician: technician,
		Date:       first,
		Status:     model.SlotStatusTentative,
		OwnerRef:   ownerRef,
		Label:      label,
	})
	<-ctx.Done()
	return &calendar.PartialWriteError{
		Succeeded: []time.Time{first},
		Failed:    first.AddDate(0, 0, 1),
		Err:       ctx.Err(),
	}
}

func (d *deadlineCal) ClearSlots(ctx context.Context, technician string, dates []time.Time, ownerRef string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.MemoryStore.ClearSlots(ctx, technician, dates, ownerRef)
}

// flakyCal behaves like the memory store but aborts tentative writes after
// failWriteAfter slots, simulating the bridge dying mid-write.
type flakyCal struct {
	*calendar.MemoryStore
	failWriteAfter int
}

func (f *flakyCal) WriteTentative(_ context.Context, technician string, start time.Time, days int, ownerRef, label string) error {
	var written []time.Time
	for i := 0; i < days; i++ {
		date := model.Midnight(start).AddDate(0, 0, i)
		if i >= f.failWriteAfter {
			return &calendar.PartialWriteError{
				Succeeded: written,
				Failed:    date,
				Err:       errors.New("bridge write failed"),
			}
		}
		f.SetSlot(model.CalendarSlot{
			Technician: technician,
			Date:       date,
			Status:     model.SlotStatusTentative,
			OwnerRef:   ownerRef,
			Label:      label,
		})
		written = append(written, date)
	}
	return nil
}
