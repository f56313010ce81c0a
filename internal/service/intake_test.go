package service

import (
	"context"
	"testing"
	"time"

	"github.com/machtek/trainsched/internal/assign"
	"github.com/machtek/trainsched/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIntakeFixture(t *testing.T) (*fakeStore, *IntakeService) {
	t.Helper()
	store := newFakeStore()
	svc := NewIntakeService(store, assign.NewAssigner(), testLogger()).
		WithClock(func() time.Time { return model.DateOf(2026, 3, 1) })
	return store, svc
}

func TestCreateRequest(t *testing.T) {
	_, svc := newIntakeFixture(t)

	req, err := svc.CreateRequest(context.Background(), IntakeInput{
		ClientName:   "Jordan Reyes",
		Company:      "Acme Machining",
		Email:        "jordan@acme.example",
		Address:      "100 Mill Rd, Dayton",
		State:        "oh",
		TrainingDays: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, "TR-2026-0001", req.ReferenceCode)
	assert.Equal(t, "OH", req.State)
	assert.Equal(t, "marcus.hale", req.AssignedTechnician)
	assert.Equal(t, model.RequestStatusPending, req.Status)
	assert.Equal(t, model.CalendarStatusNone, req.CalendarStatus)

	// Quotation frozen at intake.
	assert.Equal(t, req.TrainingPrice+req.TravelCost, req.TotalPrice)
	assert.Positive(t, req.TrainingPrice)
}

func TestCreateRequest_ReferenceCodesMonotonic(t *testing.T) {
	_, svc := newIntakeFixture(t)

	first, err := svc.CreateRequest(context.Background(), IntakeInput{
		ClientName: "A", Email: "a@x.example", State: "TX", TrainingDays: 2,
	})
	require.NoError(t, err)
	second, err := svc.CreateRequest(context.Background(), IntakeInput{
		ClientName: "B", Email: "b@x.example", State: "CA", TrainingDays: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, "TR-2026-0001", first.ReferenceCode)
	assert.Equal(t, "TR-2026-0002", second.ReferenceCode)
}

func TestCreateRequest_AssignmentByRegion(t *testing.T) {
	_, svc := newIntakeFixture(t)

	cases := map[string]string{
		"TX": "dmitri.volkov",
		"CA": "elena.cruz",
		"NY": "marcus.hale",
		"ZZ": "marcus.hale", // unknown state falls back to the default
	}
	for state, want := range cases {
		req, err := svc.CreateRequest(context.Background(), IntakeInput{
			ClientName: "C", Email: "c@x.example", State: state, TrainingDays: 1,
		})
		require.NoError(t, err)
		assert.Equal(t, want, req.AssignedTechnician, "state %s", state)
	}
}

func TestCreateRequest_Validation(t *testing.T) {
	_, svc := newIntakeFixture(t)

	cases := []IntakeInput{
		{ClientName: "A", Email: "a@x.example", State: "OH", TrainingDays: 0},
		{ClientName: "A", Email: "a@x.example", State: "OH", TrainingDays: -2},
		{ClientName: "", Email: "a@x.example", State: "OH", TrainingDays: 1},
		{ClientName: "A", Email: "", State: "OH", TrainingDays: 1},
	}
	for _, in := range cases {
		_, err := svc.CreateRequest(context.Background(), in)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	}
}
