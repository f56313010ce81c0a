package service

import (
	"context"
	"fmt"
	"time"

	"github.com/machtek/trainsched/internal/calendar"
	"github.com/machtek/trainsched/internal/model"
	"go.uber.org/zap"
)

// Availability is the outcome of a range check. Conflicts are in calendar
// order and carry enough context to tell the client why a date is blocked.
type Availability struct {
	Available bool
	Conflicts []Conflict
}

// AvailabilityChecker classifies a requested date range against the team
// calendar. It is stateless and knows nothing about wall-clock "now";
// past-date policy belongs to the scheduler.
type AvailabilityChecker struct {
	cal    calendar.Store
	logger *zap.Logger
}

func NewAvailabilityChecker(cal calendar.Store, logger *zap.Logger) *AvailabilityChecker {
	return &AvailabilityChecker{cal: cal, logger: logger}
}

// Check inspects the `days` dates starting at start for the technician.
// ownRef identifies the request doing the asking: its own tentative slots
// are not conflicts, so a retry after a partial flow never trips over
// itself. Pass ownRef "" for an anonymous check.
func (c *AvailabilityChecker) Check(ctx context.Context, technician string, start time.Time, days int, ownRef string) (Availability, error) {
	if days <= 0 {
		return Availability{}, fmt.Errorf("%w: training days must be positive, got %d", ErrInvalidRequest, days)
	}

	start = model.Midnight(start)
	end := model.RangeEnd(start, days)

	slots, err := c.cal.ListSlotsInRange(ctx, technician, start, end)
	if err != nil {
		return Availability{}, fmt.Errorf("list slots %s..%s for %s: %w",
			start.Format(time.DateOnly), end.Format(time.DateOnly), technician, err)
	}

	var conflicts []Conflict
	for _, slot := range slots {
		if !slot.ConflictsWith(ownRef) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			Date:    slot.Date,
			Status:  string(slot.Status),
			Owner:   slot.OwnerRef,
			Summary: slot.Summary(),
		})
	}

	if len(conflicts) > 0 {
		c.logger.Debug("range has conflicts",
			zap.String("technician", technician),
			zap.String("start", start.Format(time.DateOnly)),
			zap.Int("days", days),
			zap.Int("conflicts", len(conflicts)))
	}

	return Availability{Available: len(conflicts) == 0, Conflicts: conflicts}, nil
}
