package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/machtek/trainsched/internal/calendar"
	"github.com/machtek/trainsched/internal/model"
	"go.uber.org/zap"
)

// Suggester searches forward from a rejected start date for the next fully
// free windows. Every call recomputes from a fresh calendar read; nothing is
// cached between calls.
type Suggester struct {
	checker *AvailabilityChecker
	logger  *zap.Logger
}

func NewSuggester(checker *AvailabilityChecker, logger *zap.Logger) *Suggester {
	return &Suggester{checker: checker, logger: logger}
}

// Suggest scans day by day from requestedStart+1 up to horizonDays ahead and
// collects start dates whose `days`-day window is fully available, earliest
// first. It stops at maxSuggestions or when the horizon (either the scan
// horizon or the calendar's own tracked horizon) runs out, returning
// whatever was found, possibly nothing. Never an error for a dry horizon.
func (s *Suggester) Suggest(ctx context.Context, technician string, requestedStart time.Time, days, maxSuggestions, horizonDays int) ([]time.Time, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: training days must be positive, got %d", ErrInvalidRequest, days)
	}
	if maxSuggestions <= 0 || horizonDays <= 0 {
		return nil, nil
	}

	requestedStart = model.Midnight(requestedStart)

	var found []time.Time
	for offset := 1; offset <= horizonDays; offset++ {
		candidate := requestedStart.AddDate(0, 0, offset)

		result, err := s.checker.Check(ctx, technician, candidate, days, "")
		if errors.Is(err, calendar.ErrSlotNotFound) {
			// Ran off the edge of the tracked calendar; nothing further
			// ahead can be validated.
			break
		}
		if err != nil {
			return nil, err
		}
		if result.Available {
			found = append(found, candidate)
			if len(found) == maxSuggestions {
				break
			}
		}
	}

	s.logger.Debug("alternative dates computed",
		zap.String("technician", technician),
		zap.String("requested_start", requestedStart.Format(time.DateOnly)),
		zap.Int("days", days),
		zap.Int("found", len(found)))

	return found, nil
}
