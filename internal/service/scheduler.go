package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/machtek/trainsched/internal/calendar"
	"github.com/machtek/trainsched/internal/metrics"
	"github.com/machtek/trainsched/internal/model"
	"github.com/machtek/trainsched/internal/notify"
	"go.uber.org/zap"
)

// RequestScheduler drives a training request through its scheduling
// lifecycle: pending → tentative (on the calendar, awaiting a human) →
// confirmed, with rejection reachable until confirmation. It is the only
// component that decides user-visible outcomes; the checker, suggester and
// calendar store report facts and the scheduler arbitrates.
//
// The team calendar has no transactions and is edited by humans outside this
// process, so the scheduler re-validates availability immediately before
// every tentative write and compensates partial writes by clearing its own
// slots. The check-then-act window that remains is inherent to the store.
type RequestScheduler struct {
	store     RequestStore
	cal       calendar.Store
	checker   *AvailabilityChecker
	suggester *Suggester
	notifier  notify.Sink
	logger    *zap.Logger
	collector *metrics.Collector // optional, nil-safe

	backendTimeout time.Duration
	suggestMax     int
	suggestHorizon int

	now func() time.Time
}

type SchedulerConfig struct {
	BackendTimeout time.Duration // cap on user-facing calendar round-trips
	SuggestMax     int           // alternatives returned per conflict
	SuggestHorizon int           // days of forward scan for alternatives
}

func NewRequestScheduler(store RequestStore, cal calendar.Store, checker *AvailabilityChecker, notifier notify.Sink, logger *zap.Logger, cfg SchedulerConfig) *RequestScheduler {
	if cfg.BackendTimeout == 0 {
		cfg.BackendTimeout = 15 * time.Second
	}
	if cfg.SuggestMax == 0 {
		cfg.SuggestMax = 3
	}
	if cfg.SuggestHorizon == 0 {
		cfg.SuggestHorizon = 60
	}
	return &RequestScheduler{
		store:          store,
		cal:            cal,
		checker:        checker,
		suggester:      NewSuggester(checker, logger),
		notifier:       notifier,
		logger:         logger,
		backendTimeout: cfg.BackendTimeout,
		suggestMax:     cfg.SuggestMax,
		suggestHorizon: cfg.SuggestHorizon,
		now:            time.Now,
	}
}

// WithClock swaps the wall clock. Test hook.
func (s *RequestScheduler) WithClock(now func() time.Time) *RequestScheduler {
	s.now = now
	return s
}

// WithMetrics attaches a metrics collector.
func (s *RequestScheduler) WithMetrics(c *metrics.Collector) *RequestScheduler {
	s.collector = c
	return s
}

// SelectDates validates and books the client's chosen range: the range
// length must match the request's training days, the range must not start in
// the past, and every date must be free right now. On success the range is
// written tentatively to the calendar and the request moves to tentative /
// calendar pending. A conflicting range fails with *ConflictError; callers
// follow up with SuggestAlternatives.
func (s *RequestScheduler) SelectDates(ctx context.Context, referenceCode string, start, end time.Time) error {
	req, err := s.loadByRef(ctx, referenceCode)
	if err != nil {
		return err
	}

	switch req.Status {
	case model.RequestStatusPending, model.RequestStatusDatesSelected, model.RequestStatusTentative:
	default:
		return fmt.Errorf("%w: request %s is %s, not open for date selection",
			ErrInvalidRequest, referenceCode, req.Status)
	}

	start = model.Midnight(start)
	end = model.Midnight(end)

	if end.Before(start) {
		return fmt.Errorf("%w: end date %s before start date %s",
			ErrInvalidRequest, end.Format(time.DateOnly), start.Format(time.DateOnly))
	}
	if got := model.DaysBetween(start, end); got != req.TrainingDays {
		return fmt.Errorf("%w: range covers %d days, request calls for %d",
			ErrInvalidRequest, got, req.TrainingDays)
	}
	if start.Before(model.Midnight(s.now())) {
		return fmt.Errorf("%w: start date %s is in the past",
			ErrInvalidRequest, start.Format(time.DateOnly))
	}

	ctx, cancel := context.WithTimeout(ctx, s.backendTimeout)
	defer cancel()

	// Fresh read right before the write; the calendar may have moved since
	// the client last checked.
	result, err := s.checker.Check(ctx, req.AssignedTechnician, start, req.TrainingDays, req.ReferenceCode)
	if err != nil {
		if errors.Is(err, calendar.ErrUnavailableBackend) {
			s.collector.RecordBackendError()
		}
		return err
	}
	if !result.Available {
		s.collector.RecordConflict()
		return &ConflictError{Technician: req.AssignedTechnician, Conflicts: result.Conflicts}
	}

	eventRef := req.CalendarEventRef
	if eventRef == "" {
		eventRef = uuid.NewString()
	}
	label := fmt.Sprintf("%s %s", req.ReferenceCode, req.Company)

	if err := s.cal.WriteTentative(ctx, req.AssignedTechnician, start, req.TrainingDays, req.ReferenceCode, label); err != nil {
		return s.compensateWrite(ctx, req, err)
	}

	if err := s.store.UpdateTentative(ctx, req.ID, start, end, eventRef); err != nil {
		return fmt.Errorf("persist tentative booking %s: %w", referenceCode, err)
	}

	s.clearSupersededHold(ctx, req, start, end)

	s.logger.Info("dates selected, booking written tentatively",
		zap.String("reference_code", req.ReferenceCode),
		zap.String("technician", req.AssignedTechnician),
		zap.String("start", start.Format(time.DateOnly)),
		zap.String("end", end.Format(time.DateOnly)))

	return nil
}

// clearSupersededHold drops the dates of a previous tentative range that the
// newly selected range no longer covers. Without this a re-selection onto
// disjoint dates would leave the old slots tentative forever, blocking every
// other request. Best-effort: a failed clear is logged and the selection
// stands.
func (s *RequestScheduler) clearSupersededHold(ctx context.Context, req *model.TrainingRequest, start, end time.Time) {
	if req.RequestedStartDate == nil || req.RequestedEndDate == nil {
		return
	}

	var stale []time.Time
	for d := *req.RequestedStartDate; !d.After(*req.RequestedEndDate); d = d.AddDate(0, 0, 1) {
		if d.Before(start) || d.After(end) {
			stale = append(stale, d)
		}
	}
	if len(stale) == 0 {
		return
	}

	if err := s.cal.ClearSlots(ctx, req.AssignedTechnician, stale, req.ReferenceCode); err != nil {
		s.logger.Warn("could not clear superseded tentative slots",
			zap.String("reference_code", req.ReferenceCode),
			zap.String("technician", req.AssignedTechnician),
			zap.Int("stale_slots", len(stale)),
			zap.Error(err))
	}
}

// compensateWrite handles a failed tentative write. A partial write is
// cleared best-effort; when even the clear fails the slots stay behind and
// the office has to reconcile the calendar by hand, which is the loudest
// log line this package emits.
func (s *RequestScheduler) compensateWrite(ctx context.Context, req *model.TrainingRequest, writeErr error) error {
	var partial *calendar.PartialWriteError
	if !errors.As(writeErr, &partial) {
		return fmt.Errorf("write tentative booking %s: %w", req.ReferenceCode, writeErr)
	}

	if len(partial.Succeeded) > 0 {
		// The write may have died on the backend deadline; the compensating
		// clear must not inherit that expired deadline.
		clearCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.backendTimeout)
		defer cancel()

		if clearErr := s.cal.ClearSlots(clearCtx, req.AssignedTechnician, partial.Succeeded, req.ReferenceCode); clearErr != nil {
			s.logger.Error("manual reconciliation required: partial tentative write could not be cleared",
				zap.String("reference_code", req.ReferenceCode),
				zap.String("technician", req.AssignedTechnician),
				zap.Int("orphaned_slots", len(partial.Succeeded)),
				zap.Error(clearErr))
		} else {
			s.logger.Warn("partial tentative write rolled back",
				zap.String("reference_code", req.ReferenceCode),
				zap.Int("cleared_slots", len(partial.Succeeded)))
		}
	}

	return fmt.Errorf("%w: %v", ErrSchedulingFailed, writeErr)
}

// OnExternalConfirmation records that the office confirmed the booking on
// the team calendar. Called only by the confirmation poller. Idempotent: a
// request that is already confirmed with its notification sent is a no-op.
// Nil confirmed dates fall back to the requested range. The notification
// latch is set only after a successful send, so a failed send is retried on
// the next sweep; a crash between send and latch can duplicate a
// notification but never lose one.
func (s *RequestScheduler) OnExternalConfirmation(ctx context.Context, requestID int64, confirmedStart, confirmedEnd *time.Time) error {
	req, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("load request %d: %w", requestID, err)
	}
	if req == nil {
		return fmt.Errorf("%w: id %d", ErrRequestNotFound, requestID)
	}

	if req.Status == model.RequestStatusConfirmed && req.ConfirmationNotificationSent {
		return nil
	}

	start, end, err := s.resolveConfirmedDates(req, confirmedStart, confirmedEnd)
	if err != nil {
		return err
	}

	if req.CalendarStatus != model.CalendarStatusConfirmed {
		switch req.Status {
		case model.RequestStatusTentative, model.RequestStatusDatesSelected:
		default:
			return fmt.Errorf("%w: request %s is %s, cannot confirm",
				ErrInvalidRequest, req.ReferenceCode, req.Status)
		}
		if err := s.store.UpdateConfirmed(ctx, req.ID, start, end); err != nil {
			return fmt.Errorf("persist confirmation %s: %w", req.ReferenceCode, err)
		}
		s.logger.Info("external confirmation recorded",
			zap.String("reference_code", req.ReferenceCode),
			zap.String("technician", req.AssignedTechnician),
			zap.String("start", start.Format(time.DateOnly)),
			zap.String("end", end.Format(time.DateOnly)))
	}

	if !req.ConfirmationNotificationSent {
		if err := s.notifier.SendConfirmation(ctx, req, start, end); err != nil {
			// Latch stays open; the next sweep re-enters here and retries.
			s.logger.Warn("confirmation notification failed, will retry on next sweep",
				zap.String("reference_code", req.ReferenceCode),
				zap.Error(err))
			return nil
		}
		if err := s.store.MarkNotificationSent(ctx, req.ID); err != nil {
			return fmt.Errorf("latch notification flag %s: %w", req.ReferenceCode, err)
		}
	}

	return nil
}

func (s *RequestScheduler) resolveConfirmedDates(req *model.TrainingRequest, confirmedStart, confirmedEnd *time.Time) (time.Time, time.Time, error) {
	if confirmedStart != nil && confirmedEnd != nil {
		return model.Midnight(*confirmedStart), model.Midnight(*confirmedEnd), nil
	}
	if req.ConfirmedStartDate != nil && req.ConfirmedEndDate != nil {
		return *req.ConfirmedStartDate, *req.ConfirmedEndDate, nil
	}
	if req.RequestedStartDate != nil && req.RequestedEndDate != nil {
		return *req.RequestedStartDate, *req.RequestedEndDate, nil
	}
	return time.Time{}, time.Time{}, fmt.Errorf("%w: request %s has no dates to confirm",
		ErrInvalidRequest, req.ReferenceCode)
}

// Reject takes the request off the scheduling track. Tentative calendar
// slots are cleared best-effort; a failed clear is logged and the rejection
// still goes through.
func (s *RequestScheduler) Reject(ctx context.Context, referenceCode, reason string) error {
	req, err := s.loadByRef(ctx, referenceCode)
	if err != nil {
		return err
	}

	switch req.Status {
	case model.RequestStatusDatesSelected, model.RequestStatusTentative:
	default:
		return fmt.Errorf("%w: request %s is %s, cannot reject",
			ErrInvalidRequest, referenceCode, req.Status)
	}

	if req.RequestedStartDate != nil && req.RequestedEndDate != nil {
		var dates []time.Time
		for d := *req.RequestedStartDate; !d.After(*req.RequestedEndDate); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d)
		}
		if err := s.cal.ClearSlots(ctx, req.AssignedTechnician, dates, req.ReferenceCode); err != nil {
			s.logger.Warn("could not clear tentative slots on rejection",
				zap.String("reference_code", req.ReferenceCode),
				zap.Error(err))
		}
	}

	if err := s.store.UpdateRejected(ctx, req.ID, reason); err != nil {
		return fmt.Errorf("persist rejection %s: %w", referenceCode, err)
	}

	if err := s.notifier.SendRejection(ctx, req, reason); err != nil {
		s.logger.Warn("rejection notification failed",
			zap.String("reference_code", req.ReferenceCode),
			zap.Error(err))
	}

	s.logger.Info("request rejected",
		zap.String("reference_code", req.ReferenceCode),
		zap.String("reason", reason))

	return nil
}

// Complete marks a confirmed training as delivered. Downstream bookkeeping;
// scheduling is already over at this point.
func (s *RequestScheduler) Complete(ctx context.Context, referenceCode string) error {
	req, err := s.loadByRef(ctx, referenceCode)
	if err != nil {
		return err
	}
	if req.Status != model.RequestStatusConfirmed {
		return fmt.Errorf("%w: request %s is %s, only confirmed trainings complete",
			ErrInvalidRequest, referenceCode, req.Status)
	}
	if err := s.store.UpdateCompleted(ctx, req.ID); err != nil {
		return fmt.Errorf("persist completion %s: %w", referenceCode, err)
	}
	return nil
}

// CheckAvailability answers the client-facing availability probe for a
// request's own technician. The request's tentative slots do not count as
// conflicts, so a client re-checking right after SelectDates sees its own
// booking as available.
func (s *RequestScheduler) CheckAvailability(ctx context.Context, referenceCode string, start, end time.Time) (Availability, error) {
	req, err := s.loadByRef(ctx, referenceCode)
	if err != nil {
		return Availability{}, err
	}

	start = model.Midnight(start)
	end = model.Midnight(end)
	if end.Before(start) {
		return Availability{}, fmt.Errorf("%w: end date before start date", ErrInvalidRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, s.backendTimeout)
	defer cancel()

	return s.checker.Check(ctx, req.AssignedTechnician, start, model.DaysBetween(start, end), req.ReferenceCode)
}

// SuggestAlternatives proposes the next free windows for a request after a
// conflict, using the configured suggestion count and horizon.
func (s *RequestScheduler) SuggestAlternatives(ctx context.Context, referenceCode string, requestedStart time.Time) ([]time.Time, error) {
	req, err := s.loadByRef(ctx, referenceCode)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.backendTimeout)
	defer cancel()

	return s.suggester.Suggest(ctx, req.AssignedTechnician, requestedStart, req.TrainingDays, s.suggestMax, s.suggestHorizon)
}

func (s *RequestScheduler) loadByRef(ctx context.Context, referenceCode string) (*model.TrainingRequest, error) {
	req, err := s.store.GetByReferenceCode(ctx, referenceCode)
	if err != nil {
		return nil, fmt.Errorf("load request %s: %w", referenceCode, err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, referenceCode)
	}
	return req, nil
}
