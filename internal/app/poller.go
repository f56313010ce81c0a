package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/machtek/trainsched/internal/calendar"
	"github.com/machtek/trainsched/internal/metrics"
	"github.com/machtek/trainsched/internal/model"
	"github.com/machtek/trainsched/internal/service"
	"go.uber.org/zap"
)

// ConfirmationPoller is the only actor that moves a request from calendar
// pending to confirmed. On a fixed interval it re-reads every pending
// request's slots from the team calendar and, when the office has recolored
// them all to confirmed, hands the request to the scheduler. Per-request
// failures are logged and skipped; one bad entry never stalls the rest of
// the book.
type ConfirmationPoller struct {
	store     service.RequestStore
	cal       calendar.Store
	scheduler *service.RequestScheduler
	logger    *zap.Logger
	collector *metrics.Collector

	interval time.Duration
	workers  int

	stopChan chan struct{}
	done     chan struct{}
}

type PollerConfig struct {
	Interval time.Duration // defaults to 5m
	Workers  int           // bounded concurrency per sweep, defaults to 4
}

func NewConfirmationPoller(store service.RequestStore, cal calendar.Store, scheduler *service.RequestScheduler, logger *zap.Logger, collector *metrics.Collector, cfg PollerConfig) *ConfirmationPoller {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	return &ConfirmationPoller{
		store:     store,
		cal:       cal,
		scheduler: scheduler,
		logger:    logger,
		collector: collector,
		interval:  cfg.Interval,
		workers:   cfg.Workers,
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start launches the sweep loop. The first sweep runs immediately.
func (p *ConfirmationPoller) Start(ctx context.Context) {
	p.logger.Info("starting confirmation poller",
		zap.Duration("interval", p.interval),
		zap.Int("workers", p.workers))

	go p.run(ctx)
}

// Stop asks the loop to exit and waits for the in-flight sweep to finish.
// A request being checked at shutdown completes rather than being cut off
// mid-write.
func (p *ConfirmationPoller) Stop() {
	p.logger.Info("stopping confirmation poller")
	close(p.stopChan)
	<-p.done
}

func (p *ConfirmationPoller) run(ctx context.Context) {
	defer close(p.done)

	p.Sweep(ctx)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			p.Sweep(ctx)
		case <-p.stopChan:
			p.logger.Info("confirmation poller stopped")
			return
		case <-ctx.Done():
			p.logger.Info("confirmation poller cancelled")
			return
		}
	}
}

// Sweep re-checks every request awaiting confirmation, with at most
// `workers` calendar reads in flight at once.
func (p *ConfirmationPoller) Sweep(ctx context.Context) {
	started := time.Now()

	pending, err := p.store.ListPendingConfirmation(ctx)
	if err != nil {
		p.logger.Error("cannot list pending requests, skipping sweep", zap.Error(err))
		return
	}
	if len(pending) == 0 {
		p.collector.RecordSweep(time.Since(started).Seconds(), 0)
		return
	}

	sem := make(chan struct{}, p.workers)
	var wg sync.WaitGroup

	confirmed := 0
	var mu sync.Mutex

	for _, req := range pending {
		wg.Add(1)
		sem <- struct{}{}
		go func(req *model.TrainingRequest) {
			defer wg.Done()
			defer func() { <-sem }()

			if p.checkRequest(ctx, req) {
				mu.Lock()
				confirmed++
				mu.Unlock()
			}
		}(req)
	}
	wg.Wait()

	p.collector.RecordSweep(time.Since(started).Seconds(), len(pending)-confirmed)

	p.logger.Info("confirmation sweep finished",
		zap.Int("pending", len(pending)),
		zap.Int("confirmed", confirmed),
		zap.Duration("took", time.Since(started)))
}

// checkRequest re-reads one request's calendar range and reports whether a
// confirmation was detected and recorded.
func (p *ConfirmationPoller) checkRequest(ctx context.Context, req *model.TrainingRequest) bool {
	if req.RequestedStartDate == nil || req.RequestedEndDate == nil {
		p.logger.Warn("pending request without a date range, skipping",
			zap.String("reference_code", req.ReferenceCode))
		return false
	}

	slots, err := p.cal.ListSlotsInRange(ctx, req.AssignedTechnician, *req.RequestedStartDate, *req.RequestedEndDate)
	if err != nil {
		p.collector.RecordBackendError()
		if errors.Is(err, calendar.ErrUnavailableBackend) {
			p.logger.Warn("calendar unreachable, request stays pending",
				zap.String("reference_code", req.ReferenceCode))
		} else {
			p.logger.Error("cannot re-read calendar range",
				zap.String("reference_code", req.ReferenceCode),
				zap.Error(err))
		}
		return false
	}

	if !rangeConfirmedFor(slots, req.ReferenceCode) {
		return false
	}

	if err := p.scheduler.OnExternalConfirmation(ctx, req.ID, nil, nil); err != nil {
		p.logger.Error("cannot record external confirmation",
			zap.String("reference_code", req.ReferenceCode),
			zap.Error(err))
		return false
	}

	p.collector.RecordConfirmation()
	return true
}

// rangeConfirmedFor reports whether every slot in the range has been flipped
// to confirmed for this request. A slot claimed by someone else means the
// calendar drifted and the range cannot be treated as confirmed; slots the
// office recolored without keeping the label still count as this request's.
func rangeConfirmedFor(slots []model.CalendarSlot, ownRef string) bool {
	if len(slots) == 0 {
		return false
	}
	for _, slot := range slots {
		if slot.Status != model.SlotStatusConfirmed {
			return false
		}
		if slot.OwnerRef != "" && slot.OwnerRef != ownRef {
			return false
		}
	}
	return true
}
