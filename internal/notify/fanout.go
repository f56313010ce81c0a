package notify

import (
	"context"
	"time"

	"github.com/machtek/trainsched/internal/model"
	"go.uber.org/multierr"
)

// FanoutSink delivers to every configured sink. Every sink is attempted even
// when an earlier one fails; the combined error keeps the scheduler's
// notification latch open so the next poller sweep retries the whole set.
type FanoutSink struct {
	sinks []Sink
}

func NewFanoutSink(sinks ...Sink) *FanoutSink {
	return &FanoutSink{sinks: sinks}
}

func (s *FanoutSink) SendConfirmation(ctx context.Context, req *model.TrainingRequest, start, end time.Time) error {
	var err error
	for _, sink := range s.sinks {
		err = multierr.Append(err, sink.SendConfirmation(ctx, req, start, end))
	}
	return err
}

func (s *FanoutSink) SendRejection(ctx context.Context, req *model.TrainingRequest, reason string) error {
	var err error
	for _, sink := range s.sinks {
		err = multierr.Append(err, sink.SendRejection(ctx, req, reason))
	}
	return err
}
