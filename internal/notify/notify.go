package notify

import (
	"context"
	"time"

	"github.com/machtek/trainsched/internal/model"
)

// Sink delivers scheduling outcomes to the people involved. The scheduler
// hands over a fully formed request; sinks own addressing and formatting.
// A confirmation send must succeed before the scheduler latches the
// notification flag, so a failed send is retried by the next poller sweep.
type Sink interface {
	SendConfirmation(ctx context.Context, req *model.TrainingRequest, start, end time.Time) error
	SendRejection(ctx context.Context, req *model.TrainingRequest, reason string) error
}
