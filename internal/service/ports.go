package service

import (
	"context"
	"time"

	"github.com/machtek/trainsched/internal/model"
)

// RequestStore is the persistence port for training requests. Lookups return
// (nil, nil) when nothing matches; each update is a single atomic statement
// changing its field set together.
type RequestStore interface {
	Create(ctx context.Context, req *model.TrainingRequest) error
	GetByID(ctx context.Context, id int64) (*model.TrainingRequest, error)
	GetByReferenceCode(ctx context.Context, code string) (*model.TrainingRequest, error)

	// ListPendingConfirmation returns every request whose calendar status is
	// pending, oldest first. The confirmation poller sweeps over these.
	ListPendingConfirmation(ctx context.Context) ([]*model.TrainingRequest, error)

	// UpdateTentative records selected dates and the calendar event ref,
	// moving the request to tentative / calendar pending.
	UpdateTentative(ctx context.Context, id int64, start, end time.Time, eventRef string) error

	// UpdateConfirmed records confirmed dates and moves the request to
	// confirmed on both status axes.
	UpdateConfirmed(ctx context.Context, id int64, start, end time.Time) error

	UpdateRejected(ctx context.Context, id int64, reason string) error
	UpdateCompleted(ctx context.Context, id int64) error

	// MarkNotificationSent latches the confirmation-notification flag.
	MarkNotificationSent(ctx context.Context, id int64) error

	// NextReferenceSeq draws the next value of the monotonic reference-code
	// sequence.
	NextReferenceSeq(ctx context.Context) (int64, error)
}
