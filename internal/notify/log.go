package notify

import (
	"context"
	"time"

	"github.com/machtek/trainsched/internal/model"
	"go.uber.org/zap"
)

// LogSink writes notifications to the log instead of delivering them.
// Development-mode stand-in for the email sink.
type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) SendConfirmation(_ context.Context, req *model.TrainingRequest, start, end time.Time) error {
	s.logger.Info("confirmation notification",
		zap.String("reference_code", req.ReferenceCode),
		zap.String("client", req.ClientName),
		zap.String("technician", req.AssignedTechnician),
		zap.String("start", start.Format(time.DateOnly)),
		zap.String("end", end.Format(time.DateOnly)))
	return nil
}

func (s *LogSink) SendRejection(_ context.Context, req *model.TrainingRequest, reason string) error {
	s.logger.Info("rejection notification",
		zap.String("reference_code", req.ReferenceCode),
		zap.String("client", req.ClientName),
		zap.String("reason", reason))
	return nil
}
