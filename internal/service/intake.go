package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/machtek/trainsched/internal/assign"
	"github.com/machtek/trainsched/internal/model"
	"github.com/machtek/trainsched/internal/pricing"
	"go.uber.org/zap"
)

// IntakeService turns a submitted web form into a persisted training
// request: technician assigned by region, quotation computed and frozen,
// reference code drawn from the monotonic sequence. Scheduling starts later,
// when the client picks dates.
type IntakeService struct {
	store    RequestStore
	assigner *assign.Assigner
	logger   *zap.Logger

	now func() time.Time
}

type IntakeInput struct {
	ClientName   string
	Company      string
	Email        string
	Phone        string
	Address      string
	State        string
	TrainingDays int
}

func NewIntakeService(store RequestStore, assigner *assign.Assigner, logger *zap.Logger) *IntakeService {
	return &IntakeService{store: store, assigner: assigner, logger: logger, now: time.Now}
}

// WithClock swaps the wall clock. Test hook.
func (s *IntakeService) WithClock(now func() time.Time) *IntakeService {
	s.now = now
	return s
}

func (s *IntakeService) CreateRequest(ctx context.Context, in IntakeInput) (*model.TrainingRequest, error) {
	if in.TrainingDays <= 0 {
		return nil, fmt.Errorf("%w: training days must be positive, got %d", ErrInvalidRequest, in.TrainingDays)
	}
	if strings.TrimSpace(in.ClientName) == "" {
		return nil, fmt.Errorf("%w: client name is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(in.Email) == "" {
		return nil, fmt.Errorf("%w: email is required", ErrInvalidRequest)
	}

	technician := s.assigner.Assign(in.State)
	quote := pricing.ComputeQuotation(in.State, in.TrainingDays)

	seq, err := s.store.NextReferenceSeq(ctx)
	if err != nil {
		return nil, fmt.Errorf("allocate reference code: %w", err)
	}
	referenceCode := fmt.Sprintf("TR-%d-%04d", s.now().Year(), seq)

	req := &model.TrainingRequest{
		ReferenceCode:      referenceCode,
		ClientName:         strings.TrimSpace(in.ClientName),
		Company:            strings.TrimSpace(in.Company),
		Email:              strings.TrimSpace(in.Email),
		Phone:              strings.TrimSpace(in.Phone),
		Address:            strings.TrimSpace(in.Address),
		State:              strings.ToUpper(strings.TrimSpace(in.State)),
		AssignedTechnician: technician,
		TrainingDays:       in.TrainingDays,
		TrainingPrice:      quote.TrainingPrice,
		TravelCost:         quote.TravelCost,
		TotalPrice:         quote.TotalPrice,
		CalendarStatus:     model.CalendarStatusNone,
		Status:             model.RequestStatusPending,
	}

	if err := s.store.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	s.logger.Info("training request created",
		zap.String("reference_code", req.ReferenceCode),
		zap.String("company", req.Company),
		zap.String("state", req.State),
		zap.String("technician", req.AssignedTechnician),
		zap.Int("training_days", req.TrainingDays),
		zap.Int64("total_price", req.TotalPrice))

	return req, nil
}
