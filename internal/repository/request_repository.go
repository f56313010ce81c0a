package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/machtek/trainsched/internal/model"
	"github.com/machtek/trainsched/internal/repository/base"
)

const requestColumns = `
	id, reference_code, client_name, company, email, phone, address, state,
	assigned_technician, training_days, training_price, travel_cost, total_price,
	requested_start_date, requested_end_date, confirmed_start_date, confirmed_end_date,
	calendar_status, calendar_event_ref, status, rejection_reason,
	confirmation_notification_sent, created_at, updated_at`

// RequestRepository persists training requests in Postgres. Every update
// statement changes its whole field set in one UPDATE, so a request never
// shows a torn status.
type RequestRepository struct {
	*base.Repository
}

func NewRequestRepository(pool *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{Repository: base.NewRepository(pool)}
}

// Create inserts a new request in its intake state.
func (r *RequestRepository) Create(ctx context.Context, req *model.TrainingRequest) error {
	query := `
		INSERT INTO training_requests (
			reference_code, client_name, company, email, phone, address, state,
			assigned_technician, training_days, training_price, travel_cost, total_price,
			calendar_status, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		req.ReferenceCode,
		req.ClientName,
		req.Company,
		req.Email,
		req.Phone,
		req.Address,
		req.State,
		req.AssignedTechnician,
		req.TrainingDays,
		req.TrainingPrice,
		req.TravelCost,
		req.TotalPrice,
		req.CalendarStatus,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)

	if err != nil {
		return fmt.Errorf("create training request: %w", err)
	}

	return nil
}

// GetByID loads a request by internal id, nil when absent.
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*model.TrainingRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM training_requests WHERE id = $1`
	return r.scanOne(ctx, query, id)
}

// GetByReferenceCode loads a request by its external reference code, nil
// when absent.
func (r *RequestRepository) GetByReferenceCode(ctx context.Context, code string) (*model.TrainingRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM training_requests WHERE reference_code = $1`
	return r.scanOne(ctx, query, code)
}

// ListPendingConfirmation returns all requests waiting for an external
// calendar confirmation, oldest first.
func (r *RequestRepository) ListPendingConfirmation(ctx context.Context) ([]*model.TrainingRequest, error) {
	query := `
		SELECT ` + requestColumns + `
		FROM training_requests
		WHERE calendar_status = 'pending'
		ORDER BY created_at ASC
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pending confirmation: %w", err)
	}
	defer rows.Close()

	var requests []*model.TrainingRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan training request: %w", err)
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// UpdateTentative records the selected range and the calendar event ref in
// one statement.
func (r *RequestRepository) UpdateTentative(ctx context.Context, id int64, start, end time.Time, eventRef string) error {
	query := `
		UPDATE training_requests
		SET requested_start_date = $1,
		    requested_end_date = $2,
		    calendar_event_ref = $3,
		    calendar_status = 'pending',
		    status = 'tentative',
		    updated_at = now()
		WHERE id = $4
	`

	return r.mustAffect(ctx, query, start, end, eventRef, id)
}

// UpdateConfirmed moves both status axes to confirmed with the final dates.
func (r *RequestRepository) UpdateConfirmed(ctx context.Context, id int64, start, end time.Time) error {
	query := `
		UPDATE training_requests
		SET confirmed_start_date = $1,
		    confirmed_end_date = $2,
		    calendar_status = 'confirmed',
		    status = 'confirmed',
		    updated_at = now()
		WHERE id = $3
	`

	return r.mustAffect(ctx, query, start, end, id)
}

// UpdateRejected closes the request with a reason and drops its calendar
// linkage.
func (r *RequestRepository) UpdateRejected(ctx context.Context, id int64, reason string) error {
	query := `
		UPDATE training_requests
		SET status = 'rejected',
		    rejection_reason = $1,
		    calendar_status = 'none',
		    updated_at = now()
		WHERE id = $2
	`

	return r.mustAffect(ctx, query, reason, id)
}

// UpdateCompleted marks a delivered training.
func (r *RequestRepository) UpdateCompleted(ctx context.Context, id int64) error {
	query := `
		UPDATE training_requests
		SET status = 'completed',
		    updated_at = now()
		WHERE id = $1
	`

	return r.mustAffect(ctx, query, id)
}

// MarkNotificationSent latches the confirmation-notification flag.
func (r *RequestRepository) MarkNotificationSent(ctx context.Context, id int64) error {
	query := `
		UPDATE training_requests
		SET confirmation_notification_sent = TRUE,
		    updated_at = now()
		WHERE id = $1
	`

	return r.mustAffect(ctx, query, id)
}

// NextReferenceSeq draws the next reference-code sequence value.
func (r *RequestRepository) NextReferenceSeq(ctx context.Context) (int64, error) {
	var seq int64
	err := r.QueryRow(ctx, `SELECT nextval('training_request_ref_seq')`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("next reference sequence: %w", err)
	}
	return seq, nil
}

func (r *RequestRepository) mustAffect(ctx context.Context, query string, args ...interface{}) error {
	affected, err := r.ExecAffected(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update training request: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("training request not found")
	}
	return nil
}

func (r *RequestRepository) scanOne(ctx context.Context, query string, arg interface{}) (*model.TrainingRequest, error) {
	req, err := scanRequest(r.QueryRow(ctx, query, arg))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get training request: %w", err)
	}
	return req, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(row rowScanner) (*model.TrainingRequest, error) {
	var req model.TrainingRequest
	err := row.Scan(
		&req.ID,
		&req.ReferenceCode,
		&req.ClientName,
		&req.Company,
		&req.Email,
		&req.Phone,
		&req.Address,
		&req.State,
		&req.AssignedTechnician,
		&req.TrainingDays,
		&req.TrainingPrice,
		&req.TravelCost,
		&req.TotalPrice,
		&req.RequestedStartDate,
		&req.RequestedEndDate,
		&req.ConfirmedStartDate,
		&req.ConfirmedEndDate,
		&req.CalendarStatus,
		&req.CalendarEventRef,
		&req.Status,
		&req.RejectionReason,
		&req.ConfirmationNotificationSent,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}
