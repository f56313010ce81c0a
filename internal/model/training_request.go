package model

import "time"

type RequestStatus string

const (
	RequestStatusPending       RequestStatus = "pending"        // Created, no dates selected yet
	RequestStatusDatesSelected RequestStatus = "dates_selected" // Client picked dates, not yet on the calendar
	RequestStatusTentative     RequestStatus = "tentative"      // Written to the calendar, awaiting confirmation
	RequestStatusConfirmed     RequestStatus = "confirmed"      // Confirmed on the team calendar
	RequestStatusRejected      RequestStatus = "rejected"       // Rejected by the office or the client
	RequestStatusCompleted     RequestStatus = "completed"      // Training delivered
)

type CalendarStatus string

const (
	CalendarStatusNone      CalendarStatus = "none"
	CalendarStatusPending   CalendarStatus = "pending"
	CalendarStatusConfirmed CalendarStatus = "confirmed"
)

type TrainingRequest struct {
	ID                 int64  `json:"id"`
	ReferenceCode      string `json:"reference_code"`
	ClientName         string `json:"client_name"`
	Company            string `json:"company"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	Address            string `json:"address"`
	State              string `json:"state"` // two-letter US state code
	AssignedTechnician string `json:"assigned_technician"`
	TrainingDays       int    `json:"training_days"`

	TrainingPrice int64 `json:"training_price"` // cents
	TravelCost    int64 `json:"travel_cost"`    // cents
	TotalPrice    int64 `json:"total_price"`    // cents

	RequestedStartDate *time.Time `json:"requested_start_date"`
	RequestedEndDate   *time.Time `json:"requested_end_date"`
	ConfirmedStartDate *time.Time `json:"confirmed_start_date"`
	ConfirmedEndDate   *time.Time `json:"confirmed_end_date"`

	CalendarStatus   CalendarStatus `json:"calendar_status"`
	CalendarEventRef string         `json:"calendar_event_ref"`

	Status          RequestStatus `json:"status"`
	RejectionReason string        `json:"rejection_reason"`

	ConfirmationNotificationSent bool `json:"confirmation_notification_sent"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPendingConfirmation reports whether the request sits on the calendar
// waiting for a human to confirm it.
func (r *TrainingRequest) IsPendingConfirmation() bool {
	return r.CalendarStatus == CalendarStatusPending
}

// IsTerminal reports whether the request can no longer move through scheduling.
func (r *TrainingRequest) IsTerminal() bool {
	switch r.Status {
	case RequestStatusConfirmed, RequestStatusRejected, RequestStatusCompleted:
		return true
	}
	return false
}
