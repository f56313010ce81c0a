package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/machtek/trainsched/internal/model"
	"github.com/sethvargo/go-retry"
)

// HTTPStore talks to the spreadsheet bridge: a small webhook in front of the
// shared team calendar that exposes slot reads and writes as JSON endpoints.
// Transport and 5xx failures surface as ErrUnavailableBackend after a short
// constant-interval retry; the bridge has no transactions, so multi-day
// writes go slot by slot and report partial failures.
type HTTPStore struct {
	baseURL    string
	apiKey     string
	http       *http.Client
	maxRetries uint64
}

type HTTPStoreConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration // per-request; defaults to 10s
	MaxRetries uint64        // per-request; defaults to 2
}

func NewHTTPStore(cfg HTTPStoreConfig) *HTTPStore {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 2
	}
	return &HTTPStore{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		http:       &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}
}

// slotPayload is the wire form of a calendar cell as the bridge reports it.
type slotPayload struct {
	Technician string `json:"technician"`
	Date       string `json:"date"` // YYYY-MM-DD
	Status     string `json:"status"`
	OwnerRef   string `json:"owner_ref,omitempty"`
	Label      string `json:"label,omitempty"`
	Tracked    bool   `json:"tracked"`
}

func (p slotPayload) toModel() (model.CalendarSlot, error) {
	date, err := time.ParseInLocation(time.DateOnly, p.Date, time.UTC)
	if err != nil {
		return model.CalendarSlot{}, fmt.Errorf("parse slot date %q: %w", p.Date, err)
	}
	status := model.SlotStatus(p.Status)
	switch status {
	case model.SlotStatusFree, model.SlotStatusTentative, model.SlotStatusConfirmed, model.SlotStatusBlocked:
	default:
		return model.CalendarSlot{}, fmt.Errorf("unknown slot status %q", p.Status)
	}
	return model.CalendarSlot{
		Technician: p.Technician,
		Date:       date,
		Status:     status,
		OwnerRef:   p.OwnerRef,
		Label:      p.Label,
	}, nil
}

func (s *HTTPStore) ReadSlotStatus(ctx context.Context, technician string, date time.Time) (model.CalendarSlot, error) {
	q := url.Values{}
	q.Set("technician", technician)
	q.Set("date", model.Midnight(date).Format(time.DateOnly))

	var payload slotPayload
	if err := s.get(ctx, "/slot", q, &payload); err != nil {
		return model.CalendarSlot{}, err
	}
	if !payload.Tracked {
		return model.CalendarSlot{}, ErrSlotNotFound
	}
	return payload.toModel()
}

func (s *HTTPStore) ListSlotsInRange(ctx context.Context, technician string, start, end time.Time) ([]model.CalendarSlot, error) {
	q := url.Values{}
	q.Set("technician", technician)
	q.Set("start", model.Midnight(start).Format(time.DateOnly))
	q.Set("end", model.Midnight(end).Format(time.DateOnly))

	var payload struct {
		Slots []slotPayload `json:"slots"`
	}
	if err := s.get(ctx, "/slots", q, &payload); err != nil {
		return nil, err
	}

	slots := make([]model.CalendarSlot, 0, len(payload.Slots))
	for _, p := range payload.Slots {
		if !p.Tracked {
			return nil, ErrSlotNotFound
		}
		slot, err := p.toModel()
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, nil
}

func (s *HTTPStore) WriteTentative(ctx context.Context, technician string, start time.Time, days int, ownerRef, label string) error {
	var written []time.Time
	for i := 0; i < days; i++ {
		date := model.Midnight(start).AddDate(0, 0, i)
		body := map[string]string{
			"technician": technician,
			"date":       date.Format(time.DateOnly),
			"status":     string(model.SlotStatusTentative),
			"owner_ref":  ownerRef,
			"label":      label,
		}
		if err := s.post(ctx, "/slot", body); err != nil {
			return &PartialWriteError{Succeeded: written, Failed: date, Err: err}
		}
		written = append(written, date)
	}
	return nil
}

func (s *HTTPStore) ClearSlots(ctx context.Context, technician string, dates []time.Time, ownerRef string) error {
	for _, date := range dates {
		body := map[string]string{
			"technician": technician,
			"date":       model.Midnight(date).Format(time.DateOnly),
			"owner_ref":  ownerRef,
		}
		if err := s.post(ctx, "/slot/clear", body); err != nil {
			return fmt.Errorf("clear slot %s: %w", date.Format(time.DateOnly), err)
		}
	}
	return nil
}

func (s *HTTPStore) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	return s.do(ctx, http.MethodGet, path+"?"+q.Encode(), nil, out)
}

func (s *HTTPStore) post(ctx context.Context, path string, body interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	return s.do(ctx, http.MethodPost, path, payload, nil)
}

func (s *HTTPStore) do(ctx context.Context, method, path string, body []byte, out interface{}) error {
	backoff := retry.WithMaxRetries(s.maxRetries, retry.NewConstant(500*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}

		req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
		if err != nil {
			return err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if s.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+s.apiKey)
		}

		resp, err := s.http.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: %v", ErrUnavailableBackend, err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			return retry.RetryableError(fmt.Errorf("%w: bridge returned %s", ErrUnavailableBackend, resp.Status))
		case resp.StatusCode != http.StatusOK:
			return fmt.Errorf("bridge returned %s", resp.Status)
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode bridge response: %w", err)
		}
		return nil
	})
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrUnavailableBackend, err)
	}
	return err
}
