package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/machtek/trainsched/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	confirmations int
	rejections    int
	err           error
}

func (s *recordingSink) SendConfirmation(context.Context, *model.TrainingRequest, time.Time, time.Time) error {
	s.confirmations++
	return s.err
}

func (s *recordingSink) SendRejection(context.Context, *model.TrainingRequest, string) error {
	s.rejections++
	return s.err
}

func testRequest() *model.TrainingRequest {
	return &model.TrainingRequest{
		ReferenceCode:      "TR-2026-0001",
		ClientName:         "Jordan Reyes",
		Company:            "Acme Machining",
		Email:              "jordan@acme.example",
		Address:            "100 Mill Rd, Dayton",
		AssignedTechnician: "marcus.hale",
		TrainingDays:       3,
	}
}

func TestFanout_AttemptsEverySinkDespiteFailure(t *testing.T) {
	failing := &recordingSink{err: errors.New("smtp down")}
	healthy := &recordingSink{}
	fanout := NewFanoutSink(failing, healthy)

	err := fanout.SendConfirmation(context.Background(), testRequest(),
		model.DateOf(2026, 3, 10), model.DateOf(2026, 3, 12))

	// The failure propagates so the scheduler's notification latch stays
	// open, but the later sink was still attempted.
	require.Error(t, err)
	assert.Equal(t, 1, failing.confirmations)
	assert.Equal(t, 1, healthy.confirmations)
}

func TestFanout_AllHealthyIsNilError(t *testing.T) {
	a, b := &recordingSink{}, &recordingSink{}
	fanout := NewFanoutSink(a, b)

	require.NoError(t, fanout.SendRejection(context.Background(), testRequest(), "client cancelled"))
	assert.Equal(t, 1, a.rejections)
	assert.Equal(t, 1, b.rejections)
}

func TestEmailSink_ConfirmationAddressesClientAndOffice(t *testing.T) {
	var gotTo []string
	var gotMsg string

	sink := NewEmailSink(EmailConfig{
		Host:        "mail.machtek.example",
		Port:        587,
		From:        "scheduling@machtek.example",
		OfficeEmail: "office@machtek.example",
	})
	sink.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		assert.Equal(t, "mail.machtek.example:587", addr)
		assert.Equal(t, "scheduling@machtek.example", from)
		gotTo = to
		gotMsg = string(msg)
		return nil
	}

	err := sink.SendConfirmation(context.Background(), testRequest(),
		model.DateOf(2026, 3, 10), model.DateOf(2026, 3, 12))
	require.NoError(t, err)

	assert.Equal(t, []string{"jordan@acme.example", "office@machtek.example"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: Training TR-2026-0001 confirmed: 2026-03-10 to 2026-03-12")
	assert.Contains(t, gotMsg, "marcus.hale")
	assert.True(t, strings.Contains(gotMsg, "\r\n\r\n"), "headers and body must be separated")
}

func TestEmailSink_SendFailurePropagates(t *testing.T) {
	sink := NewEmailSink(EmailConfig{Host: "mail.machtek.example", Port: 587})
	sink.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := sink.SendRejection(context.Background(), testRequest(), "no technician available")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jordan@acme.example")
}
