package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/machtek/trainsched/internal/model"
)

// EmailSink sends plain-text confirmation and rejection mails to the client
// and the office over SMTP.
type EmailSink struct {
	addr        string // host:port
	from        string
	officeEmail string
	auth        smtp.Auth

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

type EmailConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	OfficeEmail string
}

func NewEmailSink(cfg EmailConfig) *EmailSink {
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	return &EmailSink{
		addr:        fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		from:        cfg.From,
		officeEmail: cfg.OfficeEmail,
		auth:        auth,
		send:        smtp.SendMail,
	}
}

func (s *EmailSink) SendConfirmation(_ context.Context, req *model.TrainingRequest, start, end time.Time) error {
	subject := fmt.Sprintf("Training %s confirmed: %s to %s",
		req.ReferenceCode, start.Format(time.DateOnly), end.Format(time.DateOnly))
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"your CNC training %s has been confirmed.\n\n"+
			"Dates: %s to %s (%d days)\n"+
			"Technician: %s\n"+
			"Location: %s\n\n"+
			"We look forward to seeing you.\n",
		req.ClientName, req.ReferenceCode,
		start.Format(time.DateOnly), end.Format(time.DateOnly), req.TrainingDays,
		req.AssignedTechnician, req.Address)

	return s.sendMail(req.Email, subject, body)
}

func (s *EmailSink) SendRejection(_ context.Context, req *model.TrainingRequest, reason string) error {
	subject := fmt.Sprintf("Training request %s could not be scheduled", req.ReferenceCode)
	body := fmt.Sprintf(
		"Hello %s,\n\n"+
			"unfortunately your training request %s could not be scheduled.\n\n"+
			"Reason: %s\n\n"+
			"Please contact the office to find new dates.\n",
		req.ClientName, req.ReferenceCode, reason)

	return s.sendMail(req.Email, subject, body)
}

func (s *EmailSink) sendMail(clientEmail, subject, body string) error {
	to := []string{clientEmail}
	if s.officeEmail != "" {
		to = append(to, s.officeEmail)
	}

	msg := strings.Join([]string{
		"From: " + s.from,
		"To: " + strings.Join(to, ", "),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/plain; charset="utf-8"`,
		"",
		body,
	}, "\r\n")

	if err := s.send(s.addr, s.auth, s.from, to, []byte(msg)); err != nil {
		return fmt.Errorf("send mail to %s: %w", clientEmail, err)
	}
	return nil
}
