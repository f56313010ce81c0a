package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
	"github.com/machtek/trainsched/internal/model"
)

// TelegramSink mirrors scheduling outcomes into the office's admin channel
// so the team sees confirmations without opening the calendar.
type TelegramSink struct {
	bot    *bot.Bot
	chatID int64
}

func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	b, err := bot.New(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSink{bot: b, chatID: chatID}, nil
}

func (s *TelegramSink) SendConfirmation(ctx context.Context, req *model.TrainingRequest, start, end time.Time) error {
	text := fmt.Sprintf("✅ %s confirmed\n%s (%s)\n%s to %s, %d days, %s",
		req.ReferenceCode, req.Company, req.ClientName,
		start.Format(time.DateOnly), end.Format(time.DateOnly),
		req.TrainingDays, req.AssignedTechnician)
	return s.sendText(ctx, text)
}

func (s *TelegramSink) SendRejection(ctx context.Context, req *model.TrainingRequest, reason string) error {
	text := fmt.Sprintf("❌ %s rejected\n%s (%s)\nReason: %s",
		req.ReferenceCode, req.Company, req.ClientName, reason)
	return s.sendText(ctx, text)
}

func (s *TelegramSink) sendText(ctx context.Context, text string) error {
	_, err := s.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: s.chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}
