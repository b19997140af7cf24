package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	tele "gopkg.in/telebot.v3"
)

// TelegramSender posts events to the admin chat through a bot. The bot runs
// offline: it only sends and never polls for updates.
type TelegramSender struct {
	bot    *tele.Bot
	chatID tele.ChatID
}

func NewTelegramSender(token string, chatID int64, timeout time.Duration) (*TelegramSender, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:   token,
		Offline: true,
		Client:  &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramSender{bot: b, chatID: tele.ChatID(chatID)}, nil
}

func (s *TelegramSender) Name() string { return "telegram" }

func (s *TelegramSender) Send(ctx context.Context, event Event) error {
	text := "✅ " + event.Subject() + "\n\n" + event.Text()
	return runWithContext(ctx, func() error {
		_, err := s.bot.Send(s.chatID, text)
		return err
	})
}
