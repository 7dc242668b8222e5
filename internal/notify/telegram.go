package notify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"socialpay/internal/models"
)

type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// Telegram posts successful payments to a merchant chat.
type Telegram struct {
	bot    sender
	chat   tele.ChatID
	logger *zap.Logger
}

// NewTelegram creates an offline bot: it only sends, never polls.
func NewTelegram(token string, chatID int64, logger *zap.Logger) (*Telegram, error) {
	tb, err := tele.NewBot(tele.Settings{
		Token:   token,
		Offline: true,
		OnError: func(err error, c tele.Context) {
			logger.Error("Telegram error", zap.Error(err))
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}
	return &Telegram{bot: tb, chat: tele.ChatID(chatID), logger: logger}, nil
}

func (t *Telegram) NotifySuccess(ctx context.Context, attempt *models.CheckoutAttempt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.bot.Send(t.chat, successMessage(attempt), tele.ModeHTML); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	t.logger.Debug("Merchant notified", zap.String("transaction_id", attempt.TransactionID))
	return nil
}

func successMessage(a *models.CheckoutAttempt) string {
	var b strings.Builder
	b.WriteString("✅ <b>Payment received</b>\n")
	fmt.Fprintf(&b, "Amount: %s ETB\n", a.Amount)
	if a.TipAmount != "" {
		fmt.Fprintf(&b, "Tip: %s ETB\n", a.TipAmount)
	}
	fmt.Fprintf(&b, "Method: %s\n", a.Medium)
	if a.Reference != "" {
		fmt.Fprintf(&b, "Reference: <code>%s</code>\n", a.Reference)
	}
	fmt.Fprintf(&b, "Transaction: <code>%s</code>", a.TransactionID)
	return b.String()
}
