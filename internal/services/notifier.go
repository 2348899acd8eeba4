package services

import (
	"context"
	"fmt"
	"html"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"dealdesk/internal/models"
)

// DealNotifier is told when a deal is marked won or lost.
type DealNotifier interface {
	DealClosed(ctx context.Context, deal *models.Deal) error
}

type NoopNotifier struct{}

func (NoopNotifier) DealClosed(context.Context, *models.Deal) error { return nil }

// telegramSender is the part of *tgbotapi.BotAPI the notifier uses.
type telegramSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	bot    telegramSender
	chatID int64
}

// NewTelegramNotifier connects to the Bot API with token. apiEndpoint may be
// empty for the public Telegram endpoint.
func NewTelegramNotifier(token, apiEndpoint string, chatID int64) (*TelegramNotifier, error) {
	if apiEndpoint == "" {
		apiEndpoint = tgbotapi.APIEndpoint
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, apiEndpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatID}, nil
}

func (n *TelegramNotifier) DealClosed(_ context.Context, deal *models.Deal) error {
	msg := tgbotapi.NewMessage(n.chatID, dealClosedText(deal))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func dealClosedText(deal *models.Deal) string {
	icon := "✅"
	if deal.Status == models.DealLost {
		icon = "❌"
	}
	return fmt.Sprintf("%s Deal <b>%s</b> marked <b>%s</b>\nValue: %s %s\nOwner: %s",
		icon,
		html.EscapeString(deal.Title),
		deal.Status,
		strconv.FormatFloat(deal.ValueAmount, 'f', 2, 64),
		html.EscapeString(deal.ValueCurrency),
		html.EscapeString(deal.OwnerID),
	)
}
