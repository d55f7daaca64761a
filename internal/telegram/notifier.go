// Package telegram pushes workflow notices to a staff chat, so
// approvers hear about urgent mail without watching the dashboard.
package telegram

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"mailroom/backend/internal/models"
)

// Notifier sends one-way notices to a configured chat.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewNotifier authenticates the bot and returns a notifier bound to
// the given chat.
func NewNotifier(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("authenticating telegram bot: %w", err)
	}
	log.Printf("INFO: Telegram notifier authorized as %s", bot.Self.UserName)

	return &Notifier{bot: bot, chatID: chatID}, nil
}

// Publish forwards noteworthy workflow events to the chat. Delivery is
// best-effort and must never slow a transition, so it runs detached.
func (n *Notifier) Publish(evt models.WorkflowEvent) {
	var text string
	switch {
	case evt.Kind == models.EventKindIngested && evt.Priority == models.PriorityHigh:
		text = fmt.Sprintf("🔥 High priority mail #%d: %s", evt.MessageID, evt.Subject)
	case evt.Status == models.StatusInReview:
		text = fmt.Sprintf("📝 Message #%d awaiting review: %s", evt.MessageID, evt.Subject)
	case evt.Status == models.StatusSent:
		text = fmt.Sprintf("📤 Message #%d sent: %s", evt.MessageID, evt.Subject)
	default:
		return
	}

	go func() {
		if _, err := n.bot.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
			log.Printf("ERROR: Telegram notify failed: %v", err)
		}
	}()
}
