package bot

import (
	"context"

	"github.com/UnknownOlympus/numera/internal/session"
	"gopkg.in/telebot.v4"
)

// chatNotifier delivers the background events of one chat session.
type chatNotifier struct {
	bot          *Bot
	chatID       int64
	telegramLang string
}

func (n *chatNotifier) Notify(ctx context.Context, event session.Event) {
	b := n.bot
	lang := b.language(ctx, n.chatID, n.telegramLang)
	phone := FormatPhone(event.Order.PhoneNumber)

	var opts []interface{}
	var text string

	switch event.Kind {
	case session.EventAcquired:
		text = b.localizer.GetWithData(lang, "orders.acquired", map[string]any{
			"phone":     phone,
			"remaining": formatRemaining(session.OrderLifetime),
		})
		if keyboard := b.orderKeyboard(lang, event.Order); keyboard != nil {
			opts = append(opts, keyboard)
		}
	case session.EventSMSReceived:
		text = b.localizer.GetWithData(lang, "orders.sms_received", map[string]any{
			"phone": phone,
			"code":  event.Order.SMSCode,
		})
		if keyboard := b.orderKeyboard(lang, event.Order); keyboard != nil {
			opts = append(opts, keyboard)
		}
	case session.EventProviderCancelled:
		text = b.localizer.GetWithData(lang, "orders.provider_cancelled", map[string]any{"phone": phone})
	case session.EventExpired:
		text = b.localizer.GetWithData(lang, "orders.expired", map[string]any{"phone": phone})
	case session.EventAutoDismissed:
		text = b.localizer.GetWithData(lang, "orders.auto_dismissed", map[string]any{"phone": phone})
	case session.EventAutoCancelled:
		text = b.localizer.GetWithData(lang, "orders.auto_cancelled", map[string]any{"phone": phone})
	case session.EventAutoBuyStopped:
		text = b.autoBuyStoppedText(lang, event)
		// the toggle button changes its label
		opts = append(opts, b.menus.Build(lang, MenuMain, n.chatID))
	default:
		b.log.WarnContext(ctx, "Unknown session event", "kind", event.Kind, "chat", n.chatID)
		return
	}

	b.notify(ctx, n.chatID, text, opts...)
}

func (b *Bot) autoBuyStoppedText(lang string, event session.Event) string {
	switch event.AutoBuy.Reason {
	case session.StopAcquired:
		return b.localizer.Get(lang, "autobuy.stopped_acquired")
	case session.StopLimit:
		return b.localizer.GetWithData(lang, "autobuy.stopped_limit", map[string]any{"max": event.AutoBuy.MaxAttempts})
	case session.StopError:
		return b.localizer.GetWithData(lang, "autobuy.stopped_error", map[string]any{
			"error": b.errorText(lang, event.Err),
		})
	default:
		return b.localizer.Get(lang, "autobuy.disabled")
	}
}

// notify sends a message to a chat outside of an update.
func (b *Bot) notify(ctx context.Context, chatID int64, text string, opts ...interface{}) {
	if _, err := b.sender.Send(telebot.ChatID(chatID), text, opts...); err != nil {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		b.log.ErrorContext(ctx, "Failed to send notification", "chat", chatID, "error", err)
		return
	}
	b.metrics.SentMessages.WithLabelValues("notify").Inc()
}
