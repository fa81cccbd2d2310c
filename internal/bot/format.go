package bot

import (
	"errors"
	"fmt"
	"time"

	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/provider"
	"github.com/UnknownOlympus/numera/internal/session"
	"gopkg.in/telebot.v4"
)

// historyLimit is the number of orders shown by the history button.
const historyLimit = 10

// FormatPhone renders a provider number with its two digit country code split off: "447700900123" -> "+44 7700900123".
func FormatPhone(phone string) string {
	if len(phone) < 3 { //nolint:mnd // country code plus at least one digit
		return phone
	}
	return "+" + phone[:2] + " " + phone[2:]
}

// formatRemaining renders a countdown as MM:SS.
func formatRemaining(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	seconds := int(remaining.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60) //nolint:mnd // seconds per minute
}

func (b *Bot) statusText(lang string, status models.OrderStatus) string {
	return b.localizer.Get(lang, "status."+string(status))
}

// orderText renders a tracked order for the active orders list.
func (b *Bot) orderText(lang string, view session.OrderView) string {
	data := map[string]any{
		"icon":      view.Urgency.Icon(),
		"phone":     FormatPhone(view.Order.PhoneNumber),
		"status":    b.statusText(lang, view.Order.Status),
		"remaining": formatRemaining(view.Remaining),
		"code":      view.Order.SMSCode,
	}

	if view.Order.Status == models.StatusCompleted {
		return b.localizer.GetWithData(lang, "orders.completed_item", data)
	}
	return b.localizer.GetWithData(lang, "orders.pending_item", data)
}

// orderKeyboard returns the inline actions available for the order, or nil when there are none.
func (b *Bot) orderKeyboard(lang string, order models.Order) *telebot.ReplyMarkup {
	var row []telebot.InlineButton

	switch {
	case order.Status == models.StatusPending:
		row = append(row,
			telebot.InlineButton{
				Unique: btnOrderCheck.Unique,
				Text:   b.localizer.Get(lang, "button.check"),
				Data:   order.OrderID,
			},
			telebot.InlineButton{
				Unique: btnOrderCancel.Unique,
				Text:   b.localizer.Get(lang, "button.cancel"),
				Data:   order.OrderID,
			},
		)
	case order.Status == models.StatusCompleted && !order.Dismissed:
		row = append(row, telebot.InlineButton{
			Unique: btnOrderDismiss.Unique,
			Text:   b.localizer.Get(lang, "button.dismiss"),
			Data:   order.OrderID,
		})
	default:
		return nil
	}

	return &telebot.ReplyMarkup{InlineKeyboard: [][]telebot.InlineButton{row}}
}

// errorText turns an order operation failure into a user message.
func (b *Bot) errorText(lang string, err error) string {
	var providerErr *provider.Error

	switch {
	case errors.Is(err, models.ErrNoNumbers):
		return b.localizer.Get(lang, "orders.no_numbers")
	case errors.As(err, &providerErr):
		return b.localizer.GetWithData(lang, "orders.provider_error", map[string]any{"raw": providerErr.Raw})
	case errors.Is(err, session.ErrBusy):
		return b.localizer.Get(lang, "orders.busy")
	case errors.Is(err, models.ErrNotFound):
		return b.localizer.Get(lang, "orders.not_found")
	case errors.Is(err, models.ErrInvalidTransition):
		return b.localizer.Get(lang, "orders.invalid_transition")
	case errors.Is(err, models.ErrInactiveEmployee), errors.Is(err, session.ErrClosed):
		return b.localizer.Get(lang, "auth.required")
	default:
		return b.localizer.Get(lang, "error.internal")
	}
}
