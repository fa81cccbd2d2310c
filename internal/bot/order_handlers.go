package bot

import (
	"context"
	"errors"
	"slices"

	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/provider"
	"github.com/UnknownOlympus/numera/internal/session"
	"gopkg.in/telebot.v4"
)

// chat returns the session of the sender. Handlers behind AuthMiddleware can rely on it.
func (b *Bot) chat(ctx telebot.Context) (*chatSession, error) {
	chat, ok := b.sessions.Get(ctx.Sender().ID)
	if !ok {
		return nil, session.ErrClosed
	}
	return chat, nil
}

// getNumberHandler rents a number right away.
func (b *Bot) getNumberHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), providerTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues("get_number").Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)

	chat, err := b.chat(ctx)
	if err != nil {
		return b.requireLogin(timeoutCtx, ctx)
	}

	order, err := chat.session.RequestNumber(timeoutCtx)
	if err != nil {
		return b.replyOrderError(timeoutCtx, ctx, lang, "request", err)
	}

	b.log.InfoContext(timeoutCtx, "Employee rented a number", "employee", chat.employee.ID, "order", order.OrderID)
	text := b.localizer.GetWithData(lang, "orders.acquired", map[string]any{
		"phone":     FormatPhone(order.PhoneNumber),
		"remaining": formatRemaining(session.OrderLifetime),
	})

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(text, b.orderKeyboard(lang, order))
}

// autoBuyHandler toggles auto-buy. The attempts report back through the chat notifier.
func (b *Bot) autoBuyHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), providerTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues("auto_buy").Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)
	userID := ctx.Sender().ID

	chat, err := b.chat(ctx)
	if err != nil {
		return b.requireLogin(timeoutCtx, ctx)
	}

	if chat.session.AutoBuyStatus().State == session.AutoBuyRetrying {
		if _, err = chat.session.ToggleAutoBuy(timeoutCtx); err != nil {
			return b.replyOrderError(timeoutCtx, ctx, lang, "auto_buy", err)
		}
		return b.menus.ShowText(timeoutCtx, ctx, MenuMain, b.localizer.Get(lang, "autobuy.disabled"))
	}

	// announce first, the first attempt runs inside the toggle and notifies on its own
	started := b.localizer.GetWithData(lang, "autobuy.started", map[string]any{"max": session.AutoBuyMaxAttempts})
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	if err = ctx.Send(started, b.menus.Build(lang, MenuMain, userID)); err != nil {
		b.log.WarnContext(timeoutCtx, "Failed to announce auto-buy", "user", userID, "error", err)
	}

	if _, err = chat.session.ToggleAutoBuy(timeoutCtx); err != nil {
		return b.replyOrderError(timeoutCtx, ctx, lang, "auto_buy", err)
	}
	return nil
}

// activeOrdersHandler sends every tracked order as its own message with inline actions.
func (b *Bot) activeOrdersHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues("active_orders").Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)

	chat, err := b.chat(ctx)
	if err != nil {
		return b.requireLogin(timeoutCtx, ctx)
	}

	views := chat.session.Orders()
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	if len(views) == 0 {
		return ctx.Send(b.localizer.Get(lang, "orders.none_active"))
	}

	if err = ctx.Send(b.localizer.Get(lang, "orders.active_title")); err != nil {
		return err
	}
	for _, view := range views {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		if err = ctx.Send(b.orderText(lang, view), b.orderKeyboard(lang, view.Order)); err != nil {
			return err
		}
	}
	return nil
}

// historyHandler lists the employee's latest orders of any status.
func (b *Bot) historyHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues("history").Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)

	chat, err := b.chat(ctx)
	if err != nil {
		return b.requireLogin(timeoutCtx, ctx)
	}

	orders, err := b.orders.ListByEmployee(timeoutCtx, chat.employee.ID)
	if err != nil {
		b.log.ErrorContext(timeoutCtx, "Failed to get order history", "employee", chat.employee.ID, "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.localizer.Get(lang, "error.internal"))
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	if len(orders) == 0 {
		return ctx.Send(b.localizer.Get(lang, "orders.history_empty"))
	}
	return ctx.Send(b.historyText(lang, orders))
}

func (b *Bot) historyText(lang string, orders []models.Order) string {
	orders = slices.Clone(orders)
	slices.SortStableFunc(orders, func(x, y models.Order) int {
		return y.CreatedAt.Compare(x.CreatedAt)
	})
	if len(orders) > historyLimit {
		orders = orders[:historyLimit]
	}

	text := b.localizer.Get(lang, "orders.history_title")
	for _, order := range orders {
		text += "\n" + b.localizer.GetWithData(lang, "orders.history_item", map[string]any{
			"date":   order.Date,
			"time":   order.Time,
			"phone":  FormatPhone(order.PhoneNumber),
			"status": b.statusText(lang, order.Status),
		})
	}
	return text
}

// checkOrderHandler polls one order on demand.
func (b *Bot) checkOrderHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), providerTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues("check_sms").Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)

	chat, err := b.chat(ctx)
	if err != nil {
		return b.requireLogin(timeoutCtx, ctx)
	}

	order, err := chat.session.Check(timeoutCtx, ctx.Callback().Data)
	if err != nil {
		return b.replyOrderError(timeoutCtx, ctx, lang, "check", err)
	}

	phone := FormatPhone(order.PhoneNumber)
	switch order.Status {
	case models.StatusCompleted:
		_ = ctx.Respond()
		text := b.localizer.GetWithData(lang, "orders.sms_received", map[string]any{"phone": phone, "code": order.SMSCode})
		return b.sendOrEdit(ctx, text, b.orderKeyboard(lang, order))
	case models.StatusCancelled:
		_ = ctx.Respond()
		return b.sendOrEdit(ctx, b.localizer.GetWithData(lang, "orders.provider_cancelled", map[string]any{"phone": phone}))
	default:
		return ctx.Respond(&telebot.CallbackResponse{
			Text: b.localizer.GetWithData(lang, "orders.waiting", map[string]any{"phone": phone}),
		})
	}
}

// cancelOrderHandler releases a pending number.
func (b *Bot) cancelOrderHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), providerTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues("cancel").Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)

	chat, err := b.chat(ctx)
	if err != nil {
		return b.requireLogin(timeoutCtx, ctx)
	}

	order, err := chat.session.Cancel(timeoutCtx, ctx.Callback().Data)
	if err != nil {
		var providerErr *provider.Error
		if errors.As(err, &providerErr) {
			return ctx.Respond(&telebot.CallbackResponse{
				Text:      b.localizer.GetWithData(lang, "orders.cancel_failed", map[string]any{"raw": providerErr.Raw}),
				ShowAlert: true,
			})
		}
		return b.replyOrderError(timeoutCtx, ctx, lang, "cancel", err)
	}

	b.log.InfoContext(timeoutCtx, "Employee cancelled an order", "employee", chat.employee.ID, "order", order.OrderID)
	_ = ctx.Respond()
	return b.sendOrEdit(ctx, FormatPhone(order.PhoneNumber)+"\n"+b.localizer.Get(lang, "orders.cancelled"))
}

// dismissOrderHandler hides a completed order.
func (b *Bot) dismissOrderHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues("dismiss").Inc()
	lang := b.getUserLanguage(timeoutCtx, ctx)

	chat, err := b.chat(ctx)
	if err != nil {
		return b.requireLogin(timeoutCtx, ctx)
	}

	order, err := chat.session.Dismiss(timeoutCtx, ctx.Callback().Data)
	if err != nil {
		return b.replyOrderError(timeoutCtx, ctx, lang, "dismiss", err)
	}

	_ = ctx.Respond()
	text := FormatPhone(order.PhoneNumber) + " · " + order.SMSCode + "\n" + b.localizer.Get(lang, "orders.dismissed")
	return b.sendOrEdit(ctx, text)
}

// replyOrderError answers a failed order action, as a callback alert when it came from an inline button.
func (b *Bot) replyOrderError(ctx context.Context, tCtx telebot.Context, lang, action string, err error) error {
	if !errors.Is(err, models.ErrNoNumbers) && !errors.Is(err, session.ErrBusy) {
		b.log.WarnContext(ctx, "Order action failed", "action", action, "user", tCtx.Sender().ID, "error", err)
	}

	text := b.errorText(lang, err)
	if tCtx.Callback() != nil {
		return tCtx.Respond(&telebot.CallbackResponse{Text: text, ShowAlert: true})
	}

	b.metrics.SentMessages.WithLabelValues("error").Inc()
	return tCtx.Send(text)
}
