package bot

import (
	"context"

	"gopkg.in/telebot.v4"
)

// AuthMiddleware lets the update through only for chats with a logged in employee.
func (b *Bot) AuthMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(ctx telebot.Context) error {
		if _, ok := b.sessions.Get(ctx.Sender().ID); ok {
			return next(ctx)
		}

		timeoutCtx, cancel := context.WithTimeout(context.Background(), quickTimeout)
		defer cancel()

		b.log.Info("Access denied", "username", ctx.Sender().Username, "id", ctx.Sender().ID)
		return b.requireLogin(timeoutCtx, ctx)
	}
}

func (b *Bot) requireLogin(ctx context.Context, tCtx telebot.Context) error {
	text := b.t(ctx, tCtx, "auth.required")

	if tCtx.Callback() != nil {
		return tCtx.Respond(&telebot.CallbackResponse{Text: text, ShowAlert: true})
	}
	return b.menus.ShowText(ctx, tCtx, MenuGuest, text)
}
