package bot

import (
	"context"

	"gopkg.in/telebot.v4"
)

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	b.log.Info("User started the bot", "id", userID, "username", ctx.Sender().Username)
	b.metrics.CommandReceived.WithLabelValues("start").Inc()

	b.stateManager.Clear(userID)
	b.menus.navStack.Reset(userID)

	if _, ok := b.sessions.Get(userID); ok {
		return b.menus.ShowMenu(timeoutCtx, ctx, MenuMain, "", true)
	}
	return b.menus.ShowMenu(timeoutCtx, ctx, MenuGuest, "", false)
}

// routeTextHandler handles plain text: the answers of the login dialog and the reply keyboard buttons.
func (b *Bot) routeTextHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()

	userID := ctx.Sender().ID

	if state, ok := b.stateManager.Get(userID); ok {
		switch state.WaitingFor {
		case stateAwaitingUsername:
			return b.usernameHandler(ctx)
		case stateAwaitingPassword:
			return b.passwordHandler(ctx, state.Username)
		}
	}

	lang := b.getUserLanguage(timeoutCtx, ctx)
	handler, subMenu := b.menus.ResolveHandlerFromButtonText(lang, ctx.Text())

	if subMenu != "" {
		if _, ok := b.sessions.Get(userID); !ok {
			return b.requireLogin(timeoutCtx, ctx)
		}
		return b.menus.ShowMenu(timeoutCtx, ctx, subMenu, "", true)
	}

	switch handler {
	case handlerLogin:
		return b.loginHandler(ctx)
	case handlerLanguage:
		return b.languageHandler(ctx)
	case handlerBack:
		return b.menus.NavigateBack(timeoutCtx, ctx)
	case handlerGetNumber:
		return b.AuthMiddleware(b.getNumberHandler)(ctx)
	case handlerAutoBuy:
		return b.AuthMiddleware(b.autoBuyHandler)(ctx)
	case handlerActiveOrders:
		return b.AuthMiddleware(b.activeOrdersHandler)(ctx)
	case handlerHistory:
		return b.AuthMiddleware(b.historyHandler)(ctx)
	case handlerLogout:
		return b.AuthMiddleware(b.logoutHandler)(ctx)
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Reply(b.localizer.Get(lang, "general.use_buttons"))
}

// sendOrEdit edits the message behind a callback or sends a new one.
func (b *Bot) sendOrEdit(ctx telebot.Context, text string, opts ...interface{}) error {
	if ctx.Callback() != nil {
		b.metrics.SentMessages.WithLabelValues("edit").Inc()
		return ctx.Edit(text, opts...)
	}
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(text, opts...)
}
