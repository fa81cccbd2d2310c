package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/UnknownOlympus/numera/internal/models"
	"gopkg.in/telebot.v4"
)

// loginHandler starts the login dialog by asking for the username.
func (b *Bot) loginHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues("login").Inc()
	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateAwaitingUsername})

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t(timeoutCtx, ctx, "auth.prompt_username"), &telebot.ReplyMarkup{RemoveKeyboard: true})
}

func (b *Bot) usernameHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()

	username := strings.TrimSpace(ctx.Text())
	b.stateManager.Set(ctx.Sender().ID, UserState{WaitingFor: stateAwaitingPassword, Username: username})

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t(timeoutCtx, ctx, "auth.prompt_password"))
}

// passwordHandler verifies the credentials and opens the chat session.
func (b *Bot) passwordHandler(ctx telebot.Context, username string) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), providerTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	password := ctx.Text()

	// the password should not stay in the chat history
	if err := ctx.Delete(); err != nil {
		b.log.DebugContext(timeoutCtx, "Failed to delete password message", "user", userID, "error", err)
	}

	employee, err := b.auth.EmployeeLogin(timeoutCtx, username, password)
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			b.log.InfoContext(timeoutCtx, "Telegram login rejected", "user", userID, "username", username)
			return b.menus.ShowText(timeoutCtx, ctx, MenuGuest, b.t(timeoutCtx, ctx, "auth.failed"))
		}
		b.log.ErrorContext(timeoutCtx, "Failed to log in employee", "user", userID, "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t(timeoutCtx, ctx, "error.internal"))
	}

	if err = b.startSession(timeoutCtx, userID, ctx.Sender().LanguageCode, employee); err != nil {
		b.log.ErrorContext(timeoutCtx, "Failed to start session", "user", userID, "employee", employee.ID, "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t(timeoutCtx, ctx, "error.internal"))
	}

	b.log.InfoContext(timeoutCtx, "Employee logged in via Telegram", "user", userID, "employee", employee.ID)
	b.menus.navStack.Reset(userID)
	b.menus.navStack.Push(userID, MenuMain)

	text := b.tWithData(timeoutCtx, ctx, "auth.success", map[string]any{"name": employee.Name})
	return b.menus.ShowText(timeoutCtx, ctx, MenuMain, text)
}

// logoutHandler closes the chat session. Pending orders stay on the server and come back on the next login.
func (b *Bot) logoutHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	b.metrics.CommandReceived.WithLabelValues("logout").Inc()

	b.stateManager.Clear(userID)
	b.menus.navStack.Reset(userID)
	b.endSession(userID)
	b.log.Info("User logged out", "user", userID)

	return b.menus.ShowText(timeoutCtx, ctx, MenuGuest, b.t(timeoutCtx, ctx, "auth.logout"))
}
