package bot

import (
	"context"
	"strings"

	"gopkg.in/telebot.v4"
)

// languageHandler presents the user with a menu to choose their preferred language.
func (b *Bot) languageHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()

	b.metrics.CommandReceived.WithLabelValues("language").Inc()

	menu := &telebot.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data(b.t(timeoutCtx, ctx, "language.button.english"), "language_en")),
		menu.Row(menu.Data(b.t(timeoutCtx, ctx, "language.button.ukrainian"), "language_uk")),
	)

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t(timeoutCtx, ctx, "language.select"), menu)
}

// languageChangeHandler saves the chosen language and resends the current menu in it.
func (b *Bot) languageChangeHandler(ctx telebot.Context) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), quickTimeout)
	defer cancel()

	userID := ctx.Sender().ID
	langCode := strings.TrimPrefix(ctx.Callback().Unique, "language_")
	b.log.DebugContext(timeoutCtx, "User selected language", "language", langCode, "userID", userID)

	if langCode != "en" && langCode != "uk" {
		b.log.Error("Unknown language callback", "data", ctx.Callback().Unique)
		return ctx.Respond(&telebot.CallbackResponse{Text: "Unknown language"})
	}

	if b.languages == nil {
		return ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(langCode, "error.internal")})
	}
	if err := b.languages.SetLanguage(timeoutCtx, userID, langCode); err != nil {
		b.log.ErrorContext(timeoutCtx, "Failed to set user language", "error", err, "userID", userID)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Respond(&telebot.CallbackResponse{Text: b.localizer.Get(langCode, "error.internal")})
	}

	b.log.InfoContext(timeoutCtx, "User changed language", "userID", userID, "language", langCode)
	_ = ctx.Respond(&telebot.CallbackResponse{Text: "✅"})

	menuType := MenuGuest
	if _, ok := b.sessions.Get(userID); ok {
		menuType = b.menus.navStack.Current(userID)
	}
	return b.menus.ShowText(timeoutCtx, ctx, menuType, b.localizer.Get(langCode, "language.changed"))
}
