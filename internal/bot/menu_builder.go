package bot

import (
	"context"

	"gopkg.in/telebot.v4"
)

// MenuBuilder handles dynamic menu generation with i18n support.
type MenuBuilder struct {
	bot      *Bot
	registry *MenuRegistry
	navStack *NavigationStack
}

// NewMenuBuilder creates a new menu builder instance.
func NewMenuBuilder(bot *Bot) *MenuBuilder {
	return &MenuBuilder{
		bot:      bot,
		registry: NewMenuRegistry(),
		navStack: NewNavigationStack(),
	}
}

// Build generates a telebot.ReplyMarkup from a menu definition.
func (mb *MenuBuilder) Build(lang string, menuType MenuType, userID int64) *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true}

	menuDef := mb.registry.Get(menuType)
	if menuDef == nil {
		mb.bot.log.Error("Menu definition not found", "menuType", menuType)
		menu.Reply(menu.Row(menu.Text(mb.bot.localizer.Get(lang, "menu.back"))))
		return menu
	}

	rows := mb.buildRows(lang, menu, menuDef, userID)
	if menuDef.HasBack {
		rows = append(rows, menu.Row(menu.Text(mb.bot.localizer.Get(lang, "menu.back"))))
	}

	menu.Reply(rows...)
	return menu
}

// buildRows creates telebot.Row slices based on button layout. Buttons beyond the layout get a row each.
func (mb *MenuBuilder) buildRows(
	lang string,
	menu *telebot.ReplyMarkup,
	menuDef *MenuDefinition,
	userID int64,
) []telebot.Row {
	rows := make([]telebot.Row, 0, len(menuDef.Layout))
	buttons := menuDef.Buttons
	buttonIdx := 0

	for _, rowSize := range menuDef.Layout {
		if buttonIdx >= len(buttons) {
			break
		}

		rowButtons := make([]telebot.Btn, 0, rowSize)
		for i := 0; i < rowSize && buttonIdx < len(buttons); i++ {
			rowButtons = append(rowButtons, menu.Text(mb.buttonText(lang, buttons[buttonIdx], userID)))
			buttonIdx++
		}
		rows = append(rows, menu.Row(rowButtons...))
	}

	for ; buttonIdx < len(buttons); buttonIdx++ {
		rows = append(rows, menu.Row(menu.Text(mb.buttonText(lang, buttons[buttonIdx], userID))))
	}

	return rows
}

func (mb *MenuBuilder) buttonText(lang string, btn MenuButton, userID int64) string {
	if btn.Active != nil && btn.ActiveKey != "" && btn.Active(mb.bot, userID) {
		return mb.bot.localizer.Get(lang, btn.ActiveKey)
	}
	return mb.bot.localizer.Get(lang, btn.TextKey)
}

// ShowMenu sends a menu to the user with optional message.
// If trackNavigation is false, the menu won't be added to navigation history (used for back navigation).
func (mb *MenuBuilder) ShowMenu(
	ctx context.Context,
	tCtx telebot.Context,
	menuType MenuType,
	messageKey string,
	trackNavigation bool,
) error {
	userID := tCtx.Sender().ID
	lang := mb.bot.getUserLanguage(ctx, tCtx)
	menu := mb.Build(lang, menuType, userID)

	if trackNavigation {
		mb.navStack.Push(userID, menuType)
	}

	if messageKey == "" {
		messageKey = "general.welcome_back"
		if menuDef := mb.registry.Get(menuType); menuDef != nil && menuDef.TitleKey != "" {
			messageKey = menuDef.TitleKey
		}
	}

	mb.bot.metrics.SentMessages.WithLabelValues("text").Inc()
	return tCtx.Send(mb.bot.localizer.Get(lang, messageKey), menu)
}

// ShowText sends a ready message together with a menu, without touching the navigation history.
func (mb *MenuBuilder) ShowText(ctx context.Context, tCtx telebot.Context, menuType MenuType, text string) error {
	menu := mb.Build(mb.bot.getUserLanguage(ctx, tCtx), menuType, tCtx.Sender().ID)

	mb.bot.metrics.SentMessages.WithLabelValues("text").Inc()
	return tCtx.Send(text, menu)
}

// NavigateBack returns user to previous menu.
func (mb *MenuBuilder) NavigateBack(ctx context.Context, tCtx telebot.Context) error {
	return mb.ShowMenu(ctx, tCtx, mb.navStack.Back(tCtx.Sender().ID), "", false)
}

// ResolveHandlerFromButtonText looks up which handler to call based on button text.
// Both the user language and the other supported languages are tried, so an old keyboard keeps working
// after a language switch.
func (mb *MenuBuilder) ResolveHandlerFromButtonText(lang, buttonText string) (string, MenuType) {
	languages := []string{lang}
	for _, other := range mb.bot.localizer.Languages() {
		if other != lang {
			languages = append(languages, other)
		}
	}

	for _, checkLang := range languages {
		if buttonText == mb.bot.localizer.Get(checkLang, "menu.back") {
			return handlerBack, ""
		}

		for _, menuType := range []MenuType{MenuGuest, MenuMain, MenuMore} {
			menuDef := mb.registry.Get(menuType)
			if menuDef == nil {
				continue
			}

			for _, btn := range menuDef.Buttons {
				if buttonText == mb.bot.localizer.Get(checkLang, btn.TextKey) ||
					(btn.ActiveKey != "" && buttonText == mb.bot.localizer.Get(checkLang, btn.ActiveKey)) {
					return btn.Handler, btn.SubMenu
				}
			}
		}
	}

	return "", ""
}
