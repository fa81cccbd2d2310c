// Package bot is the employee front end on Telegram. Every logged in chat owns a
// session.Session that polls its orders and drives auto-buy in the background.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/UnknownOlympus/numera/internal/i18n"
	"github.com/UnknownOlympus/numera/internal/metrics"
	"github.com/UnknownOlympus/numera/internal/models"
	"github.com/UnknownOlympus/numera/internal/session"
	"github.com/jonboulle/clockwork"
	"gopkg.in/telebot.v4"
)

const (
	// quickTimeout bounds handlers which only touch the database or redis.
	quickTimeout = 3 * time.Second
	// providerTimeout bounds handlers which call the number provider.
	providerTimeout = 20 * time.Second
)

// OrderService is the order backend used by the bot sessions.
type OrderService interface {
	session.Backend
	ListByEmployee(ctx context.Context, employeeID string) ([]models.Order, error)
}

// Authenticator verifies employee credentials.
type Authenticator interface {
	EmployeeLogin(ctx context.Context, username, password string) (models.Employee, error)
}

// Sender delivers messages outside of an update, *telebot.Bot implements it.
type Sender interface {
	Send(to telebot.Recipient, what interface{}, opts ...interface{}) (*telebot.Message, error)
}

// Bot contains the bot API instance and other information.
type Bot struct {
	bot          *telebot.Bot
	sender       Sender
	log          *slog.Logger
	metrics      *metrics.Metrics
	orders       OrderService
	auth         Authenticator
	languages    LanguageStore
	clock        clockwork.Clock
	stateManager *StateManager
	menus        *MenuBuilder
	sessions     *Sessions
	localizer    *i18n.Localizer

	// sessions run under this context and stop with the bot
	ctx    context.Context
	cancel context.CancelFunc
}

var (
	btnOrderCheck   = telebot.InlineButton{Unique: "order_check"}
	btnOrderCancel  = telebot.InlineButton{Unique: "order_cancel"}
	btnOrderDismiss = telebot.InlineButton{Unique: "order_dismiss"}
)

// NewBot creates a new bot with the given token.
func NewBot(
	log *slog.Logger,
	metrics *metrics.Metrics,
	orders OrderService,
	auth Authenticator,
	languages LanguageStore,
	clock clockwork.Clock,
	token string,
	poller time.Duration,
) (*Bot, error) {
	tb, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", tb.Me.Username)

	botInstance, err := newBot(log, metrics, orders, auth, languages, clock, tb)
	if err != nil {
		return nil, err
	}
	botInstance.bot = tb
	botInstance.registerRoutes()

	return botInstance, nil
}

func newBot(
	log *slog.Logger,
	metrics *metrics.Metrics,
	orders OrderService,
	auth Authenticator,
	languages LanguageStore,
	clock clockwork.Clock,
	sender Sender,
) (*Bot, error) {
	localizer, err := i18n.NewLocalizer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize localizer: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	botInstance := &Bot{
		sender:       sender,
		log:          log.With(slog.String("component", "bot")),
		metrics:      metrics,
		orders:       orders,
		auth:         auth,
		languages:    languages,
		clock:        clock,
		stateManager: NewStateManager(),
		sessions:     NewSessions(),
		localizer:    localizer,
		ctx:          ctx,
		cancel:       cancel,
	}
	botInstance.menus = NewMenuBuilder(botInstance)

	return botInstance, nil
}

// Start launches the bot to listen for updates. It blocks until Stop is called.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop stops polling and closes every chat session.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	if b.bot != nil {
		b.bot.Stop()
	}
	b.cancel()
	b.sessions.CloseAll()
	b.metrics.ActiveBotSessions.Set(0)
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	// Public routes.
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/login", b.loginHandler)
	b.bot.Handle("/language", b.languageHandler)
	b.bot.Handle(telebot.OnText, b.routeTextHandler)

	// Language selection callbacks
	b.bot.Handle("\flanguage_en", b.languageChangeHandler)
	b.bot.Handle("\flanguage_uk", b.languageChangeHandler)

	// Routes that need a logged in chat.
	authorized := b.bot.Group()
	authorized.Use(b.AuthMiddleware)
	authorized.Handle("/logout", b.logoutHandler)
	authorized.Handle(&btnOrderCheck, b.checkOrderHandler)
	authorized.Handle(&btnOrderCancel, b.cancelOrderHandler)
	authorized.Handle(&btnOrderDismiss, b.dismissOrderHandler)
}

// getUserLanguage returns the saved language of the sender, or the one detected from Telegram.
func (b *Bot) getUserLanguage(ctx context.Context, tCtx telebot.Context) string {
	return b.language(ctx, tCtx.Sender().ID, tCtx.Sender().LanguageCode)
}

func (b *Bot) language(ctx context.Context, userID int64, telegramCode string) string {
	detected := i18n.NormalizeLanguageCode(telegramCode)
	if b.languages == nil {
		return detected
	}

	lang, ok, err := b.languages.Language(ctx, userID)
	if err != nil {
		b.log.WarnContext(ctx, "Failed to get user language, using detected", "error", err, "userID", userID)
		return detected
	}
	if !ok {
		return detected
	}
	return lang
}

// t is a shorthand method for getting translations.
func (b *Bot) t(ctx context.Context, tCtx telebot.Context, key string) string {
	return b.localizer.Get(b.getUserLanguage(ctx, tCtx), key)
}

// tWithData is a shorthand method for getting translations with placeholder data.
func (b *Bot) tWithData(ctx context.Context, tCtx telebot.Context, key string, data map[string]any) string {
	return b.localizer.GetWithData(b.getUserLanguage(ctx, tCtx), key, data)
}
