package bot

import "github.com/UnknownOlympus/numera/internal/session"

// MenuType represents different menu screens in the bot.
type MenuType string

const (
	MenuGuest MenuType = "guest"
	MenuMain  MenuType = "main"
	MenuMore  MenuType = "more"
)

const (
	handlerLogin        = "login"
	handlerGetNumber    = "get_number"
	handlerAutoBuy      = "auto_buy"
	handlerActiveOrders = "active_orders"
	handlerHistory      = "history"
	handlerLanguage     = "language"
	handlerLogout       = "logout"
	handlerBack         = "back"
)

// MenuButton represents a single button in a menu.
type MenuButton struct {
	TextKey string   // i18n key for button text
	Handler string   // Handler identifier
	SubMenu MenuType // If this button opens a submenu

	// ActiveKey replaces TextKey while Active reports true, used for toggles.
	ActiveKey string
	Active    func(*Bot, int64) bool
}

// MenuDefinition represents a complete menu screen.
type MenuDefinition struct {
	Type     MenuType
	TitleKey string // i18n key for menu title (optional, sent as message)
	Buttons  []MenuButton
	Layout   []int // Button layout: [2, 2, 1] means 2+2+1 buttons per row
	HasBack  bool  // Whether to show back button
}

// MenuRegistry holds all menu definitions.
type MenuRegistry struct {
	menus map[MenuType]*MenuDefinition
}

// NewMenuRegistry creates and initializes the menu registry with all menu definitions.
func NewMenuRegistry() *MenuRegistry {
	registry := &MenuRegistry{
		menus: make(map[MenuType]*MenuDefinition),
	}

	registry.menus[MenuGuest] = &MenuDefinition{
		Type:     MenuGuest,
		TitleKey: "general.welcome",
		Layout:   []int{1},
		Buttons: []MenuButton{
			{TextKey: "menu.login", Handler: handlerLogin},
		},
	}

	registry.menus[MenuMain] = &MenuDefinition{
		Type:     MenuMain,
		TitleKey: "general.welcome_back",
		Layout:   []int{1, 1, 2, 1},
		Buttons: []MenuButton{
			{TextKey: "menu.get_number", Handler: handlerGetNumber},
			{
				TextKey:   "menu.auto_buy_off",
				ActiveKey: "menu.auto_buy_on",
				Active:    (*Bot).autoBuyEnabled,
				Handler:   handlerAutoBuy,
			},
			{TextKey: "menu.active_orders", Handler: handlerActiveOrders},
			{TextKey: "menu.history", Handler: handlerHistory},
			{TextKey: "menu.more", SubMenu: MenuMore},
		},
	}

	registry.menus[MenuMore] = &MenuDefinition{
		Type:     MenuMore,
		TitleKey: "more.title",
		Layout:   []int{1, 1},
		HasBack:  true,
		Buttons: []MenuButton{
			{TextKey: "menu.language", Handler: handlerLanguage},
			{TextKey: "menu.logout", Handler: handlerLogout},
		},
	}

	return registry
}

// Get retrieves a menu definition by type.
func (r *MenuRegistry) Get(menuType MenuType) *MenuDefinition {
	return r.menus[menuType]
}

func (b *Bot) autoBuyEnabled(userID int64) bool {
	chat, ok := b.sessions.Get(userID)
	if !ok {
		return false
	}
	return chat.session.AutoBuyStatus().State == session.AutoBuyRetrying
}
