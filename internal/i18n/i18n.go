// Package i18n translates bot messages. Translations are flat key/value JSON files
// embedded from locales/, one per language.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// DefaultLanguage is used for unknown languages and missing keys.
const DefaultLanguage = "en"

//go:embed locales/*.json
var localesFS embed.FS

// Localizer handles translation for different languages.
type Localizer struct {
	translations map[string]map[string]string
	languages    []string
	mu           sync.RWMutex
}

// NewLocalizer creates a new Localizer instance and loads all translations.
func NewLocalizer() (*Localizer, error) {
	locale := &Localizer{
		translations: make(map[string]map[string]string),
	}

	for _, lang := range []string{"en", "uk"} {
		if err := locale.loadLanguage(lang); err != nil {
			return nil, fmt.Errorf("failed to load language %s: %w", lang, err)
		}
	}

	return locale, nil
}

func (l *Localizer) loadLanguage(lang string) error {
	filename := fmt.Sprintf("locales/%s.json", lang)
	data, err := localesFS.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read locale file %s: %w", filename, err)
	}

	var translations map[string]string
	if err = json.Unmarshal(data, &translations); err != nil {
		return fmt.Errorf("failed to unmarshal locale file %s: %w", filename, err)
	}

	l.mu.Lock()
	l.translations[lang] = translations
	l.languages = append(l.languages, lang)
	l.mu.Unlock()

	return nil
}

// Languages returns the loaded language codes.
func (l *Localizer) Languages() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.languages)
}

// Get returns the translation for key in lang, falling back to English and then to the key itself.
func (l *Localizer) Get(lang, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if translation, ok := l.translations[lang][key]; ok {
		return translation
	}
	if translation, ok := l.translations[DefaultLanguage][key]; ok {
		return translation
	}
	return key
}

// GetWithData returns the translation with {placeholder} values substituted.
// Example: GetWithData("en", "auth.success", map[string]any{"name": "John"}).
func (l *Localizer) GetWithData(lang, key string, data map[string]any) string {
	translation := l.Get(lang, key)

	for k, v := range data {
		translation = strings.ReplaceAll(translation, "{"+k+"}", fmt.Sprint(v))
	}

	return translation
}

// NormalizeLanguageCode maps a Telegram language code such as "en-US" to a supported language.
func NormalizeLanguageCode(telegramLang string) string {
	const langCodeShortLength = 2
	if len(telegramLang) < langCodeShortLength {
		return DefaultLanguage
	}

	switch strings.ToLower(telegramLang[:langCodeShortLength]) {
	case "uk", "ua":
		return "uk"
	default:
		return DefaultLanguage
	}
}
