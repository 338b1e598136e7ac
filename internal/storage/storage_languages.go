package storage

import (
	"fmt"
	"sort"
	"strings"
)

// DefaultWelcome is the welcome template given to newly added languages.
const DefaultWelcome = "Welcome, {user}!"

// Language is a configured onboarding language.
type Language struct {
	Code    string `json:"-"`
	Name    string `json:"name"`
	Emoji   string `json:"emoji"`
	Welcome string `json:"welcome"`
}

// PresetLanguages is the set loaded by PreloadLanguages.
var PresetLanguages = []Language{
	{Code: "en", Name: "English", Emoji: "🗨️", Welcome: "Welcome, {user}!"},
	{Code: "de", Name: "Deutsch", Emoji: "📖", Welcome: "Willkommen, {user}!"},
	{Code: "es", Name: "Español", Emoji: "📚", Welcome: "¡Bienvenido, {user}!"},
	{Code: "fr", Name: "Français", Emoji: "🧠", Welcome: "Bienvenue, {user}!"},
}

// CommonCodes lists translation codes admins usually want, in display order.
var CommonCodes = []Language{
	{Code: "en", Name: "English 🌐"},
	{Code: "de", Name: "Deutsch 🇩🇪"},
	{Code: "fr", Name: "Français 🇫🇷"},
	{Code: "es", Name: "Español 🇪🇸"},
	{Code: "it", Name: "Italiano 🇮🇹"},
	{Code: "nl", Name: "Nederlands 🇳🇱"},
	{Code: "pt", Name: "Português 🇵🇹"},
	{Code: "ru", Name: "Русский 🇷🇺"},
	{Code: "ja", Name: "日本語 🇯🇵"},
	{Code: "zh-cn", Name: "中文 (Simplified) 🇨🇳"},
	{Code: "pl", Name: "Polski 🇵🇱"},
	{Code: "tr", Name: "Türkçe 🇹🇷"},
}

// PreloadLanguages replaces the guild's languages with PresetLanguages.
func (s *Storage) PreloadLanguages(guildID string) error {
	return s.update(guildID, func(r *Record) error {
		r.Languages = make(map[string]Language, len(PresetLanguages))
		for _, l := range PresetLanguages {
			r.Languages[l.Code] = l
		}
		return nil
	})
}

// AddLanguage registers a new language with the default welcome template.
func (s *Storage) AddLanguage(guildID, code, emoji, name string) error {
	code = normalizeCode(code)
	return s.update(guildID, func(r *Record) error {
		if _, ok := r.Languages[code]; ok {
			return fmt.Errorf("%w: %s", ErrLanguageExists, code)
		}
		r.Languages[code] = Language{Name: name, Emoji: emoji, Welcome: DefaultWelcome}
		return nil
	})
}

func (s *Storage) RemoveLanguage(guildID, code string) error {
	code = normalizeCode(code)
	return s.update(guildID, func(r *Record) error {
		if _, ok := r.Languages[code]; !ok {
			return fmt.Errorf("%w: %s", ErrLanguageNotFound, code)
		}
		delete(r.Languages, code)
		return nil
	})
}

// SetWelcome sets a language's welcome template.
func (s *Storage) SetWelcome(guildID, code, message string) error {
	code = normalizeCode(code)
	return s.update(guildID, func(r *Record) error {
		l, ok := r.Languages[code]
		if !ok {
			return fmt.Errorf("%w: %s", ErrLanguageNotFound, code)
		}
		l.Welcome = message
		r.Languages[code] = l
		return nil
	})
}

// Languages returns the guild's languages sorted by code.
func (s *Storage) Languages(guildID string) ([]Language, error) {
	var out []Language
	err := s.view(guildID, func(r *Record) {
		for code, l := range r.Languages {
			l.Code = code
			out = append(out, l)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, err
}

// Language looks up one configured language.
func (s *Storage) Language(guildID, code string) (Language, bool) {
	code = normalizeCode(code)
	var (
		l  Language
		ok bool
	)
	_ = s.view(guildID, func(r *Record) {
		l, ok = r.Languages[code]
		l.Code = code
	})
	return l, ok
}

// SetUserLanguage records a member's chosen language.
func (s *Storage) SetUserLanguage(guildID, userID, code string) error {
	return s.update(guildID, func(r *Record) error {
		r.Users[userID] = normalizeCode(code)
		return nil
	})
}

// UserLanguage returns the member's language code, or "" when unset.
func (s *Storage) UserLanguage(guildID, userID string) string {
	var code string
	_ = s.view(guildID, func(r *Record) {
		code = r.Users[userID]
	})
	return code
}

// SetRules stores the rules text for a language.
func (s *Storage) SetRules(guildID, code, text string) error {
	code = normalizeCode(code)
	return s.update(guildID, func(r *Record) error {
		if text == "" {
			delete(r.Rules, code)
			return nil
		}
		r.Rules[code] = text
		return nil
	})
}

// Rules returns the rules for a language, falling back to English.
func (s *Storage) Rules(guildID, code string) (string, bool) {
	code = normalizeCode(code)
	var text string
	_ = s.view(guildID, func(r *Record) {
		if t, ok := r.Rules[code]; ok && t != "" {
			text = t
			return
		}
		text = r.Rules["en"]
	})
	return text, text != ""
}

func normalizeCode(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
