package mood

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Category groups forms by how they are entered and left.
type Category int

const (
	// Standard forms are chosen by admins, drift, or "random".
	Standard Category = iota
	// Seasonal forms are bound to a calendar window.
	Seasonal
	// Glitched forms are short random or cause-driven excursions.
	Glitched
)

func (c Category) String() string {
	switch c {
	case Standard:
		return "standard"
	case Seasonal:
		return "seasonal"
	case Glitched:
		return "glitched"
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// ParseCategory maps a category name to its value.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard":
		return Standard, nil
	case "seasonal":
		return Seasonal, nil
	case "glitched":
		return Glitched, nil
	}
	return 0, fmt.Errorf("unknown form category %q", s)
}

func (c *Category) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := ParseCategory(node.Value)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Event names a piece of persona text.
type Event string

const (
	EventLanguageIntroTitle   Event = "language_intro_title"
	EventLanguageIntroDesc    Event = "language_intro_desc"
	EventLanguageConfirmTitle Event = "language_confirm_title"
	EventLanguageConfirmDesc  Event = "language_confirm_desc"
	EventRulesConfirmTitle    Event = "rules_confirm_title"
	EventRulesConfirmDesc     Event = "rules_confirm_desc"
	EventRulesNone            Event = "rules_none"
	EventRoleIntroTitle       Event = "role_intro_title"
	EventRoleIntroDesc        Event = "role_intro_desc"
	EventRoleGranted          Event = "role_granted"
	EventCosmeticIntroTitle   Event = "cosmetic_intro_title"
	EventCosmeticIntroDesc    Event = "cosmetic_intro_desc"
	EventCosmeticGranted      Event = "cosmetic_granted"
	EventCosmeticSkipped      Event = "cosmetic_skipped"
	EventWelcomeTitle         Event = "welcome_title"
	EventWelcomeDesc          Event = "welcome_desc"
	EventTimeoutLanguage      Event = "timeout_language"
	EventTimeoutRules         Event = "timeout_rules"
	EventTimeoutRole          Event = "timeout_role"
	EventTimeoutCosmetic      Event = "timeout_cosmetic"
	EventPlayfulActivation    Event = "flutterkin_activation"
)

// Events is the closed set of persona text events. The baseline form must define all of them.
var Events = []Event{
	EventLanguageIntroTitle, EventLanguageIntroDesc, EventLanguageConfirmTitle, EventLanguageConfirmDesc,
	EventRulesConfirmTitle, EventRulesConfirmDesc, EventRulesNone,
	EventRoleIntroTitle, EventRoleIntroDesc, EventRoleGranted,
	EventCosmeticIntroTitle, EventCosmeticIntroDesc, EventCosmeticGranted, EventCosmeticSkipped,
	EventWelcomeTitle, EventWelcomeDesc,
	EventTimeoutLanguage, EventTimeoutRules, EventTimeoutRole, EventTimeoutCosmetic,
	EventPlayfulActivation,
}

// Profile is the catalogue blurb shown by /forms.
type Profile struct {
	Vibe        string `yaml:"vibe"`
	Personality string `yaml:"personality"`
	Style       string `yaml:"style"`
	Example     string `yaml:"example"`
}

// Window is an inclusive month/day range, possibly wrapping the year end.
type Window struct {
	FromMonth time.Month
	FromDay   int
	ToMonth   time.Month
	ToDay     int
}

// ParseWindow parses "MM-DD" bounds.
func ParseWindow(from, to string) (Window, error) {
	fm, fd, err := parseMonthDay(from)
	if err != nil {
		return Window{}, err
	}
	tm, td, err := parseMonthDay(to)
	if err != nil {
		return Window{}, err
	}
	return Window{FromMonth: fm, FromDay: fd, ToMonth: tm, ToDay: td}, nil
}

func parseMonthDay(s string) (time.Month, int, error) {
	t, err := time.Parse("01-02", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid month-day %q: %w", s, err)
	}
	return t.Month(), t.Day(), nil
}

// Contains reports whether t's calendar date falls inside the window.
func (w Window) Contains(t time.Time) bool {
	day := ordinal(t.Month(), t.Day())
	from, to := ordinal(w.FromMonth, w.FromDay), ordinal(w.ToMonth, w.ToDay)
	if from <= to {
		return day >= from && day <= to
	}
	return day >= from || day <= to
}

func (w Window) String() string {
	return fmt.Sprintf("%02d-%02d..%02d-%02d", w.FromMonth, w.FromDay, w.ToMonth, w.ToDay)
}

func ordinal(m time.Month, d int) int { return int(m)*100 + d }

// Form is one immutable persona.
type Form struct {
	Key         string
	Name        string
	Emoji       string
	Category    Category
	Color       int
	Description string
	Footer      string
	Avatar      string
	Profile     Profile
	Window      *Window       // Seasonal only
	Duration    time.Duration // Glitched only

	texts  map[Event]string
	flavor []string
	tone   Tone
}

// Text returns the form's own template for e.
func (f Form) Text(e Event) (string, bool) {
	s, ok := f.texts[e]
	return s, ok && s != ""
}

// Style applies the form's tone to text.
func (f Form) Style(text string) string {
	if f.tone == nil {
		return text
	}
	return f.tone(text)
}

// Flavor returns the form's ambient sentences.
func (f Form) Flavor() []string {
	return f.flavor
}

// Transient reports whether the form is time-boxed (not Standard).
func (f Form) Transient() bool {
	return f.Category != Standard
}

// ColorHex renders the embed color as #rrggbb.
func (f Form) ColorHex() string {
	return fmt.Sprintf("#%06x", f.Color)
}
