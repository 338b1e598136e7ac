package translate

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// ValidateCode checks that code is a well-formed BCP 47 language tag and returns its canonical form.
func ValidateCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", fmt.Errorf("invalid language code %q: %w", code, err)
	}
	if base, conf := tag.Base(); conf == language.No || base.String() == "und" {
		return "", fmt.Errorf("unknown language code %q", code)
	}
	return strings.ToLower(code), nil
}

// NativeName returns the language's own name for code, or code itself.
func NativeName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return name
	}
	return code
}

var flags = map[string]string{
	"🇷🇺": "ru",
	"🇬🇧": "en",
	"🇺🇸": "en",
	"🇫🇷": "fr",
	"🇩🇪": "de",
	"🇪🇸": "es",
	"🇮🇹": "it",
	"🇯🇵": "ja",
	"🇨🇳": "zh-cn",
	"🇳🇱": "nl",
	"🇵🇹": "pt",
	"🇵🇱": "pl",
	"🇹🇷": "tr",
}

// FlagLanguage maps a flag emoji to a language code.
func FlagLanguage(emoji string) (string, bool) {
	code, ok := flags[emoji]
	return code, ok
}

// LanguageFlag maps a language code back to a flag, or 🌐.
func LanguageFlag(code string) string {
	code = strings.ToLower(code)
	for _, pref := range []string{"🇬🇧", "🇨🇳"} {
		if flags[pref] == code {
			return pref
		}
	}
	for flag, c := range flags {
		if c == code || strings.HasPrefix(c, code+"-") {
			return flag
		}
	}
	return "🌐"
}
