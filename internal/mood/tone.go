package mood

import "strings"

// Tone rewrites text in a form's voice.
type Tone func(string) string

var dots = strings.NewReplacer(".", "...", "!", "...", "?", "...")

var tones = map[string]Tone{
	"dayform":    func(t string) string { return "🌞 " + t },
	"nightform":  func(t string) string { return "🌙 *" + t + "*" },
	"cosmosform": func(t string) string { return "✨ " + t + " ✨" },
	"seaform":    func(t string) string { return "🌊 " + t + "..." },
	"hadesform":  func(t string) string { return "🔥 " + t + "!" },
	"forestform": func(t string) string { return "🍃 " + t },
	"auroraform": func(t string) string { return "❄️ " + t },

	"vernalglint": func(t string) string { return "🌸 " + t + "! 🌱" },
	"fallveil":    func(t string) string { return "🍁 " + t + ". 🕯️" },
	"sunfracture": sunfracture,
	"yuleshard": func(t string) string {
		return "❄️ " + strings.ReplaceAll(t, ".", "...") + " ❄️"
	},

	"flutterkin":  func(t string) string { return "✨ " + t + " yay~ ✨" },
	"echovoid":    func(t string) string { return "..." + t + "... (" + t + ")..." },
	"glitchspire": func(t string) string { return t + " [DATA FRAGMENT: ❖]" },
	"crepusca": func(t string) string {
		return "🌒 " + dots.Replace(strings.ToLower(t)) + " as if from a dream..."
	},
}

// sunfracture shouts every other word.
func sunfracture(t string) string {
	words := strings.Fields(t)
	for i := 0; i < len(words); i += 2 {
		words[i] = strings.ToUpper(words[i])
	}
	return "☀️ " + strings.Join(words, " ") + " ✨"
}
