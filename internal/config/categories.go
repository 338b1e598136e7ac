package config

// CategoryWeights orders command categories in /help.
var CategoryWeights = map[string]int{
	"🕯️ Information": 0,
	"🌸 Language":     10,
	"🌙 Mood":         20,
	"🌐 Translation":  30,
	"🌿 Onboarding":   40,
	"⚙️ Settings":    50,
}
