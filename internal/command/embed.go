package command

import (
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/mood"
)

// FormEmbed dresses an embed in the form's color, footer and avatar.
func FormEmbed(f mood.Form, title, description string) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       f.Color,
	}
	if f.Color == 0 {
		embed.Color = EmbedColor
	}
	if f.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: f.Footer}
	}
	if f.Avatar != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: f.Avatar}
	}
	return embed
}

// FormLabel is "🌞 Dayform" style display text.
func FormLabel(f mood.Form) string {
	return strings.TrimSpace(f.Emoji + " " + f.Name)
}

// Truncate cuts s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

// CustomID joins a command name and arguments into a component custom ID.
func CustomID(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), ":")
}

// ParseCustomID splits a component custom ID into the owning command name and its arguments.
func ParseCustomID(id string) (name string, args []string) {
	parts := strings.Split(id, ":")
	return parts[0], parts[1:]
}
