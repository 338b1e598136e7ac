package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/mood"
)

var reasonLines = map[string]string{
	mood.ReasonAdmin:     "An admin called for a change.",
	mood.ReasonExpired:   "The moment passed.",
	mood.ReasonGlitch:    "Something flickered.",
	mood.ReasonSeason:    "The season turned.",
	mood.ReasonDrift:     "The quiet made me wander.",
	mood.ReasonForgotten: "It has been so long...",
	mood.ReasonPlayful:   "Something small and bright woke up.",
}

func announcement(from, to mood.Form, reason string) *discordgo.MessageEmbed {
	title := fmt.Sprintf("%s is now %s", command.FormLabel(from), command.FormLabel(to))
	if from.Key == "" {
		title = command.FormLabel(to)
	}
	desc := to.Description
	line, ok := reasonLines[reason]
	if !ok && reason != "" {
		line = reason
	}
	if line != "" {
		desc += "\n\n*" + line + "*"
	}
	return command.FormEmbed(to, title, desc)
}

// Announce posts a form change to the guild's announce channel, if one is set.
func (b *Bot) Announce(ctx context.Context, guildID string, from, to mood.Form, reason string) {
	channelID := b.storage.AnnounceChannel(guildID)
	if channelID == "" {
		return
	}
	_, err := b.dg.ChannelMessageSendEmbed(channelID, announcement(from, to, reason), discordgo.WithContext(ctx))
	if err != nil {
		b.log.Warn().Err(err).Str("guild", guildID).Str("form", to.Key).Msg("Failed to announce form change")
	}
}

// SendText posts plain text to a channel.
func (b *Bot) SendText(ctx context.Context, channelID, text string) error {
	_, err := b.dg.ChannelMessageSend(channelID, text, discordgo.WithContext(ctx))
	return err
}
