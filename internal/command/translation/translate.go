// Package translation holds the message translation commands: the context menu,
// /translate, flag reactions and their settings.
package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/translate"
)

// targetLanguage picks the member's onboarding language, then their client locale, then English.
func targetLanguage(svc *command.Services, guildID, userID string, locale discordgo.Locale) string {
	if code := svc.Storage.UserLanguage(guildID, userID); code != "" {
		return code
	}
	if locale != "" {
		base, _, _ := strings.Cut(string(locale), "-")
		if code, err := translate.ValidateCode(base); err == nil {
			return code
		}
	}
	return "en"
}

func messageLink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// translationEmbed translates msg into lang in the guild's current voice.
// ok is false when there was nothing to translate or the translator failed.
func translationEmbed(ctx context.Context, svc *command.Services, guildID string, msg *discordgo.Message, lang string) (*discordgo.MessageEmbed, bool) {
	if strings.TrimSpace(msg.Content) == "" {
		return nil, false
	}
	res, ok := svc.Translate.Detailed(ctx, msg.Content, lang)
	if !ok {
		return nil, false
	}
	form := svc.Mood.Form(guildID)
	title := fmt.Sprintf("%s → %s", translate.LanguageFlag(res.Source), translate.LanguageFlag(lang))
	embed := command.FormEmbed(form, title, command.Truncate(res.Text, 4000))
	embed.URL = messageLink(guildID, msg.ChannelID, msg.ID)
	if msg.Author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{Name: msg.Author.Username, IconURL: msg.Author.AvatarURL("")}
	}
	return embed, true
}

func translateAndFollowup(ctx context.Context, ic *command.InteractionContext, msg *discordgo.Message) error {
	s, e, svc := ic.Session, ic.Event, ic.Services
	if err := command.RespondDeferredEphemeral(s, e); err != nil {
		return err
	}
	lang := targetLanguage(svc, e.GuildID, ic.User().ID, e.Locale)
	embed, ok := translationEmbed(ctx, svc, e.GuildID, msg, lang)
	if !ok {
		embed = &discordgo.MessageEmbed{
			Description: "The words slipped away... I couldn't translate that message.",
			Color:       command.EmbedColor,
		}
	}
	return command.FollowupEmbedEphemeral(s, e, embed)
}
