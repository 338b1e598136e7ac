package translation

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/middleware"
	"github.com/keshon/whisperling/internal/translate"
	"github.com/rs/zerolog/log"
)

type TranslateOnReaction struct{}

func (t *TranslateOnReaction) Name() string               { return "translate (reaction)" }
func (t *TranslateOnReaction) Description() string        { return "Translate a message by reacting with a flag" }
func (t *TranslateOnReaction) Group() string              { return "translation" }
func (t *TranslateOnReaction) Category() string           { return "🌐 Translation" }
func (t *TranslateOnReaction) UserPermissions() []int64   { return []int64{} }
func (t *TranslateOnReaction) ReactionDefinition() string { return "reaction" }

func (t *TranslateOnReaction) Run(ctx context.Context, data any) error {
	rc, ok := data.(*command.MessageReactionContext)
	if !ok {
		return nil
	}
	s, e, svc := rc.Session, rc.Event, rc.Services

	if !svc.Storage.ReactionTranslate(e.GuildID) {
		return nil
	}
	lang, ok := translate.FlagLanguage(e.Emoji.Name)
	if !ok {
		return nil
	}

	msg, err := s.ChannelMessage(e.ChannelID, e.MessageID)
	if err != nil || msg.Content == "" {
		return nil
	}
	res, ok := svc.Translate.Detailed(ctx, msg.Content, lang)
	if !ok || res.Source == lang {
		return nil
	}

	link := messageLink(e.GuildID, e.ChannelID, e.MessageID)
	body := svc.Mood.Style(e.GuildID, res.Text)
	content := fmt.Sprintf("%s → %s\n%s\n\n%s", translate.LanguageFlag(res.Source), e.Emoji.Name, body, link)
	if err := command.DirectMessage(s, e.UserID, command.Truncate(content, 2000)); err != nil {
		log.Warn().Err(err).Str("guild", e.GuildID).Str("user", e.UserID).Msg("Failed to DM translation")
		return nil
	}

	perms, err := s.State.UserChannelPermissions(s.State.User.ID, e.ChannelID)
	if err == nil && perms&discordgo.PermissionManageMessages != 0 {
		_ = s.MessageReactionRemove(e.ChannelID, e.MessageID, e.Emoji.APIName(), e.UserID)
	}
	return nil
}

func init() {
	command.RegisterCommand(&TranslateOnReaction{}, middleware.Default()...)
}
