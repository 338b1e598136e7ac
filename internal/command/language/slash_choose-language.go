package language

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/middleware"
	"github.com/keshon/whisperling/internal/onboarding"
	"github.com/rs/zerolog/log"
)

type ChooseLanguageCommand struct{}

func (c *ChooseLanguageCommand) Name() string             { return "choose-language" }
func (c *ChooseLanguageCommand) Description() string      { return "Pick the language Whisperling speaks to you in" }
func (c *ChooseLanguageCommand) Group() string            { return "language" }
func (c *ChooseLanguageCommand) Category() string         { return "🌸 Language" }
func (c *ChooseLanguageCommand) UserPermissions() []int64 { return []int64{} }

func (c *ChooseLanguageCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *ChooseLanguageCommand) Run(ctx context.Context, data any) error {
	sc, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e, svc := sc.Session, sc.Event, sc.Services

	welcome := svc.Storage.WelcomeChannel(e.GuildID)
	if welcome == "" {
		return command.RespondText(s, e, "No welcome channel is set yet. Ask an admin to run `/manage-languages set-welcome-channel`.")
	}
	if e.ChannelID != welcome {
		return command.RespondText(s, e, fmt.Sprintf("Language can only be chosen in <#%s>.", welcome))
	}
	if langs, _ := svc.Storage.Languages(e.GuildID); len(langs) == 0 {
		return command.RespondText(s, e, "No languages are configured here yet.")
	}

	user := sc.User()
	if err := command.RespondText(s, e, "🌸 A prompt is on its way..."); err != nil {
		return err
	}

	member := onboarding.Member{GuildID: e.GuildID, UserID: user.ID, Mention: user.Mention()}
	go func() {
		out, err := svc.Onboarding.ChooseLanguage(ctx, member, e.ChannelID)
		if err != nil {
			log.Warn().Err(err).Str("guild", e.GuildID).Str("user", user.ID).Msg("Language selection failed")
			return
		}
		log.Debug().Str("guild", e.GuildID).Str("user", user.ID).Str("lang", out.Language).Bool("completed", out.Completed).Msg("Language selection finished")
	}()
	return nil
}

func init() {
	command.RegisterCommand(&ChooseLanguageCommand{}, middleware.Default()...)
}
