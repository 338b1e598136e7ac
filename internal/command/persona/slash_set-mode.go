package persona

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/middleware"
	"github.com/keshon/whisperling/internal/mood"
	"github.com/rs/zerolog/log"
)

type SetModeCommand struct{}

func (c *SetModeCommand) Name() string        { return "set-mode" }
func (c *SetModeCommand) Description() string { return "Switch Whisperling's form" }
func (c *SetModeCommand) Group() string       { return "persona" }
func (c *SetModeCommand) Category() string    { return "🌙 Mood" }
func (c *SetModeCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionAdministrator}
}

func (c *SetModeCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "mode",
				Description: "A standard form, or random",
				Required:    true,
				Choices:     modeChoices(),
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "reason",
				Description: "Shown in the announcement",
			},
		},
	}
}

// modeChoices lists the embedded catalogue's standard forms plus random.
func modeChoices() []*discordgo.ApplicationCommandOptionChoice {
	var choices []*discordgo.ApplicationCommandOptionChoice
	cat, err := mood.DefaultCatalogue()
	if err != nil {
		log.Error().Err(err).Msg("Failed to load form catalogue for /set-mode")
	} else {
		for _, f := range cat.ByCategory(mood.Standard) {
			choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
				Name:  command.FormLabel(f),
				Value: f.Key,
			})
		}
	}
	return append(choices, &discordgo.ApplicationCommandOptionChoice{
		Name:  "🎲 Random",
		Value: mood.RandomKey,
	})
}

func (c *SetModeCommand) Run(ctx context.Context, data any) error {
	sc, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e, svc := sc.Session, sc.Event, sc.Services

	opts := command.Options(e.ApplicationCommandData().Options)
	key := command.StringOption(opts, "mode")
	reason := command.StringOption(opts, "reason")

	prev := svc.Mood.Form(e.GuildID)
	form, err := svc.Mood.SetForm(ctx, e.GuildID, key, reason)
	switch {
	case errors.Is(err, mood.ErrInvalidFormRequest):
		return command.RespondText(s, e, fmt.Sprintf(
			"`%s` can't be chosen directly. Seasonal and glitched forms arrive on their own.", key))
	case errors.Is(err, mood.ErrUnknownForm):
		return command.RespondText(s, e, fmt.Sprintf("No form named `%s`. See `/forms`.", key))
	case err != nil:
		return err
	}

	desc := fmt.Sprintf("%s → %s\n\n%s", command.FormLabel(prev), command.FormLabel(form), form.Description)
	return command.RespondEmbedEphemeral(s, e, command.FormEmbed(form, "Form changed", desc))
}

func init() {
	command.RegisterCommand(&SetModeCommand{}, middleware.Default()...)
}
