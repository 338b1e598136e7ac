package translation

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/middleware"
)

type ManageTranslateCommand struct{}

func (c *ManageTranslateCommand) Name() string        { return "manage-translate" }
func (c *ManageTranslateCommand) Description() string { return "Translate settings" }
func (c *ManageTranslateCommand) Group() string       { return "translation" }
func (c *ManageTranslateCommand) Category() string    { return "⚙️ Settings" }
func (c *ManageTranslateCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionAdministrator}
}

func (c *ManageTranslateCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "reaction-on",
				Description: "Translate messages into DMs when members react with a flag",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "reaction-off",
				Description: "Ignore flag reactions",
			},
		},
	}
}

func (c *ManageTranslateCommand) Run(_ context.Context, data any) error {
	sc, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e, store := sc.Session, sc.Event, sc.Services.Storage

	options := e.ApplicationCommandData().Options
	if len(options) == 0 {
		return command.RespondText(s, e, "No subcommand provided.")
	}

	var on bool
	switch options[0].Name {
	case "reaction-on":
		on = true
	case "reaction-off":
	default:
		return command.RespondText(s, e, "Unknown subcommand.")
	}
	if err := store.SetReactionTranslate(e.GuildID, on); err != nil {
		return command.RespondText(s, e, fmt.Sprintf("Failed to save setting: `%v`", err))
	}
	if on {
		return command.RespondText(s, e, "🌐 Flag reactions now translate messages into DMs.")
	}
	return command.RespondText(s, e, "🌐 Flag reactions are ignored.")
}

func init() {
	command.RegisterCommand(&ManageTranslateCommand{}, middleware.Default()...)
}
