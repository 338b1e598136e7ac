package persona

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/middleware"
)

type ManageChatterCommand struct{}

func (c *ManageChatterCommand) Name() string        { return "manage-chatter" }
func (c *ManageChatterCommand) Description() string { return "Ambient chatter settings" }
func (c *ManageChatterCommand) Group() string       { return "persona" }
func (c *ManageChatterCommand) Category() string    { return "⚙️ Settings" }
func (c *ManageChatterCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionAdministrator}
}

func (c *ManageChatterCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "enable",
				Description: "Let Whisperling speak up in the announce channel now and then",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "disable",
				Description: "Keep Whisperling quiet between announcements",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "status",
				Description: "Show the chatter setting",
			},
		},
	}
}

func (c *ManageChatterCommand) Run(_ context.Context, data any) error {
	sc, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e, store := sc.Session, sc.Event, sc.Services.Storage

	options := e.ApplicationCommandData().Options
	if len(options) == 0 {
		return command.RespondText(s, e, "No subcommand provided.")
	}

	switch options[0].Name {
	case "enable", "disable":
		on := options[0].Name == "enable"
		if err := store.SetAmbientChatter(e.GuildID, on); err != nil {
			return command.RespondText(s, e, fmt.Sprintf("Failed to save setting: `%v`", err))
		}
		return command.RespondText(s, e, chatterStatus(on, store.AnnounceChannel(e.GuildID)))
	case "status":
		return command.RespondText(s, e, chatterStatus(store.AmbientChatter(e.GuildID), store.AnnounceChannel(e.GuildID)))
	default:
		return command.RespondText(s, e, "Unknown subcommand.")
	}
}

func chatterStatus(on bool, channelID string) string {
	if !on {
		return "🔕 Ambient chatter is **off**."
	}
	if channelID == "" {
		return "🔔 Ambient chatter is **on**, but no announce channel is set. Use `/manage-languages set-announce-channel`."
	}
	return fmt.Sprintf("🔔 Ambient chatter is **on** in <#%s>.", channelID)
}

func init() {
	command.RegisterCommand(&ManageChatterCommand{}, middleware.Default()...)
}
