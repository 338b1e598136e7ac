package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/discord"
	"github.com/keshon/whisperling/internal/middleware"
	"github.com/keshon/whisperling/internal/mood"
	"github.com/keshon/whisperling/internal/storage"
	"github.com/keshon/whisperling/pkg/util"
)

type MaintenanceCommand struct{}

func (c *MaintenanceCommand) Name() string        { return "maintenance" }
func (c *MaintenanceCommand) Description() string { return "Bot maintenance commands" }
func (c *MaintenanceCommand) Group() string       { return "core" }
func (c *MaintenanceCommand) Category() string    { return "⚙️ Settings" }
func (c *MaintenanceCommand) UserPermissions() []int64 {
	return []int64{discordgo.PermissionAdministrator}
}

func (c *MaintenanceCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "ping",
				Description: "Check gateway latency",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "download-db",
				Description: "Download this server's settings and mood state as JSON",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "status",
				Description: "Show background jobs and server statistics",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "history",
				Description: "Show recently used commands",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "refresh-commands",
				Description: "Re-register this server's commands",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "target",
						Description: "A command name, or all",
					},
				},
			},
		},
	}
}

func (c *MaintenanceCommand) Run(_ context.Context, data any) error {
	sc, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e, svc := sc.Session, sc.Event, sc.Services

	options := e.ApplicationCommandData().Options
	if len(options) == 0 {
		return command.RespondText(s, e, "No subcommand provided.")
	}

	switch options[0].Name {
	case "ping":
		return command.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "Pong! 🏓",
			Description: fmt.Sprintf("Latency: %dms", s.HeartbeatLatency().Milliseconds()),
			Color:       command.EmbedColor,
		})
	case "download-db":
		return runDownloadDB(s, e, svc)
	case "status":
		return runStatus(s, e, svc)
	case "history":
		return runHistory(s, e, svc.Storage)
	case "refresh-commands":
		target := "all"
		if v, ok := command.Options(options[0].Options)["target"]; ok && v.StringValue() != "" {
			target = v.StringValue()
		}
		queued := discord.PublishSystemEvent(discord.SystemEvent{
			Type:    discord.SystemEventRefreshCommands,
			GuildID: e.GuildID,
			Target:  target,
		})
		if !queued {
			return command.RespondText(s, e, "⏳ Too many refreshes queued, try again shortly.")
		}
		return command.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
			Title:       "🔄 Refresh queued",
			Description: fmt.Sprintf("Target: `%s`", target),
			Color:       command.EmbedColor,
		})
	default:
		return command.RespondText(s, e, fmt.Sprintf("Unknown subcommand: %s", options[0].Name))
	}
}

type dump struct {
	Settings *storage.Record `json:"settings"`
	Mood     mood.Community  `json:"mood"`
}

func runDownloadDB(s *discordgo.Session, e *discordgo.InteractionCreate, svc *command.Services) error {
	record, err := svc.Storage.Record(e.GuildID)
	if err != nil {
		return command.RespondText(s, e, fmt.Sprintf("Failed to fetch record: ```%v```", err))
	}
	body, err := json.MarshalIndent(dump{Settings: record, Mood: svc.Mood.Snapshot(e.GuildID)}, "", "  ")
	if err != nil {
		return command.RespondText(s, e, fmt.Sprintf("JSON encode failed: ```%v```", err))
	}
	embed := &discordgo.MessageEmbed{
		Title:       "🧠 Database Dump",
		Description: "Current settings and mood state for this server.",
		Color:       command.EmbedColor,
	}
	return command.RespondEmbedEphemeralWithFile(s, e, embed, bytes.NewReader(body), fmt.Sprintf("%s_database_dump.json", e.GuildID))
}

func runStatus(s *discordgo.Session, e *discordgo.InteractionCreate, svc *command.Services) error {
	var sb strings.Builder
	if guild, err := s.State.Guild(e.GuildID); err == nil && guild != nil {
		fmt.Fprintf(&sb, "**%s** (`%s`)\n- Members: %d\n- Roles: %d\n- Channels: %d\n\n",
			guild.Name, guild.ID, guild.MemberCount, len(guild.Roles), len(guild.Channels))
	}
	form := svc.Mood.Form(e.GuildID)
	fmt.Fprintf(&sb, "**Form:** %s (`%s`)\n", command.FormLabel(form), form.Key)
	if svc.Activity != nil {
		fmt.Fprintf(&sb, "**Activity:** %d\n", svc.Activity.Score(e.GuildID))
	}
	if svc.Jobs != nil {
		fmt.Fprintf(&sb, "\n%s", svc.Jobs.Status())
	}
	return command.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
		Title:       "📊 Status",
		Description: sb.String(),
		Color:       command.EmbedColor,
	})
}

func runHistory(s *discordgo.Session, e *discordgo.InteractionCreate, store *storage.Storage) error {
	records, err := store.CommandsHistory(e.GuildID)
	if err != nil {
		return command.RespondText(s, e, fmt.Sprintf("Failed to read history: `%v`", err))
	}
	if len(records) == 0 {
		return command.RespondText(s, e, "No commands recorded yet.")
	}
	var sb strings.Builder
	for i := len(records) - 1; i >= 0; i-- {
		r := records[i]
		fmt.Fprintf(&sb, "`%s` **%s** %s", util.FormatDateTpl(r.Datetime, "MM-DD hh:mm"), r.Username, r.Command)
		if r.Param != "" {
			fmt.Fprintf(&sb, " `%s`", r.Param)
		}
		if r.ChannelName != "" {
			fmt.Fprintf(&sb, " in #%s", r.ChannelName)
		}
		sb.WriteString("\n")
	}
	return command.RespondEmbedEphemeral(s, e, &discordgo.MessageEmbed{
		Title:       "📜 Command history",
		Description: command.Truncate(sb.String(), 4096),
		Color:       command.EmbedColor,
	})
}

func init() {
	command.RegisterCommand(&MaintenanceCommand{}, middleware.Default()...)
}
