package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/config"
	"github.com/keshon/whisperling/internal/middleware"
	"github.com/keshon/whisperling/internal/version"
	"github.com/rs/zerolog/log"
)

type HelpCommand struct{}

func (c *HelpCommand) Name() string             { return "help" }
func (c *HelpCommand) Description() string      { return "Get a list of available commands" }
func (c *HelpCommand) Group() string            { return "core" }
func (c *HelpCommand) Category() string         { return "🕯️ Information" }
func (c *HelpCommand) UserPermissions() []int64 { return []int64{} }

func (c *HelpCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "category",
				Description: "View commands grouped by category",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "group",
				Description: "View commands grouped by group",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "flat",
				Description: "View all commands as a flat list",
			},
		},
	}
}

func (c *HelpCommand) Run(_ context.Context, data any) error {
	sc, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e, svc := sc.Session, sc.Event, sc.Services

	if err := command.RespondDeferredEphemeral(s, e); err != nil {
		log.Error().Err(err).Msg("Failed to defer help interaction")
		return err
	}

	all := command.AllCommands()
	var output string
	mode := "category"
	if opts := e.ApplicationCommandData().Options; len(opts) > 0 {
		mode = opts[0].Name
	}
	switch mode {
	case "group":
		output = helpByGroup(all)
	case "flat":
		output = helpFlat(all)
	default:
		output = helpByCategory(all)
	}

	embed := command.FormEmbed(svc.Mood.Form(e.GuildID), version.AppName+" Help", command.Truncate(output, 4096))
	return command.FollowupEmbedEphemeral(s, e, embed)
}

func line(c command.DiscordCommand) string {
	name := c.Name()
	if _, ok := c.(command.SlashProvider); ok {
		name = "/" + name
	}
	return fmt.Sprintf("`%s` - %s\n", name, c.Description())
}

func sortByName(cmds []command.DiscordCommand) {
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name() < cmds[j].Name() })
}

func helpByCategory(all []command.DiscordCommand) string {
	byCat := make(map[string][]command.DiscordCommand)
	var cats []string
	for _, c := range all {
		if _, seen := byCat[c.Category()]; !seen {
			cats = append(cats, c.Category())
		}
		byCat[c.Category()] = append(byCat[c.Category()], c)
	}
	sort.SliceStable(cats, func(i, j int) bool {
		wi, wj := config.CategoryWeights[cats[i]], config.CategoryWeights[cats[j]]
		if wi != wj {
			return wi < wj
		}
		return cats[i] < cats[j]
	})
	return grouped(cats, byCat)
}

func helpByGroup(all []command.DiscordCommand) string {
	byGroup := make(map[string][]command.DiscordCommand)
	var groups []string
	for _, c := range all {
		if _, seen := byGroup[c.Group()]; !seen {
			groups = append(groups, c.Group())
		}
		byGroup[c.Group()] = append(byGroup[c.Group()], c)
	}
	sort.Strings(groups)
	return grouped(groups, byGroup)
}

func grouped(keys []string, cmds map[string][]command.DiscordCommand) string {
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "**%s**\n", k)
		list := cmds[k]
		sortByName(list)
		for _, c := range list {
			sb.WriteString(line(c))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func helpFlat(all []command.DiscordCommand) string {
	sortByName(all)
	var sb strings.Builder
	for _, c := range all {
		sb.WriteString(line(c))
	}
	return sb.String()
}

func init() {
	command.RegisterCommand(&HelpCommand{}, middleware.Default()...)
}
