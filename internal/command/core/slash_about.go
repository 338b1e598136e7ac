package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/middleware"
	"github.com/keshon/whisperling/internal/version"
)

type AboutCommand struct{}

func (c *AboutCommand) Name() string             { return "about" }
func (c *AboutCommand) Description() string      { return "Who is Whisperling?" }
func (c *AboutCommand) Group() string            { return "core" }
func (c *AboutCommand) Category() string         { return "🕯️ Information" }
func (c *AboutCommand) UserPermissions() []int64 { return []int64{} }

func (c *AboutCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *AboutCommand) Run(_ context.Context, data any) error {
	sc, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e, svc := sc.Session, sc.Event, sc.Services

	form := svc.Mood.Form(e.GuildID)
	var sb strings.Builder
	fmt.Fprintf(&sb, "A small companion who greets newcomers, carries words between languages and changes with the seasons.\n\n")
	fmt.Fprintf(&sb, "Right now I'm %s: *%s*\n\n", command.FormLabel(form), form.Description)
	fmt.Fprintf(&sb, "**Version:** %s", version.Version)
	if version.Commit != "" {
		fmt.Fprintf(&sb, " (%s)", version.Commit)
	}
	if version.BuildDate != "" {
		fmt.Fprintf(&sb, "\n**Built:** %s", version.BuildDate)
	}
	fmt.Fprintf(&sb, "\n**Go:** %s", version.GoVersion)
	if svc.Jobs != nil {
		fmt.Fprintf(&sb, "\n\n%s", svc.Jobs.Status())
	}

	return command.RespondEmbedEphemeral(s, e, command.FormEmbed(form, "About "+version.AppName, sb.String()))
}

func init() {
	command.RegisterCommand(&AboutCommand{}, middleware.Default()...)
}
