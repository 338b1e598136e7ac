package persona

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/middleware"
	"github.com/keshon/whisperling/internal/mood"
	"github.com/keshon/whisperling/pkg/util"
)

type MoodCommand struct{}

func (c *MoodCommand) Name() string             { return "mood" }
func (c *MoodCommand) Description() string      { return "Show Whisperling's current form" }
func (c *MoodCommand) Group() string            { return "persona" }
func (c *MoodCommand) Category() string         { return "🌙 Mood" }
func (c *MoodCommand) UserPermissions() []int64 { return []int64{} }

func (c *MoodCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
	}
}

func (c *MoodCommand) Run(ctx context.Context, data any) error {
	sc, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e, svc := sc.Session, sc.Event, sc.Services

	svc.Mood.MaybePlayful(ctx, e.GuildID)
	form := svc.Mood.Form(e.GuildID)
	state := svc.Mood.Snapshot(e.GuildID)
	score := 0
	if svc.Activity != nil {
		score = svc.Activity.Score(e.GuildID)
	}

	embed := command.FormEmbed(form, command.FormLabel(form), moodDescription(form, state, score, time.Now()))
	return command.RespondEmbed(s, e, embed)
}

func moodDescription(form mood.Form, state mood.Community, score int, now time.Time) string {
	var sb strings.Builder
	sb.WriteString(form.Description)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "**Kind:** %s\n", form.Category)
	if !state.FormSince.IsZero() {
		fmt.Fprintf(&sb, "**Since:** %s (%s ago)\n",
			util.FormatDateTpl(state.FormSince.UTC(), "YYYY-MM-DD hh:mm UTC"),
			util.HumanDuration(now.Sub(state.FormSince)))
	}
	if form.Transient() && state.PreviousStandard != "" {
		fmt.Fprintf(&sb, "**Returns to:** `%s`\n", state.PreviousStandard)
	}
	fmt.Fprintf(&sb, "**Activity:** %d", score)
	return sb.String()
}

func init() {
	command.RegisterCommand(&MoodCommand{}, middleware.Default()...)
}
