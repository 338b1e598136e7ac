package persona

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/middleware"
	"github.com/keshon/whisperling/internal/mood"
)

type FormsCommand struct{}

func (c *FormsCommand) Name() string             { return "forms" }
func (c *FormsCommand) Description() string      { return "Browse Whisperling's forms" }
func (c *FormsCommand) Group() string            { return "persona" }
func (c *FormsCommand) Category() string         { return "🌙 Mood" }
func (c *FormsCommand) UserPermissions() []int64 { return []int64{} }

var categories = []mood.Category{mood.Standard, mood.Seasonal, mood.Glitched}

func (c *FormsCommand) SlashDefinition() *discordgo.ApplicationCommand {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(categories))
	for _, cat := range categories {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  cat.String(),
			Value: cat.String(),
		})
	}
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "category",
				Description: "Which kind of forms to show",
				Choices:     choices,
			},
		},
	}
}

func (c *FormsCommand) Run(_ context.Context, data any) error {
	sc, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e, svc := sc.Session, sc.Event, sc.Services

	cat := mood.Standard
	if name := command.StringOption(command.Options(e.ApplicationCommandData().Options), "category"); name != "" {
		parsed, err := mood.ParseCategory(name)
		if err != nil {
			return command.RespondText(s, e, err.Error())
		}
		cat = parsed
	}

	current := svc.Mood.Form(e.GuildID)
	return command.RespondComponents(s, e, catalogueEmbed(svc.Mood.Catalogue(), cat, current), categoryButtons(cat))
}

// Component switches the catalogue page when a category button is pressed.
func (c *FormsCommand) Component(_ context.Context, cc *command.ComponentInteractionContext) error {
	s, e, svc := cc.Session, cc.Event, cc.Services

	_, args := command.ParseCustomID(e.MessageComponentData().CustomID)
	if len(args) == 0 {
		return nil
	}
	cat, err := mood.ParseCategory(args[0])
	if err != nil {
		return command.RespondText(s, e, err.Error())
	}
	current := svc.Mood.Form(e.GuildID)
	return command.UpdateComponentMessage(s, e, catalogueEmbed(svc.Mood.Catalogue(), cat, current), categoryButtons(cat))
}

func catalogueEmbed(cat *mood.Catalogue, category mood.Category, current mood.Form) *discordgo.MessageEmbed {
	forms := cat.ByCategory(category)
	embed := command.FormEmbed(current, fmt.Sprintf("Forms: %s", category), "")
	if len(forms) == 0 {
		embed.Description = "No forms in this category."
		return embed
	}
	for _, f := range forms {
		if len(embed.Fields) == 25 {
			break
		}
		name := command.FormLabel(f)
		if f.Key == current.Key {
			name += " (current)"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  name,
			Value: profileText(f),
		})
	}
	return embed
}

func profileText(f mood.Form) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "`%s`", f.Key)
	switch {
	case f.Window != nil:
		fmt.Fprintf(&sb, " · %s", f.Window)
	case f.Duration > 0:
		fmt.Fprintf(&sb, " · lasts %s", f.Duration)
	}
	sb.WriteString("\n")
	p := f.Profile
	if p.Vibe != "" {
		fmt.Fprintf(&sb, "**Vibe:** %s\n", p.Vibe)
	}
	if p.Personality != "" {
		fmt.Fprintf(&sb, "**Personality:** %s\n", p.Personality)
	}
	if p.Style != "" {
		fmt.Fprintf(&sb, "**Style:** %s\n", p.Style)
	}
	if p.Example != "" {
		fmt.Fprintf(&sb, "*%s*", p.Example)
	}
	return command.Truncate(strings.TrimSpace(sb.String()), 1024)
}

func categoryButtons(active mood.Category) []discordgo.MessageComponent {
	var buttons []discordgo.MessageComponent
	for _, cat := range categories {
		style := discordgo.SecondaryButton
		if cat == active {
			style = discordgo.PrimaryButton
		}
		buttons = append(buttons, discordgo.Button{
			Label:    cat.String(),
			Style:    style,
			CustomID: command.CustomID("forms", cat.String()),
			Disabled: cat == active,
		})
	}
	return []discordgo.MessageComponent{discordgo.ActionsRow{Components: buttons}}
}

func init() {
	command.RegisterCommand(&FormsCommand{}, middleware.Default()...)
}
