package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/pkg/cmd"
)

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		b.dispatchCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.dispatchComponent(s, i)
	default:
		b.log.Debug().Int("type", int(i.Type)).Msg("Unhandled interaction type")
	}
}

// dispatchCommand runs slash and message context menu commands through their middleware.
func (b *Bot) dispatchCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	c, ok := cmd.DefaultRegistry.Get(data.Name)
	if !ok {
		b.log.Warn().Str("command", data.Name).Msg("Unknown command")
		return
	}

	base := command.InteractionContext{Session: s, Event: i, Services: b.services}
	var payload any
	switch data.CommandType {
	case discordgo.MessageApplicationCommand:
		var target *discordgo.Message
		if data.Resolved != nil {
			target = data.Resolved.Messages[data.TargetID]
		}
		payload = &command.MessageApplicationCommandContext{InteractionContext: base, Target: target}
	default:
		payload = &command.SlashInteractionContext{InteractionContext: base}
	}

	if err := c.Run(b.ctx, &cmd.Invocation{Data: payload}); err != nil {
		b.log.Error().Err(err).Str("command", data.Name).Str("guild", i.GuildID).Msg("Command failed")
	}
}

// dispatchComponent routes button presses. Onboarding prompts are handled here;
// anything else goes to the command named by the custom ID's first segment.
func (b *Bot) dispatchComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID
	if strings.HasPrefix(customID, promptPrefix+":") {
		b.handlePromptPress(s, i)
		return
	}

	name, _ := command.ParseCustomID(customID)
	c, ok := cmd.DefaultRegistry.Get(name)
	if !ok {
		b.log.Warn().Str("custom_id", customID).Msg("No command for component")
		return
	}
	adapter, ok := cmd.Root(c).(*command.DiscordAdapter)
	if !ok {
		return
	}
	handler, ok := adapter.Cmd.(command.ComponentInteractionHandler)
	if !ok {
		b.log.Warn().Str("command", name).Msg("Command does not handle components")
		return
	}

	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Str("command", name).Str("panic", fmt.Sprint(r)).Msg("Component handler panicked")
		}
	}()
	cc := &command.ComponentInteractionContext{
		InteractionContext: command.InteractionContext{Session: s, Event: i, Services: b.services},
	}
	if err := handler.Component(b.ctx, cc); err != nil {
		b.log.Error().Err(err).Str("command", name).Msg("Component handler failed")
		b.respondEphemeral(s, i, "⚠️ Something went wrong with that button.")
	}
}
