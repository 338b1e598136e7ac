package translation

import (
	"context"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/middleware"
)

type TranslateCommand struct{}

func (c *TranslateCommand) Name() string             { return "translate" }
func (c *TranslateCommand) Description() string      { return "Translate a message in this channel into your language" }
func (c *TranslateCommand) Group() string            { return "translation" }
func (c *TranslateCommand) Category() string         { return "🌐 Translation" }
func (c *TranslateCommand) UserPermissions() []int64 { return []int64{} }

func (c *TranslateCommand) SlashDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.Name(),
		Description: c.Description(),
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "message_id",
				Description: "ID or link of the message",
				Required:    true,
			},
		},
	}
}

func (c *TranslateCommand) Run(ctx context.Context, data any) error {
	sc, ok := data.(*command.SlashInteractionContext)
	if !ok {
		return nil
	}
	s, e := sc.Session, sc.Event

	channelID, messageID := parseMessageRef(command.StringOption(command.Options(e.ApplicationCommandData().Options), "message_id"), e.ChannelID)
	msg, err := s.ChannelMessage(channelID, messageID)
	if err != nil {
		return command.RespondText(s, e, "I couldn't find that message here.")
	}
	return translateAndFollowup(ctx, &sc.InteractionContext, msg)
}

// parseMessageRef accepts a bare message ID or a message link.
func parseMessageRef(ref, channelID string) (string, string) {
	ref = strings.TrimSpace(ref)
	parts := strings.Split(strings.TrimSuffix(ref, "/"), "/")
	if len(parts) >= 3 && strings.Contains(ref, "/channels/") {
		return parts[len(parts)-2], parts[len(parts)-1]
	}
	return channelID, ref
}

func init() {
	command.RegisterCommand(&TranslateCommand{}, middleware.Default()...)
}
