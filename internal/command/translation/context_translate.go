package translation

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/middleware"
)

type TranslateContextCommand struct{}

func (c *TranslateContextCommand) Name() string             { return "Translate" }
func (c *TranslateContextCommand) Description() string      { return "Translate a message into your language" }
func (c *TranslateContextCommand) Group() string            { return "translation" }
func (c *TranslateContextCommand) Category() string         { return "🌐 Translation" }
func (c *TranslateContextCommand) UserPermissions() []int64 { return []int64{} }

func (c *TranslateContextCommand) ContextDefinition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name: c.Name(),
		Type: discordgo.MessageApplicationCommand,
	}
}

func (c *TranslateContextCommand) Run(ctx context.Context, data any) error {
	mc, ok := data.(*command.MessageApplicationCommandContext)
	if !ok || mc.Target == nil {
		return nil
	}
	return translateAndFollowup(ctx, &mc.InteractionContext, mc.Target)
}

func init() {
	command.RegisterCommand(&TranslateContextCommand{}, middleware.Default()...)
}
