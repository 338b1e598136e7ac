// Package command adapts Discord commands to the transport-agnostic core in pkg/cmd.
// Command groups live in subpackages and register themselves from init.
package command

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/activity"
	"github.com/keshon/whisperling/internal/config"
	"github.com/keshon/whisperling/internal/mood"
	"github.com/keshon/whisperling/internal/onboarding"
	"github.com/keshon/whisperling/internal/storage"
	"github.com/keshon/whisperling/internal/translate"
	"github.com/keshon/whisperling/pkg/cmd"
)

// Services are the shared components commands work with.
type Services struct {
	Config     *config.Config
	Storage    *storage.Storage
	Mood       *mood.Engine
	Activity   *activity.Tracker
	Translate  *translate.Facade
	Onboarding *onboarding.Flow
	Jobs       interface{ Status() string }
}

// Discord-specific contexts (what the runtime passes when executing).

// InteractionContext is shared by every interaction-driven context.
type InteractionContext struct {
	Session  *discordgo.Session
	Event    *discordgo.InteractionCreate
	Services *Services
}

// Base exposes the shared part to middleware.
func (c *InteractionContext) Base() *InteractionContext { return c }

// User resolves the invoking user in guilds and DMs.
func (c *InteractionContext) User() *discordgo.User {
	if c.Event.Member != nil && c.Event.Member.User != nil {
		return c.Event.Member.User
	}
	if c.Event.User != nil {
		return c.Event.User
	}
	return &discordgo.User{ID: "unknown", Username: "Unknown"}
}

// Interactive is implemented by all interaction contexts.
type Interactive interface {
	Base() *InteractionContext
}

type SlashInteractionContext struct {
	InteractionContext
}

type ComponentInteractionContext struct {
	InteractionContext
}

type MessageApplicationCommandContext struct {
	InteractionContext
	Target *discordgo.Message
}

type MessageReactionContext struct {
	Session  *discordgo.Session
	Event    *discordgo.MessageReactionAdd
	Services *Services
}

// Providers: how a command is registered with Discord.

type SlashProvider interface {
	SlashDefinition() *discordgo.ApplicationCommand
}

type ContextMenuProvider interface {
	ContextDefinition() *discordgo.ApplicationCommand
}

type ReactionProvider interface {
	ReactionDefinition() string
}

type ComponentInteractionHandler interface {
	Component(ctx context.Context, c *ComponentInteractionContext) error
}

// DiscordMeta lets middleware read group, category and permissions
// without knowing the concrete command type.
type DiscordMeta interface {
	Group() string
	Category() string
	UserPermissions() []int64
}

// DiscordCommand is what individual commands implement. data is one of the contexts above.
type DiscordCommand interface {
	Name() string
	Description() string
	Group() string
	Category() string
	UserPermissions() []int64
	Run(ctx context.Context, data any) error
}

// DiscordAdapter lets a DiscordCommand live in the cmd registry.
type DiscordAdapter struct {
	Cmd DiscordCommand
}

func (a *DiscordAdapter) Name() string             { return a.Cmd.Name() }
func (a *DiscordAdapter) Description() string      { return a.Cmd.Description() }
func (a *DiscordAdapter) Group() string            { return a.Cmd.Group() }
func (a *DiscordAdapter) Category() string         { return a.Cmd.Category() }
func (a *DiscordAdapter) UserPermissions() []int64 { return a.Cmd.UserPermissions() }

func (a *DiscordAdapter) Run(ctx context.Context, inv *cmd.Invocation) error {
	return a.Cmd.Run(ctx, inv.Data)
}

func (a *DiscordAdapter) SlashDefinition() *discordgo.ApplicationCommand {
	if sp, ok := a.Cmd.(SlashProvider); ok {
		return sp.SlashDefinition()
	}
	return nil
}

func (a *DiscordAdapter) ContextDefinition() *discordgo.ApplicationCommand {
	if cp, ok := a.Cmd.(ContextMenuProvider); ok {
		return cp.ContextDefinition()
	}
	return nil
}

func (a *DiscordAdapter) ReactionDefinition() string {
	if rp, ok := a.Cmd.(ReactionProvider); ok {
		return rp.ReactionDefinition()
	}
	return ""
}

// RegisterCommand wraps discordCmd in mws and adds it to the default registry.
func RegisterCommand(discordCmd DiscordCommand, mws ...cmd.Middleware) {
	cmd.DefaultRegistry.MustRegister(cmd.Apply(&DiscordAdapter{Cmd: discordCmd}, mws...))
}

// AllCommands lists registered commands with their Discord metadata.
func AllCommands() []DiscordCommand {
	var out []DiscordCommand
	for _, c := range cmd.DefaultRegistry.GetAll() {
		if a, ok := cmd.Root(c).(*DiscordAdapter); ok {
			out = append(out, a.Cmd)
		}
	}
	return out
}

// Definition returns the application command for c, or nil for reaction-only commands.
func Definition(c cmd.Command) *discordgo.ApplicationCommand {
	root := cmd.Root(c)
	if slash, ok := root.(SlashProvider); ok {
		if def := slash.SlashDefinition(); def != nil {
			if def.Type == 0 {
				def.Type = discordgo.ChatApplicationCommand
			}
			return def
		}
	}
	if menu, ok := root.(ContextMenuProvider); ok {
		if def := menu.ContextDefinition(); def != nil {
			if def.Type == 0 {
				def.Type = discordgo.MessageApplicationCommand
			}
			return def
		}
	}
	return nil
}

// IsReaction reports whether c wants reaction events.
func IsReaction(c cmd.Command) bool {
	rp, ok := cmd.Root(c).(ReactionProvider)
	return ok && rp.ReactionDefinition() != ""
}
