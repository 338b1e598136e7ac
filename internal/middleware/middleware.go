// Package middleware holds the cmd.Middleware chain shared by every Discord command.
package middleware

import (
	"context"
	"errors"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/pkg/cmd"
	"github.com/rs/zerolog/log"
)

// Default is the chain every command registers with, innermost first.
func Default() []cmd.Middleware {
	return []cmd.Middleware{
		WithUserPermissionCheck(),
		WithGuildOnly(),
		WithCommandLogger(),
		WithRecover(),
	}
}

// WithGuildOnly rejects interactions outside a guild.
func WithGuildOnly() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			switch v := inv.Data.(type) {
			case command.Interactive:
				b := v.Base()
				if b.Event.GuildID == "" {
					return command.RespondText(b.Session, b.Event, "You must be in a server to use this command.")
				}
			case *command.MessageReactionContext:
				if v.Event.GuildID == "" {
					return nil
				}
			}
			return c.Run(ctx, inv)
		})
	}
}

// WithRecover isolates a failing interaction: panics and errors are logged
// and the user gets a generic apology.
func WithRecover() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		inner := cmd.Apply(c, cmd.WithRecover())
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			err := inner.Run(ctx, inv)
			if err == nil {
				return nil
			}

			ev := log.Error().Err(err).Str("command", c.Name())
			var pe *cmd.PanicError
			if errors.As(err, &pe) {
				ev = ev.Bytes("stack", pe.Stack)
			}
			ev.Msg("Command failed")

			if v, ok := inv.Data.(command.Interactive); ok {
				b := v.Base()
				// Fails harmlessly if the command already responded.
				_ = command.RespondEmbedEphemeral(b.Session, b.Event, &discordgo.MessageEmbed{
					Description: "Something went wrong while running this command. Please try again later.",
					Color:       command.EmbedColor,
				})
			}
			return nil
		})
	}
}
