package middleware

import (
	"context"
	"time"

	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/storage"
	"github.com/keshon/whisperling/pkg/cmd"
	"github.com/rs/zerolog/log"
)

// WithCommandLogger logs each execution and appends it to the guild's command history.
func WithCommandLogger() cmd.Middleware {
	return func(c cmd.Command) cmd.Command {
		return cmd.Wrap(c, func(ctx context.Context, inv *cmd.Invocation) error {
			start := time.Now()
			err := c.Run(ctx, inv)

			var (
				rec     storage.CommandHistoryRecord
				store   *storage.Storage
				guildID string
			)
			switch v := inv.Data.(type) {
			case command.Interactive:
				b := v.Base()
				user := b.User()
				rec = storage.CommandHistoryRecord{
					ChannelID: b.Event.ChannelID,
					UserID:    user.ID,
					Username:  user.Username,
				}
				store, guildID = b.Services.Storage, b.Event.GuildID
			case *command.MessageReactionContext:
				rec = storage.CommandHistoryRecord{
					ChannelID: v.Event.ChannelID,
					UserID:    v.Event.UserID,
				}
				store, guildID = v.Services.Storage, v.Event.GuildID
			default:
				return err
			}
			rec.Command = c.Name()
			rec.Datetime = start

			log.Info().
				Str("command", rec.Command).
				Str("guild", guildID).
				Str("user", rec.UserID).
				Dur("took", time.Since(start)).
				Msg("Command executed")

			if store != nil && guildID != "" {
				if e := store.AppendCommandToHistory(guildID, rec); e != nil {
					log.Warn().Err(e).Str("command", rec.Command).Msg("Failed to record command history")
				}
			}
			return err
		})
	}
}
