package discord

import "context"

type SystemEventType string

const (
	SystemEventRefreshCommands SystemEventType = "refresh_commands"
)

// SystemEvent asks the running bot to do housekeeping outside a command's own interaction.
type SystemEvent struct {
	Type    SystemEventType
	GuildID string
	Target  string // "all" or a command name
}

var systemEventBus = make(chan SystemEvent, 16)

// PublishSystemEvent queues evt. It never blocks; events beyond the buffer are dropped.
func PublishSystemEvent(evt SystemEvent) bool {
	select {
	case systemEventBus <- evt:
		return true
	default:
		return false
	}
}

func (b *Bot) handleSystemEvents(ctx context.Context) {
	for {
		select {
		case ev := <-systemEventBus:
			switch ev.Type {
			case SystemEventRefreshCommands:
				b.log.Info().Str("guild", ev.GuildID).Str("target", ev.Target).Msg("Refreshing commands")
				b.handleRefreshCommands(ev)
			}
		case <-ctx.Done():
			return
		}
	}
}
