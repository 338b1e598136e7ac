package discord

import (
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/onboarding"
	"github.com/keshon/whisperling/pkg/cmd"
)

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		if b.leaveIfBlacklisted(g.ID, g.Name) {
			continue
		}
		if !b.cfg.InitSlashCommands {
			continue
		}
		if err := b.registerCommands(g.ID); err != nil {
			b.log.Error().Err(err).Str("guild", g.ID).Msg("Failed to register commands")
		}
	}
	if !b.cfg.InitSlashCommands {
		b.log.Info().Msg("Command registration skipped")
	}
	b.log.Info().Str("user", r.User.Username).Int("guilds", len(r.Guilds)).Msg("Discord bot is running")
}

func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if b.leaveIfBlacklisted(g.ID, g.Name) {
		return
	}
	b.log.Debug().Str("guild", g.ID).Str("name", g.Name).Msg("Guild available")
	if !b.cfg.InitSlashCommands {
		return
	}
	if err := b.registerCommands(g.ID); err != nil {
		b.log.Error().Err(err).Str("guild", g.ID).Msg("Failed to register commands")
	}
}

// onGuildMemberAdd starts onboarding in the welcome channel.
func (b *Bot) onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	if m.User == nil || m.User.Bot || b.services == nil || b.services.Onboarding == nil {
		return
	}
	channelID := b.storage.WelcomeChannel(m.GuildID)
	if channelID == "" {
		return
	}

	member := onboarding.Member{GuildID: m.GuildID, UserID: m.User.ID, Mention: m.User.Mention()}
	go func() {
		out, err := b.services.Onboarding.Run(b.ctx, member, channelID)
		logger := b.log.With().Str("guild", m.GuildID).Str("user", m.User.ID).Logger()
		if err != nil {
			logger.Warn().Err(err).Str("step", out.Reached.String()).Msg("Onboarding stopped")
			return
		}
		logger.Info().Bool("completed", out.Completed).Bool("timed_out", out.TimedOut).
			Str("language", out.Language).Msg("Onboarding finished")
	}()
}

// onMessageCreate feeds activity and may wake the idle community or glitch the form.
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" || b.services == nil {
		return
	}
	svc := b.services
	if svc.Activity != nil {
		svc.Activity.RecordMessage(m.GuildID)
	}
	if svc.Mood != nil {
		svc.Mood.Touch(b.ctx, m.GuildID, time.Now())
		svc.Mood.MaybeGlitch(b.ctx, m.GuildID)
	}
}

// onVoiceStateUpdate counts joins; moves between channels and leaves don't.
func (b *Bot) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.ChannelID == "" || v.GuildID == "" || b.services == nil || b.services.Activity == nil {
		return
	}
	if v.BeforeUpdate != nil && v.BeforeUpdate.ChannelID != "" {
		return
	}
	if v.Member != nil && v.Member.User != nil && v.Member.User.Bot {
		return
	}
	b.services.Activity.RecordVoiceJoin(v.GuildID)
}

func (b *Bot) onMessageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if s.State != nil && s.State.User != nil && r.UserID == s.State.User.ID {
		return
	}
	for _, c := range cmd.DefaultRegistry.GetAll() {
		if !command.IsReaction(c) {
			continue
		}
		rc := &command.MessageReactionContext{Session: s, Event: r, Services: b.services}
		if err := c.Run(b.ctx, &cmd.Invocation{Data: rc}); err != nil {
			b.log.Error().Err(err).Str("command", c.Name()).Str("guild", r.GuildID).Msg("Reaction command failed")
		}
	}
}
