// Package discord runs the gateway session and connects Discord events to the commands,
// the mood engine and the onboarding flow.
package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/config"
	"github.com/keshon/whisperling/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsGuildVoiceStates |
	discordgo.IntentsMessageContent |
	discordgo.IntentsDirectMessages

// Bot owns the Discord session. It doubles as the mood announcer, the scheduler's
// sender and the onboarding platform, so it is built before those and run after.
type Bot struct {
	dg       *discordgo.Session
	cfg      *config.Config
	storage  *storage.Storage
	services *command.Services
	pending  *pendingPrompts
	log      zerolog.Logger

	// ctx outlives single events; flows started from handlers run on it.
	ctx context.Context
}

// New prepares a session without connecting.
func New(cfg *config.Config, store *storage.Storage) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	dg.Identify.Intents = intents

	return &Bot{
		dg:      dg,
		cfg:     cfg,
		storage: store,
		pending: newPendingPrompts(),
		log:     log.With().Str("component", "discord").Logger(),
		ctx:     context.Background(),
	}, nil
}

// Run connects, serves events until ctx is cancelled, then closes the session.
func (b *Bot) Run(ctx context.Context, svc *command.Services) error {
	b.ctx = ctx
	b.services = svc

	b.dg.AddHandler(b.onReady)
	b.dg.AddHandler(b.onGuildCreate)
	b.dg.AddHandler(b.onGuildMemberAdd)
	b.dg.AddHandler(b.onMessageCreate)
	b.dg.AddHandler(b.onMessageReactionAdd)
	b.dg.AddHandler(b.onVoiceStateUpdate)
	b.dg.AddHandler(b.onInteractionCreate)

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer b.dg.Close()

	go b.handleSystemEvents(ctx)

	<-ctx.Done()
	b.log.Info().Msg("Shutdown signal received, closing session")
	return nil
}

// leaveIfBlacklisted reports whether the guild was left.
func (b *Bot) leaveIfBlacklisted(guildID, name string) bool {
	if !b.cfg.IsGuildBlacklisted(guildID) {
		return false
	}
	b.log.Info().Str("guild", guildID).Str("name", name).Msg("Leaving blacklisted guild")
	if err := b.dg.GuildLeave(guildID); err != nil {
		b.log.Error().Err(err).Str("guild", guildID).Msg("Failed to leave guild")
	}
	return true
}
