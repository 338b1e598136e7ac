// cmd/discord/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/keshon/whisperling/internal/command/core"
	_ "github.com/keshon/whisperling/internal/command/language"
	_ "github.com/keshon/whisperling/internal/command/persona"
	_ "github.com/keshon/whisperling/internal/command/translation"
	_ "github.com/keshon/whisperling/internal/command/welcome"

	"github.com/keshon/whisperling/internal/activity"
	"github.com/keshon/whisperling/internal/command"
	"github.com/keshon/whisperling/internal/config"
	"github.com/keshon/whisperling/internal/discord"
	"github.com/keshon/whisperling/internal/logging"
	"github.com/keshon/whisperling/internal/mood"
	"github.com/keshon/whisperling/internal/onboarding"
	"github.com/keshon/whisperling/internal/redisstore"
	"github.com/keshon/whisperling/internal/scheduler"
	"github.com/keshon/whisperling/internal/storage"
	"github.com/keshon/whisperling/internal/translate"
	v "github.com/keshon/whisperling/internal/version"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("Bot stopped")
	}
	log.Info().Msg("Discord bot exited cleanly")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logCloser := logging.Setup(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile, Pretty: cfg.LogPretty})
	defer logCloser.Close()

	log.Info().Str("version", v.Version).Str("commit", v.Commit).Msgf("Starting %s bot", v.AppName)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.New(cfg.StoragePath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	snapshots, snapCloser, err := openSnapshots(ctx, cfg, store)
	if err != nil {
		return err
	}
	defer snapCloser.Close()

	bot, err := discord.New(cfg, store)
	if err != nil {
		return err
	}

	cat, err := mood.DefaultCatalogue()
	if err != nil {
		return fmt.Errorf("load forms: %w", err)
	}
	facade := translate.NewFacade(translate.NewGoogleClient(cfg.TranslateRPS))

	engine, err := mood.NewEngine(cat, mood.Options{
		PlayfulForm:     cfg.Mood.PlayfulForm,
		ForgottenForm:   cfg.Mood.ForgottenForm,
		GlitchChance:    cfg.Mood.GlitchChance,
		PlayfulChance:   cfg.Mood.PlayfulChance,
		GlitchDuration:  cfg.Mood.GlitchDuration,
		ForgottenAfter:  cfg.Mood.ForgottenAfter,
		IdleDriftAfter:  cfg.Mood.IdleDriftAfter,
		IdleDriftChance: cfg.Mood.IdleDriftChance,
	},
		mood.WithAnnouncer(bot),
		mood.WithTranslator(facade),
		mood.WithLanguages(store),
		mood.WithSnapshots(snapshots),
	)
	if err != nil {
		return fmt.Errorf("create mood engine: %w", err)
	}
	if err := engine.Restore(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to restore mood snapshots, starting fresh")
	}

	tracker := activity.NewTracker(activity.Options{
		MaxScore:      cfg.Activity.MaxScore,
		MessageWeight: cfg.Activity.MessageWeight,
		VoiceWeight:   cfg.Activity.VoiceWeight,
		DecayWindow:   cfg.Activity.DecayWindow,
		BaseChance:    cfg.Activity.FlavorBaseChance,
		MaxChance:     cfg.Activity.FlavorMaxChance,
	}, time.Now)

	flow := onboarding.NewFlow(bot, store, engine, onboarding.Timeouts{
		Language: cfg.Onboarding.LanguageTimeout,
		Rules:    cfg.Onboarding.RulesTimeout,
		Role:     cfg.Onboarding.RoleTimeout,
		Cosmetic: cfg.Onboarding.CosmeticTimeout,
		Pacing:   cfg.Onboarding.Pacing,
	})

	sched := scheduler.New(engine, tracker, store, bot, facade, scheduler.Options{
		RevertInterval:    cfg.Schedule.RevertInterval,
		DecayInterval:     cfg.Schedule.DecayInterval,
		HeartbeatInterval: cfg.Schedule.HeartbeatInterval,
		FlavorCooldown:    cfg.Activity.FlavorCooldown,
	})
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	svc := &command.Services{
		Config:     cfg,
		Storage:    store,
		Mood:       engine,
		Activity:   tracker,
		Translate:  facade,
		Onboarding: flow,
		Jobs:       sched,
	}
	if err := bot.Run(ctx, svc); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("discord: %w", err)
	}
	return nil
}

// openSnapshots picks where mood state survives restarts.
func openSnapshots(ctx context.Context, cfg *config.Config, store *storage.Storage) (mood.SnapshotStore, io.Closer, error) {
	switch cfg.MoodBackend {
	case "redis":
		rs, err := redisstore.Open(ctx, redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("addr", cfg.RedisAddr).Msg("Mood snapshots in Redis")
		return rs, rs, nil
	case "memory":
		log.Warn().Msg("Mood snapshots kept in memory only")
		return mood.NewMemorySnapshots(), io.NopCloser(nil), nil
	default:
		return store, io.NopCloser(nil), nil
	}
}
