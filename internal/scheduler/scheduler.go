// Package scheduler runs the periodic mood work: transient reversion, activity decay
// and the heartbeat (ambient flavor, idle drift, seasonal entry).
package scheduler

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/keshon/whisperling/internal/activity"
	"github.com/keshon/whisperling/internal/mood"
	"github.com/keshon/whisperling/internal/storage"
	"github.com/keshon/whisperling/pkg/jobmgr"
	"github.com/keshon/whisperling/pkg/util"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	JobRevert    = "mood-revert"
	JobDecay     = "activity-decay"
	JobHeartbeat = "heartbeat"
)

// Settings is the per-guild configuration the heartbeat reads.
type Settings interface {
	GuildIDs() []string
	AmbientChatter(guildID string) bool
	AnnounceChannel(guildID string) string
	Languages(guildID string) ([]storage.Language, error)
}

// Sender posts plain text to a channel.
type Sender interface {
	SendText(ctx context.Context, channelID, text string) error
}

// Styler renders flavor text in a form's voice, optionally translated.
type Styler interface {
	Styled(ctx context.Context, form mood.Form, text, lang string) string
}

type Options struct {
	RevertInterval    time.Duration
	DecayInterval     time.Duration
	HeartbeatInterval time.Duration
	FlavorCooldown    time.Duration
	Workers           int
}

func DefaultOptions() Options {
	return Options{
		RevertInterval:    60 * time.Second,
		DecayInterval:     60 * time.Second,
		HeartbeatInterval: 600 * time.Second,
		FlavorCooldown:    2 * time.Hour,
		Workers:           4,
	}
}

type Scheduler struct {
	engine   *mood.Engine
	activity *activity.Tracker
	settings Settings
	sender   Sender
	styler   Styler
	jobs     *jobmgr.Manager
	opts     Options
	rng      mood.Random
	now      func() time.Time
	log      zerolog.Logger
}

type Option func(*Scheduler)

func WithRandom(r mood.Random) Option       { return func(s *Scheduler) { s.rng = r } }
func WithClock(now func() time.Time) Option { return func(s *Scheduler) { s.now = now } }
func WithJobs(m *jobmgr.Manager) Option     { return func(s *Scheduler) { s.jobs = m } }

func New(engine *mood.Engine, tracker *activity.Tracker, settings Settings, sender Sender, styler Styler, opts Options, options ...Option) *Scheduler {
	def := DefaultOptions()
	if opts.RevertInterval <= 0 {
		opts.RevertInterval = def.RevertInterval
	}
	if opts.DecayInterval <= 0 {
		opts.DecayInterval = def.DecayInterval
	}
	if opts.HeartbeatInterval <= 0 {
		opts.HeartbeatInterval = def.HeartbeatInterval
	}
	if opts.FlavorCooldown <= 0 {
		opts.FlavorCooldown = def.FlavorCooldown
	}
	if opts.Workers <= 0 {
		opts.Workers = def.Workers
	}

	s := &Scheduler{
		engine:   engine,
		activity: tracker,
		settings: settings,
		sender:   sender,
		styler:   styler,
		opts:     opts,
		rng:      stdRand{},
		now:      time.Now,
		log:      log.With().Str("component", "scheduler").Logger(),
	}
	for _, o := range options {
		o(s)
	}
	if s.jobs == nil {
		s.jobs = jobmgr.NewManager(s.report)
	}
	return s
}

// Start launches the three loops. They run until ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) error {
	loops := []struct {
		name  string
		every time.Duration
		tick  func(context.Context, time.Time)
	}{
		{JobRevert, s.opts.RevertInterval, s.Revert},
		{JobDecay, s.opts.DecayInterval, s.Decay},
		{JobHeartbeat, s.opts.HeartbeatInterval, s.Heartbeat},
	}
	var started []string
	for _, l := range loops {
		if err := s.jobs.StartAsync(ctx, l.name, every(l.every, s.now, l.tick)); err != nil {
			for _, name := range started {
				_ = s.jobs.Stop(name)
			}
			return fmt.Errorf("start %s: %w", l.name, err)
		}
		started = append(started, l.name)
	}
	s.log.Info().Strs("jobs", s.jobs.List()).Msg("Scheduler started")
	return nil
}

// Stop cancels the loops and waits for them to return.
func (s *Scheduler) Stop() {
	s.jobs.StopAll()
}

// Status summarizes the running loops.
func (s *Scheduler) Status() string {
	return s.jobs.Status()
}

func every(d time.Duration, now func() time.Time, tick func(context.Context, time.Time)) func(context.Context) error {
	return func(ctx context.Context) error {
		t := time.NewTicker(d)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				tick(ctx, now())
			}
		}
	}
}

// Revert ends transient forms that have run their course.
func (s *Scheduler) Revert(ctx context.Context, now time.Time) {
	s.eachCommunity(ctx, "revert", func(ctx context.Context, guildID string) error {
		s.engine.RevertIfExpired(ctx, guildID, now)
		return nil
	})
}

// Decay lowers activity scores.
func (s *Scheduler) Decay(_ context.Context, now time.Time) {
	s.activity.DecayAll(now)
}

// Heartbeat runs flavor emission, idle drift and seasonal entry for every community.
func (s *Scheduler) Heartbeat(ctx context.Context, now time.Time) {
	s.eachCommunity(ctx, "heartbeat", func(ctx context.Context, guildID string) error {
		err := s.flavor(ctx, guildID, now)
		s.engine.Drift(ctx, guildID)
		s.engine.EnterSeason(ctx, guildID, now)
		return err
	})
}

func (s *Scheduler) flavor(ctx context.Context, guildID string, now time.Time) error {
	if !s.settings.AmbientChatter(guildID) {
		return nil
	}
	c := s.engine.Snapshot(guildID)
	if !c.LastFlavorAt.IsZero() && now.Sub(c.LastFlavorAt) < s.opts.FlavorCooldown {
		return nil
	}
	if s.rng.Float64() >= s.activity.FlavorChance(guildID) {
		return nil
	}
	channelID := s.settings.AnnounceChannel(guildID)
	if channelID == "" {
		return nil
	}
	text := s.engine.Flavor(guildID)
	if text == "" {
		return nil
	}

	lang := ""
	if langs, err := s.settings.Languages(guildID); err == nil && len(langs) > 0 {
		lang = langs[s.rng.IntN(len(langs))].Code
	}
	text = s.styler.Styled(ctx, s.engine.Form(guildID), text, lang)

	if err := s.sender.SendText(ctx, channelID, text); err != nil {
		return fmt.Errorf("send flavor: %w", err)
	}
	s.engine.MarkFlavor(ctx, guildID, now)
	s.log.Debug().Str("guild", guildID).Str("lang", lang).Msg("Flavor emitted")
	return nil
}

// eachCommunity runs fn for every known guild; one guild's failure never stops the others.
func (s *Scheduler) eachCommunity(ctx context.Context, task string, fn func(context.Context, string) error) {
	if err := util.Parallel(ctx, s.guilds(), s.opts.Workers, fn); err != nil {
		s.log.Error().Err(err).Str("task", task).Msg("Scheduled task failed for some guilds")
	}
}

func (s *Scheduler) guilds() []string {
	set := make(map[string]struct{})
	for _, id := range s.engine.Communities() {
		set[id] = struct{}{}
	}
	for _, id := range s.settings.GuildIDs() {
		set[id] = struct{}{}
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *Scheduler) report(name string, ev jobmgr.Event, err error) {
	switch ev {
	case jobmgr.Failed:
		s.log.Error().Err(err).Str("job", name).Msg("Job failed")
	default:
		s.log.Debug().Str("job", name).Str("event", ev.String()).Msg("Job")
	}
}

type stdRand struct{}

func (stdRand) Float64() float64 { return rand.Float64() }
func (stdRand) IntN(n int) int   { return rand.Intn(n) }
