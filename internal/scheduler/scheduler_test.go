package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/keshon/whisperling/internal/activity"
	"github.com/keshon/whisperling/internal/mood"
	"github.com/keshon/whisperling/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type stubRand struct {
	f float64
	n int
}

func (r stubRand) Float64() float64 { return r.f }
func (r stubRand) IntN(n int) int   { return r.n % n }

type fakeSettings struct {
	guilds   []string
	chatter  map[string]bool
	channels map[string]string
	langs    []storage.Language
	panicOn  string
}

func (s *fakeSettings) GuildIDs() []string { return s.guilds }

func (s *fakeSettings) AmbientChatter(guildID string) bool {
	if guildID == s.panicOn {
		panic("settings unavailable")
	}
	on, ok := s.chatter[guildID]
	return !ok || on
}

func (s *fakeSettings) AnnounceChannel(guildID string) string { return s.channels[guildID] }

func (s *fakeSettings) Languages(string) ([]storage.Language, error) { return s.langs, nil }

type sent struct {
	channel string
	text    string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sent
}

func (f *fakeSender) SendText(_ context.Context, channelID, text string) error {
	if channelID == "broken" {
		return errors.New("missing access")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sent{channelID, text})
	return nil
}

type fakeStyler struct {
	mu    sync.Mutex
	langs []string
}

func (s *fakeStyler) Styled(_ context.Context, form mood.Form, text, lang string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.langs = append(s.langs, lang)
	return "[" + form.Key + "/" + lang + "] " + text
}

var t0 = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	sched    *Scheduler
	engine   *mood.Engine
	tracker  *activity.Tracker
	settings *fakeSettings
	sender   *fakeSender
	styler   *fakeStyler
	now      time.Time
}

func newFixture(t *testing.T, engineRand, schedRand stubRand) *fixture {
	t.Helper()
	f := &fixture{now: t0}
	clock := func() time.Time { return f.now }

	cat, err := mood.DefaultCatalogue()
	require.NoError(t, err)
	f.engine, err = mood.NewEngine(cat, mood.DefaultOptions(), mood.WithRandom(engineRand), mood.WithClock(clock))
	require.NoError(t, err)

	f.tracker = activity.NewTracker(activity.DefaultOptions(), clock)
	f.settings = &fakeSettings{
		guilds:   []string{"g1"},
		chatter:  map[string]bool{},
		channels: map[string]string{"g1": "c1"},
		langs:    []storage.Language{{Code: "de"}, {Code: "fr"}},
	}
	f.sender = &fakeSender{}
	f.styler = &fakeStyler{}
	f.sched = New(f.engine, f.tracker, f.settings, f.sender, f.styler, DefaultOptions(),
		WithRandom(schedRand), WithClock(clock))
	return f
}

func TestRevertEndsExpiredGlitch(t *testing.T) {
	f := newFixture(t, stubRand{f: 0.99}, stubRand{f: 0.99})
	ctx := context.Background()

	_, entered, err := f.engine.TriggerForm(ctx, "g1", "glitchspire", mood.ReasonGlitch)
	require.NoError(t, err)
	require.True(t, entered)

	f.sched.Revert(ctx, t0.Add(10*time.Minute))
	assert.Equal(t, "glitchspire", f.engine.Form("g1").Key)

	f.sched.Revert(ctx, t0.Add(31*time.Minute))
	assert.Equal(t, "dayform", f.engine.Form("g1").Key)
}

func TestDecayLowersScores(t *testing.T) {
	f := newFixture(t, stubRand{f: 0.99}, stubRand{f: 0.99})
	f.tracker.RecordMessage("g1")
	f.tracker.RecordMessage("g1")
	before := f.tracker.Score("g1")

	f.sched.Decay(context.Background(), t0.Add(5*time.Minute))
	assert.Less(t, f.tracker.Score("g1"), before)
}

func TestHeartbeatEmitsFlavorOncePerCooldown(t *testing.T) {
	f := newFixture(t, stubRand{f: 0.99}, stubRand{f: 0, n: 1})
	ctx := context.Background()

	f.sched.Heartbeat(ctx, t0)
	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "c1", f.sender.sent[0].channel)
	assert.Contains(t, f.sender.sent[0].text, "[dayform/fr]")
	assert.Equal(t, t0, f.engine.Snapshot("g1").LastFlavorAt)

	f.sched.Heartbeat(ctx, t0.Add(time.Hour))
	assert.Len(t, f.sender.sent, 1, "within cooldown")

	f.sched.Heartbeat(ctx, t0.Add(2*time.Hour))
	assert.Len(t, f.sender.sent, 2)
}

func TestHeartbeatRespectsChatterToggleAndChance(t *testing.T) {
	f := newFixture(t, stubRand{f: 0.99}, stubRand{f: 0})
	f.settings.chatter["g1"] = false
	f.sched.Heartbeat(context.Background(), t0)
	assert.Empty(t, f.sender.sent)

	f = newFixture(t, stubRand{f: 0.99}, stubRand{f: 0.5})
	f.sched.Heartbeat(context.Background(), t0)
	assert.Empty(t, f.sender.sent, "chance not met")

	f = newFixture(t, stubRand{f: 0.99}, stubRand{f: 0})
	delete(f.settings.channels, "g1")
	f.sched.Heartbeat(context.Background(), t0)
	assert.Empty(t, f.sender.sent, "no announce channel")
}

func TestHeartbeatDriftsIdleCommunity(t *testing.T) {
	f := newFixture(t, stubRand{f: 0, n: 2}, stubRand{f: 0.99})
	ctx := context.Background()
	f.engine.Touch(ctx, "g1", t0)

	f.now = t0.Add(29 * 24 * time.Hour)
	f.sched.Heartbeat(ctx, f.now)
	assert.Equal(t, "dayform", f.engine.Form("g1").Key)

	f.now = t0.Add(31 * 24 * time.Hour)
	f.sched.Heartbeat(ctx, f.now)
	got := f.engine.Form("g1")
	assert.Equal(t, mood.Standard, got.Category)
	assert.NotEqual(t, "dayform", got.Key)
}

func TestHeartbeatEntersSeason(t *testing.T) {
	f := newFixture(t, stubRand{f: 0.99}, stubRand{f: 0.99})
	f.now = time.Date(2025, 12, 20, 9, 0, 0, 0, time.UTC)

	f.sched.Heartbeat(context.Background(), f.now)
	assert.Equal(t, "yuleshard", f.engine.Form("g1").Key)
}

func TestHeartbeatIsolatesCommunities(t *testing.T) {
	f := newFixture(t, stubRand{f: 0.99}, stubRand{f: 0})
	f.settings.guilds = []string{"g0", "g1", "g2"}
	f.settings.channels["g0"] = "broken"
	f.settings.channels["g2"] = "c2"
	f.settings.panicOn = "g1"

	f.sched.Heartbeat(context.Background(), t0)

	require.Len(t, f.sender.sent, 1)
	assert.Equal(t, "c2", f.sender.sent[0].channel)
	assert.True(t, f.engine.Snapshot("g0").LastFlavorAt.IsZero(), "failed send is not marked")
}

func TestStartStop(t *testing.T) {
	f := newFixture(t, stubRand{f: 0.99}, stubRand{f: 0.99})
	opts := Options{
		RevertInterval:    5 * time.Millisecond,
		DecayInterval:     5 * time.Millisecond,
		HeartbeatInterval: 5 * time.Millisecond,
	}
	s := New(f.engine, f.tracker, f.settings, f.sender, f.styler, opts, WithRandom(stubRand{f: 0.99}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, s.Start(ctx))
	assert.Equal(t, "Running jobs: activity-decay, heartbeat, mood-revert", s.Status())
	assert.Error(t, s.Start(ctx), "loops start once")
	assert.Len(t, s.jobs.List(), 3)

	time.Sleep(20 * time.Millisecond)
	s.Stop()
	assert.Equal(t, "No jobs are running.", s.Status())
}
