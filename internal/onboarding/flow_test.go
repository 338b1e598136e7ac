package onboarding

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/keshon/whisperling/datastore"
	"github.com/keshon/whisperling/internal/mood"
	"github.com/keshon/whisperling/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type never struct{}

func (never) Float64() float64 { return 1 }
func (never) IntN(int) int     { return 0 }

type reply struct {
	choice  string
	timeout bool
}

type fakePlatform struct {
	mu         sync.Mutex
	script     []reply
	prompts    []Prompt
	sent       []Message
	replies    []Message
	roles      []string
	addRoleErr error
}

func (p *fakePlatform) Prompt(_ context.Context, pr Prompt) (Answer, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, pr)
	if len(p.script) == 0 {
		return nil, ErrPromptTimeout
	}
	next := p.script[0]
	p.script = p.script[1:]
	if next.timeout {
		return nil, ErrPromptTimeout
	}
	return &fakeAnswer{p: p, choice: next.choice}, nil
}

func (p *fakePlatform) Send(_ context.Context, _ string, m Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, m)
	return nil
}

func (p *fakePlatform) AddRole(_ context.Context, _, _, roleID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.addRoleErr != nil {
		return p.addRoleErr
	}
	p.roles = append(p.roles, roleID)
	return nil
}

type fakeAnswer struct {
	p      *fakePlatform
	choice string
}

func (a *fakeAnswer) Choice() string { return a.choice }

func (a *fakeAnswer) Reply(_ context.Context, m Message) error {
	a.p.mu.Lock()
	defer a.p.mu.Unlock()
	a.p.replies = append(a.p.replies, m)
	return nil
}

type harness struct {
	flow     *Flow
	platform *fakePlatform
	store    *storage.Storage
	engine   *mood.Engine
	sleeps   int
}

func newHarness(t *testing.T, script ...reply) *harness {
	t.Helper()

	cfg := datastore.DefaultConfig(filepath.Join(t.TempDir(), "datastore.json"))
	cfg.AutoSaveInterval = 0
	ds, err := datastore.Open(cfg)
	require.NoError(t, err)
	store := storage.NewWithStore(ds)
	t.Cleanup(func() { store.Close() })

	cat, err := mood.DefaultCatalogue()
	require.NoError(t, err)
	engine, err := mood.NewEngine(cat, mood.DefaultOptions(), mood.WithRandom(never{}), mood.WithLanguages(store))
	require.NoError(t, err)

	h := &harness{platform: &fakePlatform{script: script}, store: store, engine: engine}
	h.flow = NewFlow(h.platform, store, engine, DefaultTimeouts())
	h.flow.sleep = func(ctx context.Context, d time.Duration) error {
		h.sleeps++
		return ctx.Err()
	}
	return h
}

func text(t *testing.T, e mood.Event, vars map[string]string) string {
	t.Helper()
	cat, err := mood.DefaultCatalogue()
	require.NoError(t, err)
	s, ok := cat.Baseline().Text(e)
	require.True(t, ok)
	return mood.Render(s, cat.Baseline(), vars)
}

var member = Member{GuildID: "g1", UserID: "u1", Mention: "<@u1>"}

func TestFlow_NoLanguages(t *testing.T) {
	h := newHarness(t)

	out, err := h.flow.Run(context.Background(), member, "welcome")
	require.NoError(t, err)

	assert.False(t, out.Completed)
	assert.Empty(t, h.platform.prompts)
	require.Len(t, h.platform.sent, 1)
	assert.Equal(t, NoLanguagesNotice, h.platform.sent[0].Description)
}

func TestFlow_LanguagesOnly(t *testing.T) {
	h := newHarness(t, reply{choice: "lang:de"})
	require.NoError(t, h.store.AddLanguage("g1", "en", "🗨️", "English"))
	require.NoError(t, h.store.AddLanguage("g1", "de", "📖", "Deutsch"))
	require.NoError(t, h.store.SetWelcome("g1", "de", "Willkommen, {user}!"))

	out, err := h.flow.Run(context.Background(), member, "welcome")
	require.NoError(t, err)

	assert.True(t, out.Completed)
	assert.Equal(t, "de", out.Language)
	assert.Equal(t, "de", h.store.UserLanguage("g1", "u1"))

	require.Len(t, h.platform.prompts, 1, "only the language prompt is shown")
	lp := h.platform.prompts[0]
	assert.Equal(t, "u1", lp.UserID)
	assert.Equal(t, 60*time.Second, lp.Timeout)
	require.Len(t, lp.Options, 3)
	assert.Equal(t, "lang:de", lp.Options[0].ID)
	assert.Equal(t, optCancel, lp.Options[2].ID)

	require.Len(t, h.platform.sent, 2)
	assert.Equal(t, text(t, mood.EventRulesNone, map[string]string{"user": "<@u1>"}), h.platform.sent[0].Description)
	assert.Equal(t, "Willkommen, <@u1>!", h.platform.sent[1].Description)
	assert.Equal(t, 4, h.sleeps)
}

func TestFlow_LanguageTimeout(t *testing.T) {
	h := newHarness(t, reply{timeout: true})
	require.NoError(t, h.store.PreloadLanguages("g1"))
	require.NoError(t, h.store.SetRules("g1", "en", "Be kind."))
	require.NoError(t, h.store.AddRoleOption("g1", storage.PrimaryRole, storage.RoleOption{RoleID: "r1", Label: "Artist"}))

	out, err := h.flow.Run(context.Background(), member, "welcome")
	require.NoError(t, err)

	assert.True(t, out.TimedOut)
	assert.False(t, out.Completed)
	assert.Equal(t, LanguageSelect, out.Reached)
	assert.Equal(t, "", h.store.UserLanguage("g1", "u1"))
	assert.Len(t, h.platform.prompts, 1)
	require.Len(t, h.platform.sent, 1)
	assert.Equal(t, text(t, mood.EventTimeoutLanguage, map[string]string{"user": "<@u1>"}), h.platform.sent[0].Description)
	assert.Zero(t, h.sleeps)
}

func TestFlow_Cancel(t *testing.T) {
	h := newHarness(t, reply{choice: optCancel})
	require.NoError(t, h.store.PreloadLanguages("g1"))

	out, err := h.flow.Run(context.Background(), member, "welcome")
	require.NoError(t, err)
	assert.True(t, out.Cancelled)
	assert.Equal(t, "", h.store.UserLanguage("g1", "u1"))
	assert.Empty(t, h.platform.sent)
}

func TestFlow_FullPath(t *testing.T) {
	h := newHarness(t,
		reply{choice: "lang:fr"},
		reply{choice: optAccept},
		reply{choice: "role:r1"},
		reply{choice: "role:c1"},
	)
	require.NoError(t, h.store.PreloadLanguages("g1"))
	require.NoError(t, h.store.SetRules("g1", "en", "Be kind."))
	require.NoError(t, h.store.AddRoleOption("g1", storage.PrimaryRole, storage.RoleOption{RoleID: "r1", Label: "Artist", Emoji: "🎨"}))
	require.NoError(t, h.store.AddRoleOption("g1", storage.CosmeticRole, storage.RoleOption{RoleID: "c1", Label: "Pink", Emoji: "🌸"}))

	out, err := h.flow.Run(context.Background(), member, "welcome")
	require.NoError(t, err)

	assert.True(t, out.Completed)
	assert.Equal(t, "r1", out.Role)
	assert.Equal(t, "c1", out.Cosmetic)
	assert.Equal(t, []string{"r1", "c1"}, h.platform.roles)

	require.Len(t, h.platform.prompts, 4)
	assert.Equal(t, "Be kind.", h.platform.prompts[1].Message.Description, "french falls back to english rules")
	assert.Equal(t, 90*time.Second, h.platform.prompts[1].Timeout)
	assert.Equal(t, optSkip, h.platform.prompts[3].Options[len(h.platform.prompts[3].Options)-1].ID)

	require.Len(t, h.platform.replies, 4)
	assert.Equal(t, text(t, mood.EventRoleGranted, map[string]string{"user": "<@u1>", "role": "Artist"}), h.platform.replies[2].Description)

	last := h.platform.sent[len(h.platform.sent)-1]
	assert.Equal(t, "Bienvenue, <@u1>!", last.Description)
	assert.Equal(t, text(t, mood.EventWelcomeTitle, nil), last.Title)
}

func TestFlow_RoleTimeoutDegradesForward(t *testing.T) {
	h := newHarness(t,
		reply{choice: "lang:en"},
		reply{timeout: true},
		reply{choice: optSkip},
	)
	require.NoError(t, h.store.PreloadLanguages("g1"))
	require.NoError(t, h.store.AddRoleOption("g1", storage.PrimaryRole, storage.RoleOption{RoleID: "r1", Label: "Artist"}))
	require.NoError(t, h.store.AddRoleOption("g1", storage.CosmeticRole, storage.RoleOption{RoleID: "c1", Label: "Pink"}))

	out, err := h.flow.Run(context.Background(), member, "welcome")
	require.NoError(t, err)

	assert.True(t, out.Completed)
	assert.True(t, out.TimedOut)
	assert.Empty(t, out.Role)
	assert.Empty(t, h.platform.roles)
	assert.Len(t, h.platform.prompts, 3)
	assert.Equal(t, text(t, mood.EventCosmeticSkipped, map[string]string{"user": "<@u1>"}), h.platform.replies[len(h.platform.replies)-1].Description)
}

func TestFlow_RulesTimeoutEndsFlow(t *testing.T) {
	h := newHarness(t, reply{choice: "lang:en"}, reply{timeout: true})
	require.NoError(t, h.store.PreloadLanguages("g1"))
	require.NoError(t, h.store.SetRules("g1", "en", "Be kind."))
	require.NoError(t, h.store.AddRoleOption("g1", storage.PrimaryRole, storage.RoleOption{RoleID: "r1", Label: "Artist"}))

	out, err := h.flow.Run(context.Background(), member, "welcome")
	require.NoError(t, err)

	assert.False(t, out.Completed)
	assert.Equal(t, RulesAccept, out.Reached)
	assert.Len(t, h.platform.prompts, 2)
}

func TestFlow_RoleAssignmentFailureContinues(t *testing.T) {
	h := newHarness(t, reply{choice: "lang:en"}, reply{choice: "role:r1"})
	h.platform.addRoleErr = errors.New("missing permissions")
	require.NoError(t, h.store.PreloadLanguages("g1"))
	require.NoError(t, h.store.AddRoleOption("g1", storage.PrimaryRole, storage.RoleOption{RoleID: "r1", Label: "Artist"}))

	out, err := h.flow.Run(context.Background(), member, "welcome")
	require.NoError(t, err)

	assert.True(t, out.Completed)
	assert.Empty(t, out.Role)
	assert.Equal(t, roleErrorMessage, h.platform.replies[len(h.platform.replies)-1].Description)
}

func TestFlow_ChooseLanguage(t *testing.T) {
	h := newHarness(t, reply{choice: "lang:es"})
	require.NoError(t, h.store.PreloadLanguages("g1"))

	out, err := h.flow.ChooseLanguage(context.Background(), member, "welcome")
	require.NoError(t, err)
	assert.True(t, out.Completed)
	assert.Equal(t, "es", h.store.UserLanguage("g1", "u1"))
	assert.Empty(t, h.platform.sent)
	assert.Len(t, h.platform.replies, 1)
}

func TestFlow_CancelledContext(t *testing.T) {
	h := newHarness(t, reply{choice: "lang:en"})
	require.NoError(t, h.store.PreloadLanguages("g1"))
	h.flow.sleep = sleepCtx

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := h.flow.Run(ctx, member, "welcome")
	assert.ErrorIs(t, err, context.Canceled)
}
