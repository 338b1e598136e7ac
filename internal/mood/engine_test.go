package mood

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRand struct {
	f float64
	n int
}

func (r stubRand) Float64() float64 { return r.f }
func (r stubRand) IntN(n int) int   { return r.n % n }

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type announcement struct {
	guild, from, to, reason string
}

type recorder struct {
	mu  sync.Mutex
	got []announcement
}

func (r *recorder) Announce(_ context.Context, guildID string, from, to Form, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, announcement{guildID, from.Key, to.Key, reason})
}

type langs map[string]string

func (l langs) UserLanguage(_, userID string) string { return l[userID] }

type upper struct{ calls int }

func (u *upper) Translate(_ context.Context, text, lang string) string {
	u.calls++
	return "[" + lang + "] " + text
}

type fixture struct {
	engine *Engine
	clock  *clock
	ann    *recorder
	snaps  *MemorySnapshots
}

func newFixture(t *testing.T, r Random, opts ...Option) fixture {
	t.Helper()
	cat, err := DefaultCatalogue()
	require.NoError(t, err)

	clk := &clock{t: time.Date(2025, time.May, 10, 12, 0, 0, 0, time.UTC)}
	ann := &recorder{}
	snaps := NewMemorySnapshots()

	all := append([]Option{
		WithClock(clk.Now),
		WithAnnouncer(ann),
		WithSnapshots(snaps),
		WithRandom(r),
	}, opts...)

	e, err := NewEngine(cat, DefaultOptions(), all...)
	require.NoError(t, err)
	return fixture{engine: e, clock: clk, ann: ann, snaps: snaps}
}

func assertInvariants(t *testing.T, e *Engine, guildID string) {
	t.Helper()
	c := e.Snapshot(guildID)
	f := e.Form(guildID)
	assert.Equal(t, f.Category != Standard, c.TransientSince != nil, "transient_since tracks category of %s", f.Key)
	prev, ok := e.Catalogue().Lookup(c.PreviousStandard)
	require.True(t, ok)
	assert.Equal(t, Standard, prev.Category)
}

func TestEngine_LazyDefault(t *testing.T) {
	fx := newFixture(t, stubRand{f: 1})

	f := fx.engine.Form("g1")
	assert.Equal(t, "dayform", f.Key)
	assert.Equal(t, []string{"g1"}, fx.engine.Communities())
	assertInvariants(t, fx.engine, "g1")
}

func TestEngine_SetFormRejectsTransient(t *testing.T) {
	fx := newFixture(t, stubRand{f: 1})
	ctx := context.Background()

	_, err := fx.engine.SetForm(ctx, "g1", "nightform", "")
	require.NoError(t, err)

	_, err = fx.engine.SetForm(ctx, "g1", "echovoid", "")
	assert.ErrorIs(t, err, ErrInvalidFormRequest)
	_, err = fx.engine.SetForm(ctx, "g1", "yuleshard", "")
	assert.ErrorIs(t, err, ErrInvalidFormRequest)
	_, err = fx.engine.SetForm(ctx, "g1", "moonform", "")
	assert.ErrorIs(t, err, ErrUnknownForm)

	assert.Equal(t, "nightform", fx.engine.Form("g1").Key)
	assertInvariants(t, fx.engine, "g1")
}

func TestEngine_SetFormRandomIsStandard(t *testing.T) {
	for n := 0; n < 7; n++ {
		fx := newFixture(t, stubRand{f: 1, n: n})
		f, err := fx.engine.SetForm(context.Background(), "g1", RandomKey, "")
		require.NoError(t, err)
		assert.Equal(t, Standard, f.Category)
		assertInvariants(t, fx.engine, "g1")
	}
}

func TestEngine_SetFormIsIdempotent(t *testing.T) {
	fx := newFixture(t, stubRand{f: 1})
	ctx := context.Background()

	_, err := fx.engine.SetForm(ctx, "g1", "seaform", "")
	require.NoError(t, err)
	first := fx.engine.Snapshot("g1")

	_, err = fx.engine.SetForm(ctx, "g1", "seaform", "")
	require.NoError(t, err)
	second := fx.engine.Snapshot("g1")

	assert.Equal(t, first.Form, second.Form)
	assert.Nil(t, second.TransientSince)
	assertInvariants(t, fx.engine, "g1")
}

func TestEngine_FirstTransientWins(t *testing.T) {
	fx := newFixture(t, stubRand{f: 0, n: 1})
	ctx := context.Background()

	first, ok := fx.engine.TriggerTransient(ctx, "g1", Glitched)
	require.True(t, ok)
	assert.Equal(t, "glitchspire", first.Key)

	got, ok := fx.engine.TriggerTransient(ctx, "g1", Seasonal)
	assert.False(t, ok)
	assert.Equal(t, "glitchspire", got.Key)

	_, ok, err := fx.engine.TriggerForm(ctx, "g1", "flutterkin", ReasonPlayful)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, "glitchspire", fx.engine.Form("g1").Key)
	assertInvariants(t, fx.engine, "g1")
}

func TestEngine_TriggerFormRejectsStandard(t *testing.T) {
	fx := newFixture(t, stubRand{f: 1})
	_, _, err := fx.engine.TriggerForm(context.Background(), "g1", "nightform", "test")
	assert.ErrorIs(t, err, ErrInvalidFormRequest)
}

func TestEngine_GlitchRevertsAfterWindow(t *testing.T) {
	// flutterkin is the third glitched form in the catalogue.
	fx := newFixture(t, stubRand{f: 0, n: 2})
	ctx := context.Background()

	_, err := fx.engine.SetForm(ctx, "g1", "forestform", "")
	require.NoError(t, err)

	f, ok := fx.engine.TriggerTransient(ctx, "g1", Glitched)
	require.True(t, ok)
	require.Equal(t, "flutterkin", f.Key)

	fx.clock.Advance(29 * time.Minute)
	_, reverted := fx.engine.RevertIfExpired(ctx, "g1", fx.clock.Now())
	assert.False(t, reverted)

	fx.clock.Advance(2 * time.Minute)
	f, reverted = fx.engine.RevertIfExpired(ctx, "g1", fx.clock.Now())
	require.True(t, reverted)
	assert.Equal(t, "forestform", f.Key)
	assert.Nil(t, fx.engine.Snapshot("g1").TransientSince)
	assertInvariants(t, fx.engine, "g1")

	last := fx.ann.got[len(fx.ann.got)-1]
	assert.Equal(t, announcement{"g1", "flutterkin", "forestform", ReasonExpired}, last)
}

func TestEngine_RevertStandardIsNoop(t *testing.T) {
	fx := newFixture(t, stubRand{f: 1})
	f, reverted := fx.engine.RevertIfExpired(context.Background(), "g1", fx.clock.Now().Add(time.Hour))
	assert.False(t, reverted)
	assert.Equal(t, "dayform", f.Key)
}

func TestEngine_IdleDrift(t *testing.T) {
	fx := newFixture(t, stubRand{f: 0.1, n: 3})
	ctx := context.Background()

	fx.engine.Touch(ctx, "g1", fx.clock.Now())
	fx.clock.Advance(31 * 24 * time.Hour)

	before := fx.engine.Form("g1").Key
	f, drifted := fx.engine.Drift(ctx, "g1")
	require.True(t, drifted)
	assert.NotEqual(t, before, f.Key)
	assert.Equal(t, Standard, f.Category)
	require.NotEmpty(t, fx.ann.got)
	assert.Equal(t, ReasonDrift, fx.ann.got[len(fx.ann.got)-1].reason)
	assertInvariants(t, fx.engine, "g1")

	// The drift restarts the idle clock.
	_, drifted = fx.engine.Drift(ctx, "g1")
	assert.False(t, drifted)
}

func TestEngine_IdleDriftNeedsSilenceAndLuck(t *testing.T) {
	ctx := context.Background()

	fx := newFixture(t, stubRand{f: 0.1})
	fx.engine.Touch(ctx, "g1", fx.clock.Now())
	fx.clock.Advance(29 * 24 * time.Hour)
	_, drifted := fx.engine.Drift(ctx, "g1")
	assert.False(t, drifted)

	unlucky := newFixture(t, stubRand{f: 0.9})
	unlucky.engine.Touch(ctx, "g1", unlucky.clock.Now())
	unlucky.clock.Advance(31 * 24 * time.Hour)
	_, drifted = unlucky.engine.Drift(ctx, "g1")
	assert.False(t, drifted)
}

func TestEngine_TouchAfterLongSilenceEntersForgotten(t *testing.T) {
	fx := newFixture(t, stubRand{f: 1})
	ctx := context.Background()

	fx.engine.Touch(ctx, "g1", fx.clock.Now())
	fx.clock.Advance(15 * 24 * time.Hour)

	f, entered := fx.engine.Touch(ctx, "g1", fx.clock.Now())
	require.True(t, entered)
	assert.Equal(t, "echovoid", f.Key)
	assert.Equal(t, "dayform", fx.engine.Snapshot("g1").PreviousStandard)
	assertInvariants(t, fx.engine, "g1")

	_, entered = fx.engine.Touch(ctx, "g1", fx.clock.Now().Add(time.Minute))
	assert.False(t, entered)
}

func TestEngine_EnterSeasonOncePerYear(t *testing.T) {
	fx := newFixture(t, stubRand{f: 1})
	ctx := context.Background()
	solstice := time.Date(2025, time.December, 21, 9, 0, 0, 0, time.UTC)

	f, entered := fx.engine.EnterSeason(ctx, "g1", solstice)
	require.True(t, entered)
	assert.Equal(t, "yuleshard", f.Key)

	_, err := fx.engine.SetForm(ctx, "g1", "nightform", "")
	require.NoError(t, err)

	_, entered = fx.engine.EnterSeason(ctx, "g1", solstice.Add(time.Hour))
	assert.False(t, entered, "admin override holds for the rest of the window")

	_, entered = fx.engine.EnterSeason(ctx, "g1", time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC))
	assert.False(t, entered)
}

func TestEngine_SeasonRevertsOutsideWindow(t *testing.T) {
	fx := newFixture(t, stubRand{f: 1})
	ctx := context.Background()
	equinox := time.Date(2025, time.March, 20, 9, 0, 0, 0, time.UTC)

	_, entered := fx.engine.EnterSeason(ctx, "g1", equinox)
	require.True(t, entered)

	_, reverted := fx.engine.RevertIfExpired(ctx, "g1", equinox.Add(24*time.Hour))
	assert.False(t, reverted)

	f, reverted := fx.engine.RevertIfExpired(ctx, "g1", time.Date(2025, time.March, 23, 0, 0, 0, 0, time.UTC))
	require.True(t, reverted)
	assert.Equal(t, "dayform", f.Key)
	assertInvariants(t, fx.engine, "g1")
}

func TestEngine_MaybeGlitchAndPlayful(t *testing.T) {
	ctx := context.Background()

	calm := newFixture(t, stubRand{f: 0.5})
	_, glitched := calm.engine.MaybeGlitch(ctx, "g1")
	assert.False(t, glitched)
	assert.False(t, calm.engine.MaybePlayful(ctx, "g1"))

	lucky := newFixture(t, stubRand{f: 0.01})
	assert.True(t, lucky.engine.MaybePlayful(ctx, "g1"))
	assert.Equal(t, "flutterkin", lucky.engine.Form("g1").Key)
	assertInvariants(t, lucky.engine, "g1")
}

func TestEngine_TextForFallbackChain(t *testing.T) {
	tr := &upper{}
	fx := newFixture(t, stubRand{f: 1}, WithTranslator(tr), WithLanguages(langs{"u-de": "de", "u-en": "en"}))
	ctx := context.Background()

	_, err := fx.engine.SetForm(ctx, "g1", "nightform", "")
	require.NoError(t, err)

	night, _ := fx.engine.Catalogue().Lookup("nightform")
	want, ok := night.Text(EventWelcomeDesc)
	require.True(t, ok)
	got := fx.engine.TextFor(ctx, "g1", "u-en", EventWelcomeDesc, map[string]string{"user": "Mira"}, "")
	assert.Equal(t, Render(want, night, map[string]string{"user": "Mira"}), got)
	assert.Zero(t, tr.calls)

	// nightform has no playful activation line, so the baseline's is used.
	base, _ := fx.engine.Catalogue().Baseline().Text(EventPlayfulActivation)
	got = fx.engine.TextFor(ctx, "g1", "u-en", EventPlayfulActivation, map[string]string{"user": "Mira"}, "")
	assert.Equal(t, Render(base, night, map[string]string{"user": "Mira"}), got)

	got = fx.engine.TextFor(ctx, "g1", "u-de", EventWelcomeTitle, nil, "")
	assert.Contains(t, got, "[de] ")
	assert.Equal(t, 1, tr.calls)

	assert.Equal(t, "fallback", fx.engine.TextFor(ctx, "g1", "u-en", Event("nope"), nil, "fallback"))
}

func TestEngine_SnapshotRoundTrip(t *testing.T) {
	fx := newFixture(t, stubRand{f: 0, n: 0})
	ctx := context.Background()

	_, err := fx.engine.SetForm(ctx, "g1", "cosmosform", "")
	require.NoError(t, err)
	_, ok := fx.engine.TriggerTransient(ctx, "g1", Glitched)
	require.True(t, ok)
	want := fx.engine.Snapshot("g1")

	cat, err := DefaultCatalogue()
	require.NoError(t, err)
	restored, err := NewEngine(cat, DefaultOptions(), WithSnapshots(fx.snaps), WithClock(fx.clock.Now))
	require.NoError(t, err)
	require.NoError(t, restored.Restore(ctx))

	got := restored.Snapshot("g1")
	assert.Equal(t, want.Form, got.Form)
	assert.Equal(t, want.PreviousStandard, got.PreviousStandard)
	require.NotNil(t, got.TransientSince)
	assert.True(t, want.TransientSince.Equal(*got.TransientSince))
}

func TestEngine_RestoreRepairsBrokenSnapshots(t *testing.T) {
	ctx := context.Background()
	snaps := NewMemorySnapshots()
	require.NoError(t, snaps.SaveSnapshot(ctx, "g1", Community{Form: "ghostform", PreviousStandard: "echovoid"}))
	require.NoError(t, snaps.SaveSnapshot(ctx, "g2", Community{Form: "glitchspire", PreviousStandard: "seaform"}))

	cat, err := DefaultCatalogue()
	require.NoError(t, err)
	e, err := NewEngine(cat, DefaultOptions(), WithSnapshots(snaps))
	require.NoError(t, err)
	require.NoError(t, e.Restore(ctx))

	assert.Equal(t, "dayform", e.Form("g1").Key)
	assertInvariants(t, e, "g1")
	assert.Equal(t, "glitchspire", e.Form("g2").Key)
	assertInvariants(t, e, "g2")
}

func TestEngine_StyleAndFlavor(t *testing.T) {
	fx := newFixture(t, stubRand{f: 1, n: 0})
	_, err := fx.engine.SetForm(context.Background(), "g1", "hadesform", "")
	require.NoError(t, err)

	assert.Equal(t, "🔥 hello!", fx.engine.Style("g1", "hello"))
	hades, _ := fx.engine.Catalogue().Lookup("hadesform")
	assert.Equal(t, hades.Flavor()[0], fx.engine.Flavor("g1"))
}
