// Package mood is the persona state engine: it owns each guild's current form,
// decides transitions and renders persona text.
package mood

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrInvalidFormRequest is returned when a Seasonal or Glitched form is requested directly.
	ErrInvalidFormRequest = errors.New("only standard forms can be requested")
	// ErrUnknownForm is returned for keys missing from the catalogue.
	ErrUnknownForm = errors.New("unknown form")
)

// RandomKey asks SetForm for a uniformly chosen Standard form.
const RandomKey = "random"

// Transition reasons passed to the Announcer.
const (
	ReasonAdmin     = "admin"
	ReasonExpired   = "expired"
	ReasonGlitch    = "glitch"
	ReasonSeason    = "season"
	ReasonDrift     = "drift"
	ReasonForgotten = "forgotten"
	ReasonPlayful   = "playful"
)

// Announcer is told about every form change. Delivery is best effort.
type Announcer interface {
	Announce(ctx context.Context, guildID string, from, to Form, reason string)
}

// Translator renders text into a language, returning the input on failure.
type Translator interface {
	Translate(ctx context.Context, text, lang string) string
}

// Languages resolves a member's chosen language code.
type Languages interface {
	UserLanguage(guildID, userID string) string
}

// Options are the engine's tunables.
type Options struct {
	PlayfulForm     string
	ForgottenForm   string
	GlitchChance    float64
	PlayfulChance   float64
	GlitchDuration  time.Duration // overrides per-form durations when > 0
	ForgottenAfter  time.Duration
	IdleDriftAfter  time.Duration
	IdleDriftChance float64
}

// DefaultOptions returns the stock tunables.
func DefaultOptions() Options {
	return Options{
		PlayfulForm:     "flutterkin",
		ForgottenForm:   "echovoid",
		GlitchChance:    0.03,
		PlayfulChance:   0.02,
		ForgottenAfter:  14 * 24 * time.Hour,
		IdleDriftAfter:  30 * 24 * time.Hour,
		IdleDriftChance: 0.25,
	}
}

// Engine applies transitions to State.
type Engine struct {
	cat   *Catalogue
	state *State
	opts  Options

	announcer  Announcer
	translator Translator
	languages  Languages
	snapshots  SnapshotStore
	rng        Random
	now        func() time.Time
	log        zerolog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithAnnouncer(a Announcer) Option      { return func(e *Engine) { e.announcer = a } }
func WithTranslator(t Translator) Option    { return func(e *Engine) { e.translator = t } }
func WithLanguages(l Languages) Option      { return func(e *Engine) { e.languages = l } }
func WithSnapshots(s SnapshotStore) Option  { return func(e *Engine) { e.snapshots = s } }
func WithRandom(r Random) Option            { return func(e *Engine) { e.rng = r } }
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }
func WithLogger(l zerolog.Logger) Option    { return func(e *Engine) { e.log = l } }

// NewEngine validates opts against the catalogue.
func NewEngine(cat *Catalogue, opts Options, options ...Option) (*Engine, error) {
	e := &Engine{
		cat:  cat,
		opts: opts,
		rng:  globalRand{},
		now:  time.Now,
		log:  log.With().Str("component", "mood").Logger(),
	}
	for _, o := range options {
		o(e)
	}

	for _, key := range []string{opts.PlayfulForm, opts.ForgottenForm} {
		f, ok := cat.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownForm, key)
		}
		if f.Category == Standard {
			return nil, fmt.Errorf("form %q must not be standard", key)
		}
	}

	e.state = NewState(cat.Baseline().Key, e.now)
	return e, nil
}

// Catalogue returns the engine's forms.
func (e *Engine) Catalogue() *Catalogue { return e.cat }

// Restore loads persisted snapshots, repairing any that break the form invariants.
func (e *Engine) Restore(ctx context.Context) error {
	if e.snapshots == nil {
		return nil
	}
	snaps, err := e.snapshots.LoadSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("load mood snapshots: %w", err)
	}
	for guildID, c := range snaps {
		e.state.Put(guildID, e.repair(c))
	}
	e.log.Info().Int("communities", len(snaps)).Msg("Mood state restored")
	return nil
}

func (e *Engine) repair(c Community) Community {
	base := e.cat.Baseline().Key
	if f, ok := e.cat.Lookup(c.PreviousStandard); !ok || f.Category != Standard {
		c.PreviousStandard = base
	}
	f, ok := e.cat.Lookup(c.Form)
	if !ok {
		c.Form = c.PreviousStandard
		f, _ = e.cat.Lookup(c.Form)
	}
	switch {
	case f.Category == Standard:
		c.TransientSince = nil
	case c.TransientSince == nil:
		now := e.now()
		c.TransientSince = &now
	}
	if c.FormSince.IsZero() {
		c.FormSince = c.LastInteractionAt
	}
	return c
}

// Form returns the guild's current form.
func (e *Engine) Form(guildID string) Form {
	return e.formOf(e.state.Get(guildID))
}

func (e *Engine) formOf(c Community) Form {
	if f, ok := e.cat.Lookup(c.Form); ok {
		return f
	}
	return e.cat.Baseline()
}

// Snapshot returns a copy of the guild's mood state.
func (e *Engine) Snapshot(guildID string) Community {
	return e.state.Get(guildID)
}

// Communities lists every guild the engine has seen.
func (e *Engine) Communities() []string {
	return e.state.IDs()
}

// SetForm switches to a Standard form (or RandomKey) on request.
func (e *Engine) SetForm(ctx context.Context, guildID, key, reason string) (Form, error) {
	var target Form
	if key == RandomKey {
		f, ok := e.cat.pick(e.rng, Standard, "")
		if !ok {
			return Form{}, fmt.Errorf("%w: no standard forms", ErrUnknownForm)
		}
		target = f
	} else {
		f, ok := e.cat.Lookup(key)
		if !ok {
			return Form{}, fmt.Errorf("%w: %q", ErrUnknownForm, key)
		}
		if f.Category != Standard {
			return Form{}, fmt.Errorf("%w: %q is %s", ErrInvalidFormRequest, key, f.Category)
		}
		target = f
	}

	now := e.now()
	var from string
	c, _ := e.state.Update(guildID, func(c *Community) bool {
		from = c.Form
		if cur, ok := e.cat.Lookup(c.Form); ok && cur.Category == Standard {
			c.PreviousStandard = c.Form
		}
		c.Form = target.Key
		c.FormSince = now
		c.TransientSince = nil
		c.LastInteractionAt = now
		return true
	})

	if reason == "" {
		reason = ReasonAdmin
	}
	e.changed(ctx, guildID, c, from, reason)
	return target, nil
}

// TriggerTransient enters a random form of the given transient category.
// It is a no-op while a transient form is already active.
func (e *Engine) TriggerTransient(ctx context.Context, guildID string, cat Category) (Form, bool) {
	var target Form
	switch cat {
	case Glitched:
		f, ok := e.cat.pick(e.rng, Glitched, "")
		if !ok {
			return Form{}, false
		}
		target = f
	case Seasonal:
		f, ok := e.cat.SeasonalAt(e.now())
		if !ok {
			if f, ok = e.cat.pick(e.rng, Seasonal, ""); !ok {
				return Form{}, false
			}
		}
		target = f
	default:
		return Form{}, false
	}

	reason := ReasonGlitch
	if cat == Seasonal {
		reason = ReasonSeason
	}
	return e.enterTransient(ctx, guildID, target, reason)
}

// TriggerForm enters a specific transient form for a known cause.
func (e *Engine) TriggerForm(ctx context.Context, guildID, key, cause string) (Form, bool, error) {
	f, ok := e.cat.Lookup(key)
	if !ok {
		return Form{}, false, fmt.Errorf("%w: %q", ErrUnknownForm, key)
	}
	if f.Category == Standard {
		return Form{}, false, fmt.Errorf("%w: %q is standard", ErrInvalidFormRequest, key)
	}
	got, entered := e.enterTransient(ctx, guildID, f, cause)
	return got, entered, nil
}

// MaybeGlitch rolls the glitch chance.
func (e *Engine) MaybeGlitch(ctx context.Context, guildID string) (Form, bool) {
	if e.rng.Float64() >= e.opts.GlitchChance {
		return e.Form(guildID), false
	}
	return e.TriggerTransient(ctx, guildID, Glitched)
}

// MaybePlayful rolls the playful chance and enters the playful form on success.
func (e *Engine) MaybePlayful(ctx context.Context, guildID string) bool {
	if e.rng.Float64() >= e.opts.PlayfulChance {
		return false
	}
	_, entered, err := e.TriggerForm(ctx, guildID, e.opts.PlayfulForm, ReasonPlayful)
	return err == nil && entered
}

// enterTransient applies a transient form unless one is already active.
func (e *Engine) enterTransient(ctx context.Context, guildID string, target Form, reason string) (Form, bool) {
	now := e.now()
	var from string
	c, entered := e.state.Update(guildID, func(c *Community) bool {
		if c.TransientSince != nil {
			return false
		}
		from = c.Form
		c.PreviousStandard = c.Form
		c.Form = target.Key
		c.FormSince = now
		c.TransientSince = &now
		if target.Window != nil && target.Window.Contains(now) {
			c.SeasonalMark = seasonalMark(target.Key, now)
		}
		return true
	})
	if !entered {
		return e.formOf(c), false
	}
	e.changed(ctx, guildID, c, from, reason)
	return target, true
}

// RevertIfExpired returns a transient form to the previous Standard form once it has run its course.
func (e *Engine) RevertIfExpired(ctx context.Context, guildID string, now time.Time) (Form, bool) {
	var from string
	c, reverted := e.state.Update(guildID, func(c *Community) bool {
		if c.TransientSince == nil {
			return false
		}
		if f, ok := e.cat.Lookup(c.Form); ok && !e.expired(f, *c.TransientSince, now) {
			return false
		}
		from = c.Form
		c.Form = c.PreviousStandard
		if f, ok := e.cat.Lookup(c.Form); !ok || f.Category != Standard {
			c.Form = e.cat.Baseline().Key
			c.PreviousStandard = c.Form
		}
		c.FormSince = now
		c.TransientSince = nil
		return true
	})
	if !reverted {
		return e.formOf(c), false
	}
	e.changed(ctx, guildID, c, from, ReasonExpired)
	return e.formOf(c), true
}

func (e *Engine) expired(f Form, since, now time.Time) bool {
	switch f.Category {
	case Glitched:
		d := f.Duration
		if e.opts.GlitchDuration > 0 {
			d = e.opts.GlitchDuration
		}
		return now.Sub(since) >= d
	case Seasonal:
		return !f.Window.Contains(now)
	}
	return true
}

// Drift moves a long-idle Standard form to a different random Standard form.
func (e *Engine) Drift(ctx context.Context, guildID string) (Form, bool) {
	now := e.now()
	c := e.state.Get(guildID)
	if c.TransientSince != nil || idleSince(c, now) < e.opts.IdleDriftAfter {
		return e.formOf(c), false
	}
	if e.rng.Float64() >= e.opts.IdleDriftChance {
		return e.formOf(c), false
	}
	target, ok := e.cat.pick(e.rng, Standard, c.Form)
	if !ok {
		return e.formOf(c), false
	}

	var from string
	c, drifted := e.state.Update(guildID, func(c *Community) bool {
		if c.TransientSince != nil || idleSince(*c, now) < e.opts.IdleDriftAfter {
			return false
		}
		from = c.Form
		c.PreviousStandard = c.Form
		c.Form = target.Key
		c.FormSince = now
		return true
	})
	if !drifted {
		return e.formOf(c), false
	}
	e.changed(ctx, guildID, c, from, ReasonDrift)
	return target, true
}

func idleSince(c Community, now time.Time) time.Duration {
	last := c.LastInteractionAt
	if c.FormSince.After(last) {
		last = c.FormSince
	}
	return now.Sub(last)
}

// Touch records an interaction. A return after a long silence enters the forgotten form.
func (e *Engine) Touch(ctx context.Context, guildID string, now time.Time) (Form, bool) {
	target, _ := e.cat.Lookup(e.opts.ForgottenForm)

	var from string
	c, forgotten := e.state.Update(guildID, func(c *Community) bool {
		idle := now.Sub(c.LastInteractionAt)
		c.LastInteractionAt = now
		if idle < e.opts.ForgottenAfter || c.TransientSince != nil {
			return false
		}
		from = c.Form
		c.PreviousStandard = c.Form
		c.Form = target.Key
		c.FormSince = now
		c.TransientSince = &now
		return true
	})

	if !forgotten {
		e.persist(ctx, guildID, c)
		return e.formOf(c), false
	}
	e.changed(ctx, guildID, c, from, ReasonForgotten)
	return target, true
}

// EnterSeason enters the seasonal form whose window contains now, once per window per year.
func (e *Engine) EnterSeason(ctx context.Context, guildID string, now time.Time) (Form, bool) {
	target, ok := e.cat.SeasonalAt(now)
	if !ok {
		return e.Form(guildID), false
	}
	mark := seasonalMark(target.Key, now)

	var from string
	c, entered := e.state.Update(guildID, func(c *Community) bool {
		if c.SeasonalMark == mark || c.TransientSince != nil {
			return false
		}
		from = c.Form
		c.PreviousStandard = c.Form
		c.Form = target.Key
		c.FormSince = now
		c.TransientSince = &now
		c.SeasonalMark = mark
		return true
	})
	if !entered {
		return e.formOf(c), false
	}
	e.changed(ctx, guildID, c, from, ReasonSeason)
	return target, true
}

func seasonalMark(key string, t time.Time) string {
	return key + "@" + strconv.Itoa(t.Year())
}

// MarkFlavor records that ambient flavor was emitted.
func (e *Engine) MarkFlavor(ctx context.Context, guildID string, now time.Time) {
	c, _ := e.state.Update(guildID, func(c *Community) bool {
		c.LastFlavorAt = now
		return true
	})
	e.persist(ctx, guildID, c)
}

// Style applies the current form's tone.
func (e *Engine) Style(guildID, text string) string {
	return e.Form(guildID).Style(text)
}

// Flavor picks an ambient sentence from the current form's pool.
func (e *Engine) Flavor(guildID string) string {
	pool := e.Form(guildID).Flavor()
	if len(pool) == 0 {
		pool = e.cat.Baseline().Flavor()
	}
	if len(pool) == 0 {
		return ""
	}
	return pool[e.rng.IntN(len(pool))]
}

// TextFor renders event text for a member: current form, then baseline, then fallback.
// vars fill {user}, {role} and similar placeholders; {form} defaults to the form name.
func (e *Engine) TextFor(ctx context.Context, guildID, userID string, event Event, vars map[string]string, fallback string) string {
	f := e.Form(guildID)
	text, ok := f.Text(event)
	if !ok {
		if text, ok = e.cat.Baseline().Text(event); !ok {
			text = fallback
		}
	}
	text = Render(text, f, vars)

	if e.languages == nil || e.translator == nil {
		return text
	}
	lang := e.languages.UserLanguage(guildID, userID)
	if lang == "" || lang == "en" {
		return text
	}
	return e.translator.Translate(ctx, text, lang)
}

// Render substitutes {name} placeholders.
func Render(text string, f Form, vars map[string]string) string {
	pairs := make([]string, 0, 2*len(vars)+2)
	if _, ok := vars["form"]; !ok {
		pairs = append(pairs, "{form}", f.Name)
	}
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func (e *Engine) changed(ctx context.Context, guildID string, c Community, fromKey, reason string) {
	e.persist(ctx, guildID, c)

	from, _ := e.cat.Lookup(fromKey)
	to := e.formOf(c)
	e.log.Info().
		Str("guild", guildID).
		Str("from", fromKey).
		Str("form", to.Key).
		Str("reason", reason).
		Msg("Form changed")

	if e.announcer != nil {
		e.announcer.Announce(ctx, guildID, from, to, reason)
	}
}

func (e *Engine) persist(ctx context.Context, guildID string, c Community) {
	if e.snapshots == nil {
		return
	}
	if err := e.snapshots.SaveSnapshot(ctx, guildID, c); err != nil {
		e.log.Warn().Err(err).Str("guild", guildID).Msg("Failed to save mood snapshot")
	}
}
