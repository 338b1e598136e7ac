// Package activity keeps a bounded, decaying engagement score per guild.
package activity

import (
	"sort"
	"sync"
	"time"
)

// Options tune scoring. Zero values take the defaults.
type Options struct {
	MaxScore      int
	MessageWeight int
	VoiceWeight   int
	DecayWindow   time.Duration
	BaseChance    float64
	MaxChance     float64
}

func DefaultOptions() Options {
	return Options{
		MaxScore:      100,
		MessageWeight: 5,
		VoiceWeight:   10,
		DecayWindow:   2 * time.Minute,
		BaseChance:    0.02,
		MaxChance:     0.15,
	}
}

type entry struct {
	score     int
	lastDecay time.Time
}

// Tracker is safe for concurrent use.
type Tracker struct {
	mu     sync.Mutex
	opts   Options
	now    func() time.Time
	guilds map[string]*entry
}

func NewTracker(opts Options, now func() time.Time) *Tracker {
	def := DefaultOptions()
	if opts.MaxScore <= 0 {
		opts.MaxScore = def.MaxScore
	}
	if opts.DecayWindow <= 0 {
		opts.DecayWindow = def.DecayWindow
	}
	if now == nil {
		now = time.Now
	}
	return &Tracker{opts: opts, now: now, guilds: make(map[string]*entry)}
}

func (t *Tracker) get(guildID string) *entry {
	e, ok := t.guilds[guildID]
	if !ok {
		e = &entry{lastDecay: t.now()}
		t.guilds[guildID] = e
	}
	return e
}

func (t *Tracker) add(guildID string, n int) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	e := t.get(guildID)
	e.score = min(t.opts.MaxScore, max(0, e.score+n))
	return e.score
}

// RecordMessage adds the message weight.
func (t *Tracker) RecordMessage(guildID string) int {
	return t.add(guildID, t.opts.MessageWeight)
}

// RecordVoiceJoin adds the voice weight.
func (t *Tracker) RecordVoiceJoin(guildID string) int {
	return t.add(guildID, t.opts.VoiceWeight)
}

// Score returns the current score without decaying it.
func (t *Tracker) Score(guildID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.get(guildID).score
}

// Decay removes one point per whole window elapsed since the last decay.
func (t *Tracker) Decay(guildID string, now time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	e := t.get(guildID)
	windows := int(now.Sub(e.lastDecay) / t.opts.DecayWindow)
	if windows <= 0 {
		return e.score
	}
	e.score = max(0, e.score-windows)
	e.lastDecay = e.lastDecay.Add(time.Duration(windows) * t.opts.DecayWindow)
	return e.score
}

// DecayAll decays every tracked guild.
func (t *Tracker) DecayAll(now time.Time) {
	for _, id := range t.Guilds() {
		t.Decay(id, now)
	}
}

// FlavorChance is base + score/300, capped.
func (t *Tracker) FlavorChance(guildID string) float64 {
	p := t.opts.BaseChance + float64(t.Score(guildID))/300
	return min(p, t.opts.MaxChance)
}

// Guilds lists tracked guild IDs.
func (t *Tracker) Guilds() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.guilds))
	for id := range t.guilds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
