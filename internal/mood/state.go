package mood

import (
	"sort"
	"sync"
	"time"
)

// Community is the mood state of one guild.
type Community struct {
	Form              string     `json:"form"`
	PreviousStandard  string     `json:"previous_standard"`
	FormSince         time.Time  `json:"form_since"`
	TransientSince    *time.Time `json:"transient_since,omitempty"`
	LastInteractionAt time.Time  `json:"last_interaction_at"`
	LastFlavorAt      time.Time  `json:"last_flavor_at"`
	SeasonalMark      string     `json:"seasonal_mark,omitempty"`
}

// State holds per-guild Communities. Safe for concurrent use; every read applies lazy defaults.
type State struct {
	mu          sync.Mutex
	baseline    string
	now         func() time.Time
	communities map[string]*Community
}

// NewState creates an empty State whose new communities start on baseline.
func NewState(baseline string, now func() time.Time) *State {
	if now == nil {
		now = time.Now
	}
	return &State{
		baseline:    baseline,
		now:         now,
		communities: make(map[string]*Community),
	}
}

// Get returns a copy of the guild's state, creating it if needed.
func (s *State) Get(guildID string) Community {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyCommunity(s.lookup(guildID))
}

// Update runs fn on the guild's state under the lock. fn reports whether it changed anything.
func (s *State) Update(guildID string, fn func(c *Community) bool) (Community, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.lookup(guildID)
	changed := fn(c)
	return copyCommunity(c), changed
}

// Put replaces the guild's state.
func (s *State) Put(guildID string, c Community) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cc := copyCommunity(&c)
	s.communities[guildID] = &cc
}

// IDs returns the known guild IDs, sorted.
func (s *State) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.communities))
	for id := range s.communities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *State) lookup(guildID string) *Community {
	if c, ok := s.communities[guildID]; ok {
		return c
	}
	now := s.now()
	c := &Community{
		Form:              s.baseline,
		PreviousStandard:  s.baseline,
		FormSince:         now,
		LastInteractionAt: now,
	}
	s.communities[guildID] = c
	return c
}

func copyCommunity(c *Community) Community {
	out := *c
	if c.TransientSince != nil {
		t := *c.TransientSince
		out.TransientSince = &t
	}
	return out
}
