package mood

import (
	_ "embed"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed forms.yaml
var catalogueYAML []byte

type catalogueFile struct {
	Baseline string     `yaml:"baseline"`
	Forms    []formFile `yaml:"forms"`
}

type formFile struct {
	Key         string            `yaml:"key"`
	Name        string            `yaml:"name"`
	Emoji       string            `yaml:"emoji"`
	Category    Category          `yaml:"category"`
	Color       string            `yaml:"color"`
	Description string            `yaml:"description"`
	Footer      string            `yaml:"footer"`
	Avatar      string            `yaml:"avatar"`
	Profile     Profile           `yaml:"profile"`
	Window      *windowFile       `yaml:"window"`
	Duration    string            `yaml:"duration"`
	Tone        string            `yaml:"tone"`
	Texts       map[string]string `yaml:"texts"`
	Flavor      []string          `yaml:"flavor"`
}

type windowFile struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Catalogue is the immutable set of forms.
type Catalogue struct {
	baseline string
	forms    map[string]Form
	order    []string
}

var defaultCatalogue = sync.OnceValues(func() (*Catalogue, error) {
	return LoadCatalogue(catalogueYAML)
})

// DefaultCatalogue returns the embedded catalogue.
func DefaultCatalogue() (*Catalogue, error) {
	return defaultCatalogue()
}

// LoadCatalogue parses and validates a YAML catalogue.
func LoadCatalogue(data []byte) (*Catalogue, error) {
	var file catalogueFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalogue: %w", err)
	}
	if len(file.Forms) == 0 {
		return nil, errors.New("catalogue has no forms")
	}

	c := &Catalogue{
		baseline: file.Baseline,
		forms:    make(map[string]Form, len(file.Forms)),
	}
	for _, ff := range file.Forms {
		f, err := ff.build()
		if err != nil {
			return nil, fmt.Errorf("form %q: %w", ff.Key, err)
		}
		if _, dup := c.forms[f.Key]; dup {
			return nil, fmt.Errorf("duplicate form %q", f.Key)
		}
		c.forms[f.Key] = f
		c.order = append(c.order, f.Key)
	}

	base, ok := c.forms[c.baseline]
	if !ok {
		return nil, fmt.Errorf("baseline form %q not in catalogue", c.baseline)
	}
	if base.Category != Standard {
		return nil, fmt.Errorf("baseline form %q must be standard", c.baseline)
	}
	var missing []string
	for _, e := range Events {
		if _, ok := base.Text(e); !ok {
			missing = append(missing, string(e))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("baseline form %q is missing events: %s", c.baseline, strings.Join(missing, ", "))
	}
	return c, nil
}

func (ff formFile) build() (Form, error) {
	if ff.Key == "" {
		return Form{}, errors.New("empty key")
	}
	color, err := strconv.ParseInt(strings.TrimPrefix(ff.Color, "#"), 16, 32)
	if err != nil {
		return Form{}, fmt.Errorf("invalid color %q: %w", ff.Color, err)
	}

	f := Form{
		Key:         ff.Key,
		Name:        ff.Name,
		Emoji:       ff.Emoji,
		Category:    ff.Category,
		Color:       int(color),
		Description: ff.Description,
		Footer:      ff.Footer,
		Avatar:      ff.Avatar,
		Profile:     ff.Profile,
		texts:       make(map[Event]string, len(ff.Texts)),
		flavor:      ff.Flavor,
	}
	if f.Name == "" {
		f.Name = ff.Key
	}

	toneKey := ff.Tone
	if toneKey == "" {
		toneKey = ff.Key
	}
	f.tone = tones[toneKey]

	known := make(map[Event]bool, len(Events))
	for _, e := range Events {
		known[e] = true
	}
	for k, v := range ff.Texts {
		if !known[Event(k)] {
			return Form{}, fmt.Errorf("unknown event %q", k)
		}
		f.texts[Event(k)] = v
	}

	switch f.Category {
	case Seasonal:
		if ff.Window == nil {
			return Form{}, errors.New("seasonal form needs a window")
		}
		w, err := ParseWindow(ff.Window.From, ff.Window.To)
		if err != nil {
			return Form{}, err
		}
		f.Window = &w
	case Glitched:
		d, err := time.ParseDuration(ff.Duration)
		if err != nil || d <= 0 {
			return Form{}, fmt.Errorf("glitched form needs a positive duration, got %q", ff.Duration)
		}
		f.Duration = d
	}
	return f, nil
}

// Baseline returns the default Standard form.
func (c *Catalogue) Baseline() Form {
	return c.forms[c.baseline]
}

// Lookup finds a form by key.
func (c *Catalogue) Lookup(key string) (Form, bool) {
	f, ok := c.forms[key]
	return f, ok
}

// All returns every form in catalogue order.
func (c *Catalogue) All() []Form {
	out := make([]Form, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.forms[k])
	}
	return out
}

// ByCategory returns the forms of one category in catalogue order.
func (c *Catalogue) ByCategory(cat Category) []Form {
	var out []Form
	for _, k := range c.order {
		if f := c.forms[k]; f.Category == cat {
			out = append(out, f)
		}
	}
	return out
}

// SeasonalAt returns the seasonal form whose window contains t.
func (c *Catalogue) SeasonalAt(t time.Time) (Form, bool) {
	for _, f := range c.ByCategory(Seasonal) {
		if f.Window.Contains(t) {
			return f, true
		}
	}
	return Form{}, false
}

func (c *Catalogue) pick(r Random, cat Category, exclude string) (Form, bool) {
	var pool []Form
	for _, f := range c.ByCategory(cat) {
		if f.Key != exclude {
			pool = append(pool, f)
		}
	}
	if len(pool) == 0 {
		return Form{}, false
	}
	return pool[r.IntN(len(pool))], true
}

// Random is the source of chance used by the engine.
type Random interface {
	Float64() float64
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
func (globalRand) IntN(n int) int   { return rand.Intn(n) }
