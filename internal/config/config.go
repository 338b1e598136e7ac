// /internal/config/config.go
package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the process configuration, read from the environment (and an optional .env file).
type Config struct {
	DiscordToken          string   `env:"DISCORD_TOKEN,required,notEmpty"`
	DeveloperID           string   `env:"DEVELOPER_ID"`
	DiscordGuildBlacklist []string `env:"GUILD_BLACKLIST" envSeparator:","`
	InitSlashCommands     bool     `env:"INIT_SLASH_COMMANDS" envDefault:"true"`
	StoragePath           string   `env:"STORAGE_PATH" envDefault:"data/datastore.json"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile   string `env:"LOG_FILE"`
	LogPretty bool   `env:"LOG_PRETTY" envDefault:"true"`

	// memory | datastore | redis
	MoodBackend   string `env:"MOOD_BACKEND" envDefault:"datastore"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"REDIS_PREFIX" envDefault:"whisperling"`

	Mood       Mood
	Activity   Activity
	Schedule   Schedule
	Onboarding Onboarding

	TranslateRPS float64 `env:"TRANSLATE_RPS" envDefault:"5"`
}

// Mood tunes the persona engine.
type Mood struct {
	PlayfulForm     string        `env:"PLAYFUL_FORM" envDefault:"flutterkin"`
	ForgottenForm   string        `env:"FORGOTTEN_FORM" envDefault:"echovoid"`
	GlitchChance    float64       `env:"GLITCH_CHANCE" envDefault:"0.03"`
	PlayfulChance   float64       `env:"PLAYFUL_CHANCE" envDefault:"0.02"`
	GlitchDuration  time.Duration `env:"GLITCH_DURATION" envDefault:"30m"`
	ForgottenAfter  time.Duration `env:"FORGOTTEN_AFTER" envDefault:"336h"`
	IdleDriftAfter  time.Duration `env:"IDLE_DRIFT_AFTER" envDefault:"720h"`
	IdleDriftChance float64       `env:"IDLE_DRIFT_CHANCE" envDefault:"0.25"`
}

// Activity tunes the engagement tracker and flavor emission.
type Activity struct {
	MaxScore         int           `env:"ACTIVITY_MAX" envDefault:"100"`
	MessageWeight    int           `env:"ACTIVITY_MESSAGE_WEIGHT" envDefault:"5"`
	VoiceWeight      int           `env:"ACTIVITY_VOICE_WEIGHT" envDefault:"10"`
	DecayWindow      time.Duration `env:"ACTIVITY_DECAY_WINDOW" envDefault:"2m"`
	FlavorBaseChance float64       `env:"FLAVOR_BASE_CHANCE" envDefault:"0.02"`
	FlavorMaxChance  float64       `env:"FLAVOR_MAX_CHANCE" envDefault:"0.15"`
	FlavorCooldown   time.Duration `env:"FLAVOR_COOLDOWN" envDefault:"2h"`
}

// Schedule sets background loop intervals.
type Schedule struct {
	RevertInterval    time.Duration `env:"REVERT_INTERVAL" envDefault:"60s"`
	DecayInterval     time.Duration `env:"DECAY_INTERVAL" envDefault:"60s"`
	HeartbeatInterval time.Duration `env:"HEARTBEAT_INTERVAL" envDefault:"600s"`
}

// Onboarding sets per-step timeouts and pacing.
type Onboarding struct {
	LanguageTimeout time.Duration `env:"LANGUAGE_TIMEOUT" envDefault:"60s"`
	RulesTimeout    time.Duration `env:"RULES_TIMEOUT" envDefault:"90s"`
	RoleTimeout     time.Duration `env:"ROLE_TIMEOUT" envDefault:"60s"`
	CosmeticTimeout time.Duration `env:"COSMETIC_TIMEOUT" envDefault:"60s"`
	Pacing          time.Duration `env:"ONBOARDING_PACING" envDefault:"2s"`
}

// Load reads .env (if present) and parses the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDeveloper reports whether userID is the configured developer.
func (c *Config) IsDeveloper(userID string) bool {
	return c != nil && c.DeveloperID != "" && c.DeveloperID == userID
}

// IsGuildBlacklisted reports whether the bot must leave guildID.
func (c *Config) IsGuildBlacklisted(guildID string) bool {
	return c != nil && slices.Contains(c.DiscordGuildBlacklist, guildID)
}

func (c *Config) validate() error {
	switch c.MoodBackend {
	case "memory", "datastore", "redis":
	default:
		return fmt.Errorf("MOOD_BACKEND must be memory, datastore or redis, got %q", c.MoodBackend)
	}
	for name, p := range map[string]float64{
		"GLITCH_CHANCE":      c.Mood.GlitchChance,
		"PLAYFUL_CHANCE":     c.Mood.PlayfulChance,
		"IDLE_DRIFT_CHANCE":  c.Mood.IdleDriftChance,
		"FLAVOR_BASE_CHANCE": c.Activity.FlavorBaseChance,
		"FLAVOR_MAX_CHANCE":  c.Activity.FlavorMaxChance,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be within [0,1], got %v", name, p)
		}
	}
	if c.Activity.MaxScore <= 0 {
		return fmt.Errorf("ACTIVITY_MAX must be positive")
	}
	return nil
}
