// /internal/storage/storage.go
package storage

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/keshon/whisperling/datastore"
	"github.com/keshon/whisperling/internal/mood"
)

const commandHistoryLimit int = 20

var (
	ErrLanguageExists   = errors.New("language already configured")
	ErrLanguageNotFound = errors.New("language not configured")
	ErrRoleNotFound     = errors.New("role option not configured")
)

// Storage is the per-guild configuration store. Every mutation and its save run under one lock.
type Storage struct {
	mu sync.Mutex
	ds *datastore.DataStore
}

type CommandHistoryRecord struct {
	ChannelID   string    `json:"channel_id"`
	ChannelName string    `json:"channel_name"`
	GuildName   string    `json:"guild_name"`
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	Command     string    `json:"command"`
	Param       string    `json:"param"`
	Datetime    time.Time `json:"datetime"`
}

// Features are per-guild switches.
type Features struct {
	AmbientChatterOff bool `json:"ambient_chatter_off"`
	ReactionTranslate bool `json:"reaction_translate"`
}

// Record is one guild's document.
type Record struct {
	Languages         map[string]Language    `json:"languages"`
	Rules             map[string]string      `json:"rules"`
	RoleOptions       map[string]RoleOption  `json:"role_options"`
	CosmeticOptions   map[string]RoleOption  `json:"cosmetic_role_options"`
	Users             map[string]string      `json:"users"` // user ID -> language code
	WelcomeChannelID  string                 `json:"welcome_channel_id"`
	AnnounceChannelID string                 `json:"announce_channel_id,omitempty"`
	Features          Features               `json:"features"`
	CommandsHistory   []CommandHistoryRecord `json:"cmd_history"`
	CommandHashes     map[string]string      `json:"command_hashes,omitempty"`
	Mood              *mood.Community        `json:"mood,omitempty"`
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

// NewWithStore wraps an already opened datastore.
func NewWithStore(ds *datastore.DataStore) *Storage {
	return &Storage{ds: ds}
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// GuildIDs lists every guild with a stored record.
func (s *Storage) GuildIDs() []string {
	return s.ds.Keys()
}

// Record returns a copy of the guild's record.
func (s *Storage) Record(guildID string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(guildID)
}

// load reads the guild's record, filling empty maps. Callers hold s.mu.
func (s *Storage) load(guildID string) (*Record, error) {
	var record Record
	if _, err := s.ds.Get(guildID, &record); err != nil {
		return nil, fmt.Errorf("load guild %s: %w", guildID, err)
	}

	if record.Languages == nil {
		record.Languages = map[string]Language{}
	}
	if record.Rules == nil {
		record.Rules = map[string]string{}
	}
	if record.RoleOptions == nil {
		record.RoleOptions = map[string]RoleOption{}
	}
	if record.CosmeticOptions == nil {
		record.CosmeticOptions = map[string]RoleOption{}
	}
	if record.Users == nil {
		record.Users = map[string]string{}
	}
	if record.CommandHashes == nil {
		record.CommandHashes = map[string]string{}
	}
	if len(record.CommandsHistory) > commandHistoryLimit {
		record.CommandsHistory = record.CommandsHistory[len(record.CommandsHistory)-commandHistoryLimit:]
	}
	return &record, nil
}

// update loads, mutates, stores and saves the guild's record as one critical section.
func (s *Storage) update(guildID string, fn func(r *Record) error) error {
	return s.mutate(guildID, true, fn)
}

func (s *Storage) mutate(guildID string, flush bool, fn func(r *Record) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.load(guildID)
	if err != nil {
		return err
	}
	if err := fn(record); err != nil {
		return err
	}
	if err := s.ds.Put(guildID, record); err != nil {
		return err
	}
	if !flush {
		return nil
	}
	if err := s.ds.SaveToFile(); err != nil {
		return fmt.Errorf("save guild %s: %w", guildID, err)
	}
	return nil
}

// view runs fn on a freshly loaded record.
func (s *Storage) view(guildID string, fn func(r *Record)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.load(guildID)
	if err != nil {
		return err
	}
	fn(record)
	return nil
}
