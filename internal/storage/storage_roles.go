package storage

import (
	"fmt"
	"sort"
)

// RoleOption is a role offered during onboarding.
type RoleOption struct {
	RoleID string `json:"-"`
	Label  string `json:"label"`
	Emoji  string `json:"emoji"`
}

// RoleKind selects the primary or the cosmetic option set.
type RoleKind int

const (
	PrimaryRole RoleKind = iota
	CosmeticRole
)

func (k RoleKind) String() string {
	if k == CosmeticRole {
		return "cosmetic"
	}
	return "primary"
}

func (r *Record) roleSet(kind RoleKind) map[string]RoleOption {
	if kind == CosmeticRole {
		return r.CosmeticOptions
	}
	return r.RoleOptions
}

// AddRoleOption adds or replaces a role option.
func (s *Storage) AddRoleOption(guildID string, kind RoleKind, opt RoleOption) error {
	return s.update(guildID, func(r *Record) error {
		r.roleSet(kind)[opt.RoleID] = opt
		return nil
	})
}

func (s *Storage) RemoveRoleOption(guildID string, kind RoleKind, roleID string) error {
	return s.update(guildID, func(r *Record) error {
		set := r.roleSet(kind)
		if _, ok := set[roleID]; !ok {
			return fmt.Errorf("%w: %s", ErrRoleNotFound, roleID)
		}
		delete(set, roleID)
		return nil
	})
}

// RoleOptions returns the options of one kind, ordered by label.
func (s *Storage) RoleOptions(guildID string, kind RoleKind) ([]RoleOption, error) {
	var out []RoleOption
	err := s.view(guildID, func(r *Record) {
		for id, opt := range r.roleSet(kind) {
			opt.RoleID = id
			out = append(out, opt)
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label == out[j].Label {
			return out[i].RoleID < out[j].RoleID
		}
		return out[i].Label < out[j].Label
	})
	return out, err
}

func (s *Storage) SetWelcomeChannel(guildID, channelID string) error {
	return s.update(guildID, func(r *Record) error {
		r.WelcomeChannelID = channelID
		return nil
	})
}

// WelcomeChannel returns the channel onboarding is posted in, or "".
func (s *Storage) WelcomeChannel(guildID string) string {
	var id string
	_ = s.view(guildID, func(r *Record) { id = r.WelcomeChannelID })
	return id
}

func (s *Storage) SetAnnounceChannel(guildID, channelID string) error {
	return s.update(guildID, func(r *Record) error {
		r.AnnounceChannelID = channelID
		return nil
	})
}

// AnnounceChannel returns the channel for mood announcements and flavor, falling back to the welcome channel.
func (s *Storage) AnnounceChannel(guildID string) string {
	var id string
	_ = s.view(guildID, func(r *Record) {
		id = r.AnnounceChannelID
		if id == "" {
			id = r.WelcomeChannelID
		}
	})
	return id
}
