package storage

import (
	"context"

	"github.com/keshon/whisperling/internal/mood"
)

// LoadSnapshots returns the mood state stored in every guild record.
func (s *Storage) LoadSnapshots(context.Context) (map[string]mood.Community, error) {
	out := make(map[string]mood.Community)
	for _, guildID := range s.GuildIDs() {
		err := s.view(guildID, func(r *Record) {
			if r.Mood != nil {
				out[guildID] = *r.Mood
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SaveSnapshot stores mood state in the guild record. It is flushed by the autosave loop.
func (s *Storage) SaveSnapshot(_ context.Context, guildID string, c mood.Community) error {
	return s.mutate(guildID, false, func(r *Record) error {
		r.Mood = &c
		return nil
	})
}
