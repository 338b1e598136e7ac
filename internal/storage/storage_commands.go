package storage

// AppendCommandToHistory appends a command history record for a guild
func (s *Storage) AppendCommandToHistory(guildID string, command CommandHistoryRecord) error {
	return s.update(guildID, func(r *Record) error {
		r.CommandsHistory = append(r.CommandsHistory, command)
		if len(r.CommandsHistory) > commandHistoryLimit {
			r.CommandsHistory = r.CommandsHistory[len(r.CommandsHistory)-commandHistoryLimit:]
		}
		return nil
	})
}

func (s *Storage) CommandsHistory(guildID string) ([]CommandHistoryRecord, error) {
	var out []CommandHistoryRecord
	err := s.view(guildID, func(r *Record) {
		out = r.CommandsHistory
	})
	return out, err
}

// CommandHashes returns the hashes of the commands last registered in the guild.
func (s *Storage) CommandHashes(guildID string) map[string]string {
	out := map[string]string{}
	_ = s.view(guildID, func(r *Record) {
		for k, v := range r.CommandHashes {
			out[k] = v
		}
	})
	return out
}

func (s *Storage) SetCommandHashes(guildID string, hashes map[string]string) error {
	return s.update(guildID, func(r *Record) error {
		r.CommandHashes = hashes
		return nil
	})
}

func (s *Storage) SetAmbientChatter(guildID string, enabled bool) error {
	return s.update(guildID, func(r *Record) error {
		r.Features.AmbientChatterOff = !enabled
		return nil
	})
}

// AmbientChatter reports whether heartbeat flavor is enabled. On by default.
func (s *Storage) AmbientChatter(guildID string) bool {
	enabled := true
	_ = s.view(guildID, func(r *Record) { enabled = !r.Features.AmbientChatterOff })
	return enabled
}

func (s *Storage) SetReactionTranslate(guildID string, enabled bool) error {
	return s.update(guildID, func(r *Record) error {
		r.Features.ReactionTranslate = enabled
		return nil
	})
}

// ReactionTranslate reports whether flag reactions trigger translation. Off by default.
func (s *Storage) ReactionTranslate(guildID string) bool {
	var enabled bool
	_ = s.view(guildID, func(r *Record) { enabled = r.Features.ReactionTranslate })
	return enabled
}
