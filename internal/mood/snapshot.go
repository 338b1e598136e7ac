package mood

import (
	"context"
	"sync"
)

// SnapshotStore persists Community state between restarts.
type SnapshotStore interface {
	LoadSnapshots(ctx context.Context) (map[string]Community, error)
	SaveSnapshot(ctx context.Context, guildID string, c Community) error
}

// MemorySnapshots keeps snapshots in process memory only.
type MemorySnapshots struct {
	mu sync.Mutex
	m  map[string]Community
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{m: make(map[string]Community)}
}

func (s *MemorySnapshots) LoadSnapshots(context.Context) (map[string]Community, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]Community, len(s.m))
	for k, v := range s.m {
		out[k] = copyCommunity(&v)
	}
	return out, nil
}

func (s *MemorySnapshots) SaveSnapshot(_ context.Context, guildID string, c Community) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[guildID] = copyCommunity(&c)
	return nil
}
