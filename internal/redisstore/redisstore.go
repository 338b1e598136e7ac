// Package redisstore persists mood snapshots in Redis.
// Keys are namespaced as "{prefix}:mood:{guildID}" and hold the JSON-encoded state.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/keshon/whisperling/internal/mood"
	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // default "whisperling"
	TTL      time.Duration // 0 = no expiry
}

type Store struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// Open connects and pings the server.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Addr, err)
	}
	return New(client, cfg.Prefix, cfg.TTL), nil
}

// New wraps an existing client.
func New(client *redis.Client, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = "whisperling"
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) key(guildID string) string {
	return s.prefix + ":mood:" + guildID
}

// SaveSnapshot stores one community.
func (s *Store) SaveSnapshot(ctx context.Context, guildID string, c mood.Community) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", guildID, err)
	}
	return s.client.Set(ctx, s.key(guildID), data, s.ttl).Err()
}

// LoadSnapshots scans every stored community. Undecodable entries are skipped.
func (s *Store) LoadSnapshots(ctx context.Context) (map[string]mood.Community, error) {
	out := make(map[string]mood.Community)
	prefix := s.key("")

	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		raw, err := s.client.Get(ctx, k).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get %s: %w", k, err)
		}
		var c mood.Community
		if err := json.Unmarshal(raw, &c); err != nil {
			continue
		}
		out[strings.TrimPrefix(k, prefix)] = c
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s*: %w", prefix, err)
	}
	return out, nil
}

// Delete removes a community's snapshot.
func (s *Store) Delete(ctx context.Context, guildID string) error {
	return s.client.Del(ctx, s.key(guildID)).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

var _ mood.SnapshotStore = (*Store)(nil)
