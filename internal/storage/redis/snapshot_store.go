// Package redis persists cookie snapshots under a single Redis key.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/artpar/cookiestore/internal/cookies"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the key snapshots are stored under.
const DefaultKey = "cookiestore:snapshot"

// SnapshotStore keeps a JSON encoded snapshot in Redis.
type SnapshotStore struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

var _ cookies.SnapshotStore = (*SnapshotStore)(nil)

type Option func(*SnapshotStore)

// WithKey sets the key; surrounding colons are trimmed.
func WithKey(key string) Option {
	return func(s *SnapshotStore) {
		if k := strings.Trim(key, ":"); k != "" {
			s.key = k
		}
	}
}

// WithTTL expires the snapshot after d. Zero keeps it forever.
func WithTTL(d time.Duration) Option {
	return func(s *SnapshotStore) { s.ttl = d }
}

func NewSnapshotStore(rdb *redis.Client, opts ...Option) *SnapshotStore {
	s := &SnapshotStore{
		rdb: rdb,
		key: DefaultKey,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the Redis key in use.
func (s *SnapshotStore) Key() string {
	return s.key
}

// Load fetches the snapshot. A missing key yields an empty snapshot.
func (s *SnapshotStore) Load(ctx context.Context) (cookies.Snapshot, error) {
	data, err := s.rdb.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return cookies.Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot from redis: %w", err)
	}

	snap := cookies.Snapshot{}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("%w: %w", cookies.ErrMalformedSnapshot, err)
	}
	if snap == nil {
		snap = cookies.Snapshot{}
	}
	return snap, nil
}

// Save replaces the stored snapshot.
func (s *SnapshotStore) Save(ctx context.Context, snap cookies.Snapshot) error {
	if snap == nil {
		snap = cookies.Snapshot{}
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := s.rdb.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot to redis: %w", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *SnapshotStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}
