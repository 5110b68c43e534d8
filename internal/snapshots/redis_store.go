package snapshots

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
)

// DefaultTTL bounds how long a snapshot outlives its last update.
const DefaultTTL = 6 * time.Hour

// RedisStore keeps snapshots as JSON strings with a TTL so abandoned games
// age out on their own.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewRedisStore constructs a Redis-backed snapshot store.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, eventID string) (events.Snapshot, bool, error) {
	data, err := s.client.Get(ctx, Key(eventID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return events.Snapshot{}, false, nil
	}
	if err != nil {
		return events.Snapshot{}, false, fmt.Errorf("loading snapshot %s: %w", eventID, err)
	}

	var snap events.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return events.Snapshot{}, false, fmt.Errorf("unmarshaling snapshot %s: %w", eventID, err)
	}
	return snap, true, nil
}

func (s *RedisStore) Save(ctx context.Context, snap events.Snapshot) error {
	if snap.EventID == "" {
		return errors.New("snapshot event id required")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	return s.client.Set(ctx, Key(snap.EventID), data, s.ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, eventID string) error {
	return s.client.Del(ctx, Key(eventID)).Err()
}
