package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/preston-bernstein/footy-live-service/internal/delivery"
	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
	"github.com/preston-bernstein/footy-live-service/internal/logging"
)

// Registry is the durable record of who listens to which event. Every
// mutation is a single Redis round trip; concurrency safety comes from the
// atomicity of set operations and MULTI blocks, not from local locks.
type Registry struct {
	client redis.Cmdable
	logger *slog.Logger
}

// New constructs a Registry over a Redis client.
func New(client redis.Cmdable, logger *slog.Logger) *Registry {
	return &Registry{client: client, logger: logger}
}

// Add stores c as a subscriber of eventID. It reports whether c was new.
func (r *Registry) Add(ctx context.Context, eventID string, c delivery.Client) (bool, error) {
	member, err := Encode(KindClient, c)
	if err != nil {
		return false, err
	}
	var added *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		added = pipe.SAdd(ctx, ClientsKey(eventID), member)
		pipe.SAdd(ctx, ActiveKey, eventID)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("adding client to %s: %w", eventID, err)
	}
	return added.Val() == 1, nil
}

// Remove drops c from eventID and returns how many subscribers remain.
func (r *Registry) Remove(ctx context.Context, eventID string, c delivery.Client) (int64, error) {
	member, err := Encode(KindClient, c)
	if err != nil {
		return 0, err
	}
	var remaining *redis.IntCmd
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SRem(ctx, ClientsKey(eventID), member)
		remaining = pipe.SCard(ctx, ClientsKey(eventID))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("removing client from %s: %w", eventID, err)
	}
	return remaining.Val(), nil
}

// Contains reports whether c subscribes to eventID.
func (r *Registry) Contains(ctx context.Context, eventID string, c delivery.Client) (bool, error) {
	member, err := Encode(KindClient, c)
	if err != nil {
		return false, err
	}
	return r.client.SIsMember(ctx, ClientsKey(eventID), member).Result()
}

// Count returns the number of subscribers of eventID.
func (r *Registry) Count(ctx context.Context, eventID string) (int64, error) {
	return r.client.SCard(ctx, ClientsKey(eventID)).Result()
}

// Clients returns every decodable subscriber of eventID. Members written by an
// incompatible codec are logged and skipped.
func (r *Registry) Clients(ctx context.Context, eventID string) ([]delivery.Client, error) {
	members, err := r.client.SMembers(ctx, ClientsKey(eventID)).Result()
	if err != nil {
		return nil, fmt.Errorf("listing clients of %s: %w", eventID, err)
	}
	out := make([]delivery.Client, 0, len(members))
	for _, m := range members {
		var c delivery.Client
		if err := Decode(m, KindClient, &c); err != nil {
			logging.Warn(r.logger, "skipping stored client", logging.FieldEventID, eventID, "err", err)
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// SaveEvent stores the event record used to rebuild subscriptions on restart.
func (r *Registry) SaveEvent(ctx context.Context, ev events.Event) error {
	value, err := Encode(KindEvent, ev)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, EventKey(ev.ID), value, 0).Err()
}

// LoadEvent reads the event record for eventID.
func (r *Registry) LoadEvent(ctx context.Context, eventID string) (events.Event, bool, error) {
	raw, err := r.client.Get(ctx, EventKey(eventID)).Result()
	if errors.Is(err, redis.Nil) {
		return events.Event{}, false, nil
	}
	if err != nil {
		return events.Event{}, false, fmt.Errorf("loading event %s: %w", eventID, err)
	}
	var ev events.Event
	if err := Decode(raw, KindEvent, &ev); err != nil {
		return events.Event{}, false, err
	}
	return ev, true, nil
}

// ActiveEvents lists event ids that have stored subscribers.
func (r *Registry) ActiveEvents(ctx context.Context) ([]string, error) {
	return r.client.SMembers(ctx, ActiveKey).Result()
}

// Forget removes every key of eventID and drops it from the active index.
func (r *Registry) Forget(ctx context.Context, eventID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, ClientsKey(eventID), EventKey(eventID))
		pipe.SRem(ctx, ActiveKey, eventID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("forgetting %s: %w", eventID, err)
	}
	return nil
}

// Ping checks the store is reachable.
func (r *Registry) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
