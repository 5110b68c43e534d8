package goals

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/preston-bernstein/footy-live-service/internal/logging"
	"github.com/preston-bernstein/footy-live-service/internal/registry"
)

// QueueKey holds every pending goal, keyed by goal id.
const QueueKey = "goals.queue"

// EventQueueKey holds the pending goals of one event.
func EventQueueKey(eventID string) string {
	return "subscription." + eventID + ".goals.queue"
}

// Queue is the durable set of goals waiting for a clip. Both hashes are
// always written together in one MULTI.
type Queue struct {
	client redis.Cmdable
	logger *slog.Logger
}

// NewQueue constructs a Queue over a Redis client.
func NewQueue(client redis.Cmdable, logger *slog.Logger) *Queue {
	return &Queue{client: client, logger: logger}
}

// Enqueue stores q and reports whether it was not already queued.
func (q *Queue) Enqueue(ctx context.Context, goal GoalQuery) (bool, error) {
	value, err := registry.Encode(registry.KindGoal, goal)
	if err != nil {
		return false, err
	}
	var added *redis.BoolCmd
	_, err = q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		added = pipe.HSetNX(ctx, QueueKey, goal.ID, value)
		pipe.HSetNX(ctx, EventQueueKey(goal.EventID), goal.ID, value)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("enqueueing goal %s: %w", goal.ID, err)
	}
	return added.Val(), nil
}

// Remove drops goal from both hashes.
func (q *Queue) Remove(ctx context.Context, goal GoalQuery) error {
	_, err := q.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, QueueKey, goal.ID)
		pipe.HDel(ctx, EventQueueKey(goal.EventID), goal.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("removing goal %s: %w", goal.ID, err)
	}
	return nil
}

// Pending lists every queued goal, oldest first.
func (q *Queue) Pending(ctx context.Context) ([]GoalQuery, error) {
	return q.read(ctx, QueueKey)
}

// ForEvent lists the queued goals of one event, oldest first.
func (q *Queue) ForEvent(ctx context.Context, eventID string) ([]GoalQuery, error) {
	return q.read(ctx, EventQueueKey(eventID))
}

// Len returns the number of queued goals.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.HLen(ctx, QueueKey).Result()
}

func (q *Queue) read(ctx context.Context, key string) ([]GoalQuery, error) {
	raw, err := q.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	out := make([]GoalQuery, 0, len(raw))
	for id, value := range raw {
		var goal GoalQuery
		if err := registry.Decode(value, registry.KindGoal, &goal); err != nil {
			logging.Warn(q.logger, "skipping stored goal", logging.FieldGoalID, id, "err", err)
			continue
		}
		out = append(out, goal)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DetectedAt.Equal(out[j].DetectedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].DetectedAt.Before(out[j].DetectedAt)
	})
	return out, nil
}
