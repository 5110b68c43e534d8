package snapshots

import (
	"context"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
)

// Store persists the last accepted snapshot per event.
type Store interface {
	Load(ctx context.Context, eventID string) (events.Snapshot, bool, error)
	Save(ctx context.Context, snap events.Snapshot) error
	Delete(ctx context.Context, eventID string) error
}

// Key returns the Redis key holding an event's cached snapshot.
func Key(eventID string) string {
	return "subscription." + eventID + ".snapshot"
}
