package snapshots

import (
	"context"
	"log/slog"

	"github.com/preston-bernstein/footy-live-service/internal/classifier"
	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
	"github.com/preston-bernstein/footy-live-service/internal/logging"
)

// Cache detects changes between consecutive fetches of the same event.
type Cache struct {
	store  Store
	logger *slog.Logger
}

// NewCache wraps a Store with change detection.
func NewCache(store Store, logger *slog.Logger) *Cache {
	return &Cache{store: store, logger: logger}
}

// Observe compares fresh against the cached snapshot and replaces the cached
// copy when the classifier accepts it. A failed load is returned so the
// caller can skip the tick instead of re-announcing history.
func (c *Cache) Observe(ctx context.Context, fresh events.Snapshot) (classifier.Result, error) {
	prev, ok, err := c.store.Load(ctx, fresh.EventID)
	if err != nil {
		return classifier.Result{}, err
	}

	var previous *events.Snapshot
	if ok {
		previous = &prev
	}
	res := classifier.Compare(previous, fresh)

	if res.Rebased {
		logging.Warn(c.logger, "feed rewrote event history; rebasing cached snapshot",
			logging.FieldEventID, fresh.EventID,
			"cached", len(prev.Events),
			"fresh", len(fresh.Events),
		)
	}
	if res.Accept {
		if err := c.store.Save(ctx, fresh); err != nil {
			return classifier.Result{}, err
		}
	}
	return res, nil
}

// Last returns the cached snapshot for eventID.
func (c *Cache) Last(ctx context.Context, eventID string) (events.Snapshot, bool, error) {
	return c.store.Load(ctx, eventID)
}

// Forget drops the cached snapshot for eventID.
func (c *Cache) Forget(ctx context.Context, eventID string) error {
	return c.store.Delete(ctx, eventID)
}
