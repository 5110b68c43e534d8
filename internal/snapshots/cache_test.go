package snapshots

import (
	"context"
	"errors"
	"testing"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
)

func TestCacheObserveAcceptsGrowthOnly(t *testing.T) {
	store := NewMemoryStore()
	cache := NewCache(store, nil)
	ctx := context.Background()

	first, err := cache.Observe(ctx, sample("e1", 1))
	if err != nil {
		t.Fatalf("observe failed: %v", err)
	}
	if len(first.NewEvents) != 1 || !first.Accept {
		t.Fatalf("expected first snapshot accepted with 1 new event, got %+v", first)
	}

	same, _ := cache.Observe(ctx, sample("e1", 1))
	if len(same.NewEvents) != 0 || same.Accept {
		t.Fatalf("expected identical snapshot ignored, got %+v", same)
	}

	grown, _ := cache.Observe(ctx, sample("e1", 1, 2, 3))
	if len(grown.NewEvents) != 2 || grown.NewEvents[0].Order != 2 {
		t.Fatalf("expected orders 2 and 3 as new, got %+v", grown.NewEvents)
	}

	cached, ok, _ := cache.Last(ctx, "e1")
	if !ok || len(cached.Events) != 3 {
		t.Fatalf("expected cache to hold latest snapshot, got %+v", cached)
	}
}

func TestCacheObserveRebasesOnShorterHistory(t *testing.T) {
	store := NewMemoryStore()
	cache := NewCache(store, nil)
	ctx := context.Background()

	_, _ = cache.Observe(ctx, sample("e1", 1, 2))
	res, err := cache.Observe(ctx, sample("e1", 1))
	if err != nil {
		t.Fatalf("observe failed: %v", err)
	}
	if !res.Rebased || len(res.NewEvents) != 0 {
		t.Fatalf("expected rebase with nothing announced, got %+v", res)
	}

	next, _ := cache.Observe(ctx, sample("e1", 1, 3))
	if len(next.NewEvents) != 1 || next.NewEvents[0].Order != 3 {
		t.Fatalf("expected diff against rebased history, got %+v", next.NewEvents)
	}
}

func TestCacheForget(t *testing.T) {
	store := NewMemoryStore()
	cache := NewCache(store, nil)
	_, _ = cache.Observe(context.Background(), sample("e1", 1))
	if err := cache.Forget(context.Background(), "e1"); err != nil {
		t.Fatalf("forget failed: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store")
	}
}

type failingStore struct{ MemoryStore }

func (f *failingStore) Load(ctx context.Context, eventID string) (events.Snapshot, bool, error) {
	return events.Snapshot{}, false, errors.New("redis down")
}

func TestCacheObservePropagatesLoadErrors(t *testing.T) {
	cache := NewCache(&failingStore{}, nil)
	if _, err := cache.Observe(context.Background(), sample("e1", 1)); err == nil {
		t.Fatalf("expected load error")
	}
}
