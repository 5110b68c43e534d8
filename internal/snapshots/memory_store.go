package snapshots

import (
	"context"
	"errors"
	"sync"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
)

// MemoryStore keeps a thread-safe map of snapshots in memory.
type MemoryStore struct {
	mu    sync.RWMutex
	snaps map[string]events.Snapshot
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snaps: make(map[string]events.Snapshot),
	}
}

func (s *MemoryStore) Load(ctx context.Context, eventID string) (events.Snapshot, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snaps[eventID]
	if ok {
		snap.Events = append([]events.SubEvent(nil), snap.Events...)
	}
	return snap, ok, nil
}

func (s *MemoryStore) Save(ctx context.Context, snap events.Snapshot) error {
	_ = ctx
	if snap.EventID == "" {
		return errors.New("snapshot event id required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snap.Events = append([]events.SubEvent(nil), snap.Events...)
	s.snaps[snap.EventID] = snap
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, eventID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snaps, eventID)
	return nil
}

// Len returns the number of cached snapshots.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snaps)
}
