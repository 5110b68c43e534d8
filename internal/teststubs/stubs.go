package teststubs

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/preston-bernstein/footy-live-service/internal/delivery"
	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
)

// StubProvider is a test double for providers.LiveScoreProvider.
type StubProvider struct {
	mu          sync.Mutex
	Events      []events.Event
	Snapshot    events.Snapshot
	Lineups     events.Lineups
	Err         error
	SnapshotErr error
	Calls       atomic.Int32
	Notify      chan struct{}
}

// FetchEvents returns configured events and error while tracking calls.
func (s *StubProvider) FetchEvents(ctx context.Context) ([]events.Event, error) {
	_ = ctx
	s.notify()
	s.Calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Events, s.Err
}

// FetchSnapshot returns the configured snapshot, stamped with the event id.
func (s *StubProvider) FetchSnapshot(ctx context.Context, ev events.Event) (events.Snapshot, error) {
	_ = ctx
	s.notify()
	s.Calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SnapshotErr != nil {
		return events.Snapshot{}, s.SnapshotErr
	}
	snap := s.Snapshot
	if snap.EventID == "" {
		snap.EventID = ev.ID
	}
	snap.Events = append([]events.SubEvent(nil), s.Snapshot.Events...)
	return snap, nil
}

// FetchLineups returns the configured lineups.
func (s *StubProvider) FetchLineups(ctx context.Context, ev events.Event) (events.Lineups, error) {
	_ = ctx
	s.Calls.Add(1)
	s.mu.Lock()
	defer s.mu.Unlock()
	lineups := s.Lineups
	lineups.EventID = ev.ID
	return lineups, s.Err
}

// SetSnapshot replaces the snapshot returned by later fetches.
func (s *StubProvider) SetSnapshot(snap events.Snapshot) {
	s.mu.Lock()
	s.Snapshot = snap
	s.SnapshotErr = nil
	s.mu.Unlock()
}

// SetSnapshotErr makes later snapshot fetches fail.
func (s *StubProvider) SetSnapshotErr(err error) {
	s.mu.Lock()
	s.SnapshotErr = err
	s.mu.Unlock()
}

// SetLineups replaces the lineups returned by later fetches.
func (s *StubProvider) SetLineups(l events.Lineups) {
	s.mu.Lock()
	s.Lineups = l
	s.mu.Unlock()
}

func (s *StubProvider) notify() {
	if s.Notify != nil {
		select {
		case <-s.Notify:
		default:
			close(s.Notify)
		}
	}
}

// StubTransport is a test double for delivery.Transport that records every
// update per client id.
type StubTransport struct {
	mu    sync.Mutex
	sent  map[string][]delivery.Update
	fails map[string]error
	order []string
}

// Send records the update, or returns the failure configured for the client.
func (s *StubTransport) Send(ctx context.Context, c delivery.Client, u delivery.Update) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, c.ID)
	if err, ok := s.fails[c.ID]; ok {
		return err
	}
	if s.sent == nil {
		s.sent = make(map[string][]delivery.Update)
	}
	s.sent[c.ID] = append(s.sent[c.ID], u.For(c))
	return nil
}

// FailFor makes every send to clientID fail with err.
func (s *StubTransport) FailFor(clientID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fails == nil {
		s.fails = make(map[string]error)
	}
	s.fails[clientID] = err
}

// Updates returns the updates delivered to clientID.
func (s *StubTransport) Updates(clientID string) []delivery.Update {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]delivery.Update(nil), s.sent[clientID]...)
}

// Attempts returns every client id a send was attempted for, in order.
func (s *StubTransport) Attempts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}

// Reset forgets recorded updates and attempts.
func (s *StubTransport) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = nil
	s.order = nil
}
