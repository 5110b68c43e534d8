package subscription

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/preston-bernstein/footy-live-service/internal/classifier"
	"github.com/preston-bernstein/footy-live-service/internal/delivery"
	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
	"github.com/preston-bernstein/footy-live-service/internal/logging"
)

// Result is returned to the caller of Subscribe.
type Result struct {
	Message string `json:"message"`
	Icon    string `json:"icon,omitempty"`
	SubID   string `json:"subId,omitempty"`
}

// Listing is one entry of ListSubscriptions.
type Listing struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Manager is the entry point for subscribe, unsubscribe and listing. It keeps
// one Subscription per event id for the life of the process; the registry
// remains the source of truth.
type Manager struct {
	deps    Deps
	fillers fillers

	mu   sync.Mutex
	subs map[string]*Subscription
}

// NewManager constructs a Manager.
func NewManager(deps Deps) *Manager {
	return &Manager{
		deps: deps.withDefaults(),
		subs: make(map[string]*Subscription),
	}
}

// Subscribe resolves query against the live feed and subscribes the client
// to the matching game. A query that does not resolve returns a filler
// result together with the typed error.
func (m *Manager) Subscribe(ctx context.Context, clientID, group, query string) (Result, error) {
	client, err := delivery.NewClient(clientID, group)
	if err != nil {
		return Result{}, err
	}
	list, err := m.listEvents(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("resolving %q: %w", query, err)
	}
	ev, err := resolve(list, query)
	if err != nil {
		if IsNotFound(err) {
			f := m.fillers.pick()
			return Result{Message: f.message, Icon: f.icon}, err
		}
		return Result{}, err
	}

	addedEarlier := false
	for attempt := 0; attempt < 2; attempt++ {
		sub := m.get(ev)
		added, err := sub.Schedule(ctx, client)
		if errors.Is(err, ErrGameNotActive) && sub.Closed() {
			// Lost a race with the subscription closing; a fresh one re-adds the client.
			addedEarlier = addedEarlier || added
			continue
		}
		if err != nil {
			return Result{}, err
		}
		return Result{
			Message: subscribedMessage(sub.Event(), added || addedEarlier),
			Icon:    classifier.IconGoal,
			SubID:   ev.ID,
		}, nil
	}
	return Result{}, ErrGameNotActive
}

// Unsubscribe removes the client from eventID.
func (m *Manager) Unsubscribe(ctx context.Context, clientID, group, eventID string) error {
	client, err := delivery.NewClient(clientID, group)
	if err != nil {
		return err
	}
	ok, err := m.deps.Registry.Contains(ctx, eventID, client)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotSubscribed
	}

	sub, found := m.Get(eventID)
	if !found {
		ev, stored, err := m.deps.Registry.LoadEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if !stored {
			ev = events.Event{ID: eventID}
		}
		sub = m.get(ev)
	}
	return sub.Cancel(ctx, client)
}

// List returns the events the client follows, ordered by kickoff.
func (m *Manager) List(ctx context.Context, clientID, group string) ([]Listing, error) {
	client, err := delivery.NewClient(clientID, group)
	if err != nil {
		return nil, err
	}
	ids, err := m.deps.Registry.ActiveEvents(ctx)
	if err != nil {
		return nil, err
	}

	var found []events.Event
	for _, id := range ids {
		ok, err := m.deps.Registry.Contains(ctx, id, client)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		ev, stored, err := m.deps.Registry.LoadEvent(ctx, id)
		if err != nil {
			logging.Warn(m.deps.Logger, "skipping unreadable event", logging.FieldEventID, id, "err", err)
			continue
		}
		if !stored {
			continue
		}
		found = append(found, ev)
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].StartTime.Equal(found[j].StartTime) {
			return found[i].ID < found[j].ID
		}
		return found[i].StartTime.Before(found[j].StartTime)
	})
	out := make([]Listing, 0, len(found))
	for _, ev := range found {
		out = append(out, Listing{ID: ev.ID, Text: listingText(ev)})
	}
	return out, nil
}

// Restore rebuilds subscriptions from the registry after a restart and
// re-schedules their jobs under the same ids. Events that are over or have
// no subscribers left are cleaned up. It returns how many were restored.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	ids, err := m.deps.Registry.ActiveEvents(ctx)
	if err != nil {
		return 0, err
	}
	restored := 0
	for _, id := range ids {
		ev, stored, err := m.deps.Registry.LoadEvent(ctx, id)
		if err != nil {
			logging.Warn(m.deps.Logger, "skipping unreadable event", logging.FieldEventID, id, "err", err)
			continue
		}
		count, err := m.deps.Registry.Count(ctx, id)
		if err != nil {
			return restored, err
		}
		if !stored || count == 0 || !ev.State.IsValid() {
			m.drop(ctx, id)
			continue
		}
		sub := m.get(ev)
		if err := sub.ensureJobs(); err != nil {
			logging.Warn(m.deps.Logger, "failed to reschedule event", logging.FieldEventID, id, "err", err)
			continue
		}
		restored++
	}
	logging.Info(m.deps.Logger, "subscriptions restored", logging.FieldCount, restored)
	return restored, nil
}

// Get returns the live subscription for eventID.
func (m *Manager) Get(eventID string) (*Subscription, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sub, ok := m.subs[eventID]
	return sub, ok
}

// Len returns the number of live subscriptions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// get returns the subscription for ev, creating it when missing or closed.
func (m *Manager) get(ev events.Event) *Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub, ok := m.subs[ev.ID]; ok && !sub.Closed() {
		return sub
	}
	sub := newSubscription(m.deps, ev, m.release)
	m.subs[ev.ID] = sub
	return sub
}

func (m *Manager) release(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := sub.Event().ID
	if current, ok := m.subs[id]; ok && current == sub {
		delete(m.subs, id)
	}
}

func (m *Manager) drop(ctx context.Context, eventID string) {
	if err := m.deps.Registry.Forget(ctx, eventID); err != nil {
		logging.Warn(m.deps.Logger, "failed to forget event", logging.FieldEventID, eventID, "err", err)
	}
	if err := m.deps.Cache.Forget(ctx, eventID); err != nil {
		logging.Warn(m.deps.Logger, "failed to drop cached snapshot", logging.FieldEventID, eventID, "err", err)
	}
	logging.Info(m.deps.Logger, "dropped stale subscription", logging.FieldEventID, eventID)
}

func (m *Manager) listEvents(ctx context.Context) ([]events.Event, error) {
	if m.deps.Events != nil {
		return m.deps.Events.Events(ctx)
	}
	return m.deps.Provider.FetchEvents(ctx)
}
