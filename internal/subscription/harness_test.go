package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/juju/clock/testclock"
	"github.com/redis/go-redis/v9"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
	"github.com/preston-bernstein/footy-live-service/internal/goals"
	"github.com/preston-bernstein/footy-live-service/internal/metrics"
	"github.com/preston-bernstein/footy-live-service/internal/registry"
	"github.com/preston-bernstein/footy-live-service/internal/scheduler"
	"github.com/preston-bernstein/footy-live-service/internal/snapshots"
	"github.com/preston-bernstein/footy-live-service/internal/teststubs"
)

const shortWait = 2 * time.Second

var epoch = time.Date(2024, 5, 4, 14, 0, 0, 0, time.UTC)

type harness struct {
	mr        *miniredis.Miniredis
	redis     *redis.Client
	clock     *testclock.Clock
	sched     *scheduler.Scheduler
	registry  *registry.Registry
	queue     *goals.Queue
	provider  *teststubs.StubProvider
	transport *teststubs.StubTransport
	metrics   *metrics.Recorder
	manager   *Manager
}

func newHarness(t *testing.T, evs ...events.Event) *harness {
	t.Helper()
	return newHarnessOn(t, miniredis.RunT(t), evs...)
}

// newHarnessOn builds a fresh process around an existing Redis, as after a restart.
func newHarnessOn(t *testing.T, mr *miniredis.Miniredis, evs ...events.Event) *harness {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	h := &harness{
		mr:        mr,
		redis:     client,
		clock:     testclock.NewClock(epoch),
		registry:  registry.New(client, nil),
		queue:     goals.NewQueue(client, nil),
		provider:  &teststubs.StubProvider{Events: evs},
		transport: &teststubs.StubTransport{},
		metrics:   metrics.NewRecorder(),
	}
	h.sched = scheduler.New(scheduler.Config{Clock: h.clock, Workers: 4, Metrics: h.metrics})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), shortWait)
		defer cancel()
		_ = h.sched.Stop(ctx)
	})

	pipeline := goals.NewPipeline(goals.Config{
		Queue:       h.queue,
		Subscribers: h.registry,
		Transport:   h.transport,
		Clock:       h.clock,
		Metrics:     h.metrics,
	})
	h.manager = NewManager(Deps{
		Provider:  h.provider,
		Registry:  h.registry,
		Cache:     snapshots.NewCache(snapshots.NewMemoryStore(), nil),
		Scheduler: h.sched,
		Transport: h.transport,
		Goals:     pipeline,
		Clock:     h.clock,
		Metrics:   h.metrics,
	})
	return h
}

func upcomingEvent(in time.Duration) events.Event {
	return events.Event{
		ID:         events.EventID("Arsenal", "Chelsea"),
		ProviderID: 1001,
		Home:       events.Team{ID: 1, Name: "Arsenal"},
		Away:       events.Team{ID: 2, Name: "Chelsea"},
		LeagueID:   47,
		LeagueName: "Premier League",
		StartTime:  epoch.Add(in),
		RawStatus:  "NS",
		State:      events.StateNotStarted,
	}
}

func liveEvent() events.Event {
	ev := upcomingEvent(-10 * time.Minute)
	ev.RawStatus = "1st Half"
	ev.State = events.StateInProgress
	return ev
}

func otherEvent(in time.Duration) events.Event {
	return events.Event{
		ID:         events.EventID("Liverpool", "Everton"),
		ProviderID: 1002,
		Home:       events.Team{ID: 3, Name: "Liverpool"},
		Away:       events.Team{ID: 4, Name: "Everton"},
		LeagueID:   47,
		LeagueName: "Premier League",
		StartTime:  epoch.Add(in),
		RawStatus:  "NS",
		State:      events.StateNotStarted,
	}
}

func snapshotFor(ev events.Event, status string, clock float64, subs ...events.SubEvent) events.Snapshot {
	snap := events.Snapshot{
		EventID:   ev.ID,
		Home:      ev.Home,
		Away:      ev.Away,
		RawStatus: status,
		GameTime:  clock,
		Events:    subs,
	}
	for _, e := range subs {
		if e.Type != "Goal" {
			continue
		}
		if e.CompetitorID == ev.Home.ID {
			snap.Score.Home++
		} else {
			snap.Score.Away++
		}
	}
	return snap
}

func goalAt(order int, minute float64, competitor int, player string) events.SubEvent {
	return events.SubEvent{Order: order, GameTime: minute, Type: "Goal", CompetitorID: competitor, PlayerName: player}
}

func cardAt(order int, minute float64, competitor int) events.SubEvent {
	return events.SubEvent{Order: order, GameTime: minute, Type: "Card", SubType: "Yellow", CompetitorID: competitor}
}

func waitFor(t *testing.T, desc string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(shortWait)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", desc)
}

func mustSubscribe(t *testing.T, h *harness, clientID, query string) Result {
	t.Helper()
	res, err := h.manager.Subscribe(context.Background(), clientID, "g", query)
	if err != nil {
		t.Fatalf("subscribe %s to %q: %v", clientID, query, err)
	}
	return res
}

func mustGet(t *testing.T, h *harness, eventID string) *Subscription {
	t.Helper()
	sub, ok := h.manager.Get(eventID)
	if !ok {
		t.Fatalf("no subscription for %s", eventID)
	}
	return sub
}
