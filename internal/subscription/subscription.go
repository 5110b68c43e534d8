package subscription

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/juju/clock"

	"github.com/preston-bernstein/footy-live-service/internal/classifier"
	"github.com/preston-bernstein/footy-live-service/internal/delivery"
	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
	"github.com/preston-bernstein/footy-live-service/internal/logging"
	"github.com/preston-bernstein/footy-live-service/internal/metrics"
	"github.com/preston-bernstein/footy-live-service/internal/providers"
	"github.com/preston-bernstein/footy-live-service/internal/registry"
	"github.com/preston-bernstein/footy-live-service/internal/scheduler"
	"github.com/preston-bernstein/footy-live-service/internal/snapshots"
)

// GoalSink receives goals detected on a tick.
type GoalSink interface {
	Enqueue(ctx context.Context, snap events.Snapshot, goals []events.SubEvent) int
}

// EventSource lists the games a subscribe query resolves against.
type EventSource interface {
	Events(ctx context.Context) ([]events.Event, error)
}

// Deps are the collaborators shared by every subscription. Goals and Events
// are optional; without Events the provider is queried directly.
type Deps struct {
	Provider  providers.LiveScoreProvider
	Events    EventSource
	Registry  *registry.Registry
	Cache     *snapshots.Cache
	Scheduler *scheduler.Scheduler
	Transport delivery.Transport
	Goals     GoalSink
	Clock     clock.Clock
	Timing    Timing
	Logger    *slog.Logger
	Metrics   *metrics.Recorder
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = clock.WallClock
	}
	d.Timing = d.Timing.withDefaults()
	return d
}

// Subscription follows one event: it owns that event's jobs and announces
// what changed to the event's stored subscribers.
type Subscription struct {
	deps   Deps
	logger *slog.Logger
	onDone func(*Subscription)

	mu     sync.Mutex
	event  events.Event
	closed bool
}

func newSubscription(deps Deps, ev events.Event, onDone func(*Subscription)) *Subscription {
	logger := deps.Logger
	if logger != nil {
		logger = logger.With(logging.FieldEventID, ev.ID)
	}
	return &Subscription{
		deps:   deps,
		logger: logger,
		onDone: onDone,
		event:  ev,
	}
}

// Event returns the latest known state of the followed event.
func (s *Subscription) Event() events.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.event
}

// Closed reports whether the subscription has shut down.
func (s *Subscription) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// JobID returns the scheduler id of one of this subscription's phases.
func (s *Subscription) JobID(phase Phase) string {
	return JobID(s.Event().ID, phase)
}

// Schedule stores c as a subscriber and makes sure the event's jobs exist.
// It reports whether c was new; re-subscribing is a no-op beyond that.
func (s *Subscription) Schedule(ctx context.Context, c delivery.Client) (bool, error) {
	ev := s.Event()
	if s.Closed() || !ev.State.IsValid() {
		return false, ErrGameNotActive
	}
	added, err := s.deps.Registry.Add(ctx, ev.ID, c)
	if err != nil {
		return false, err
	}
	if err := s.deps.Registry.SaveEvent(ctx, ev); err != nil {
		return added, err
	}
	if err := s.ensureJobs(); err != nil {
		if errors.Is(err, errClosed) {
			return added, ErrGameNotActive
		}
		return added, err
	}
	if s.Closed() {
		return added, ErrGameNotActive
	}
	logging.Info(s.logger, "client subscribed",
		logging.FieldClient, c.Key(),
		logging.FieldClientKind, string(c.Kind),
		"new", added,
	)
	return added, nil
}

// ensureJobs schedules whatever the event's current state needs. Existing
// jobs are left alone; adding one that already exists would only reset it.
// Once kickoff was announced only polling is scheduled, even while the feed
// still reports the game as not started.
func (s *Subscription) ensureJobs() error {
	ev := s.Event()
	sched := s.deps.Scheduler
	if ev.Started || ev.State.InProgress() || sched.HasJob(s.JobID(PhaseInProgress)) {
		return s.startPolling()
	}

	now := s.deps.Clock.Now()
	if !sched.HasJob(s.JobID(PhaseScheduled)) {
		at := ev.StartTime
		if at.Before(now) {
			at = now
		}
		if err := s.addJob(PhaseScheduled, s.onStart, scheduler.DateTrigger{At: at}); err != nil {
			return err
		}
	}
	if !sched.HasJob(s.JobID(PhaseBeforeGame)) {
		s.armLineupCheck(now)
	}
	return nil
}

func (s *Subscription) startPolling() error {
	if s.deps.Scheduler.HasJob(s.JobID(PhaseInProgress)) {
		return nil
	}
	return s.addJob(PhaseInProgress, s.Trigger, scheduler.IntervalTrigger{Every: s.deps.Timing.PollInterval})
}

// addJob schedules one of the event's phases unless the subscription has
// closed. close sets the flag under mu before cancelling jobs, so a job
// added here is either never created or cancelled by close.
func (s *Subscription) addJob(phase Phase, fn scheduler.Func, trigger scheduler.Trigger) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errClosed
	}
	return s.deps.Scheduler.AddJob(JobID(s.event.ID, phase), fn, trigger,
		scheduler.WithMisfireGrace(s.deps.Timing.MisfireGrace),
	)
}

// retireIfClosed cancels the job for phase when the subscription has closed
// and reports whether it did.
func (s *Subscription) retireIfClosed(phase Phase) bool {
	if !s.Closed() {
		return false
	}
	s.deps.Scheduler.CancelJob(s.JobID(phase))
	return true
}

// armLineupCheck schedules the next one-shot lineup check, unless kickoff
// comes first.
func (s *Subscription) armLineupCheck(now time.Time) {
	ev := s.Event()
	at := ev.StartTime.Add(-s.deps.Timing.LineupLead)
	if at.Before(now) {
		at = now
	}
	if !at.Before(ev.StartTime) {
		return
	}
	err := s.addJob(PhaseBeforeGame, s.BeforeGameTrigger, scheduler.DateTrigger{At: at})
	if err != nil && !errors.Is(err, errClosed) {
		logging.Warn(s.logger, "failed to schedule lineup check", "err", err)
	}
}

// onStart runs at kickoff: it announces the game and starts polling.
func (s *Subscription) onStart(ctx context.Context) {
	if s.retireIfClosed(PhaseScheduled) {
		return
	}
	s.deps.Scheduler.CancelJob(s.JobID(PhaseBeforeGame))

	s.mu.Lock()
	already := s.event.Started
	s.event.Started = true
	ev := s.event
	s.mu.Unlock()
	if already {
		logging.Debug(s.logger, "kickoff already announced", logging.FieldPhase, string(PhaseScheduled))
	} else {
		if err := s.deps.Registry.SaveEvent(ctx, ev); err != nil {
			logging.Warn(s.logger, "failed to persist kickoff", "err", err)
		}
		logging.Info(s.logger, "kickoff", logging.FieldPhase, string(PhaseScheduled))
		s.broadcast(ctx, func(delivery.Client) delivery.Update {
			return delivery.NewMessage(ev.ID, kickoffMessage(ev), classifier.IconWhistle)
		})
	}
	if err := s.startPolling(); err != nil && !errors.Is(err, errClosed) {
		logging.Error(s.logger, "failed to start polling", err)
	}
}

// Trigger runs one tick: fetch, diff, announce. A failed fetch is logged
// and skipped; the next tick retries. Once the event reached a terminal
// state every subscriber is cancelled and later calls do nothing.
func (s *Subscription) Trigger(ctx context.Context) {
	if s.retireIfClosed(PhaseInProgress) {
		return
	}
	start := s.deps.Clock.Now()
	err := s.tick(ctx)
	s.deps.Metrics.RecordTick(s.deps.Clock.Now().Sub(start), err)
	if err != nil {
		logging.Warn(s.logger, "tick skipped", logging.FieldPhase, string(PhaseInProgress), "err", err)
	}
}

func (s *Subscription) tick(ctx context.Context) error {
	ev := s.Event()
	fresh, err := s.deps.Provider.FetchSnapshot(ctx, ev)
	if err != nil {
		return err
	}
	fresh.EventID = ev.ID

	res, err := s.deps.Cache.Observe(ctx, fresh)
	if err != nil {
		return err
	}
	if res.StatusChanged {
		s.updateStatus(ctx, fresh)
	}

	if announced := s.fresh(res.NewEvents, fresh.GameTime); len(announced) > 0 {
		s.broadcast(ctx, func(c delivery.Client) delivery.Update {
			return subEventUpdate(c, fresh, announced)
		})
		if goals := classifier.Goals(announced); len(goals) > 0 && s.deps.Goals != nil {
			s.deps.Goals.Enqueue(ctx, fresh, goals)
		}
	}
	if res.Halftime {
		s.broadcast(ctx, func(delivery.Client) delivery.Update {
			return delivery.NewMessage(ev.ID, halftimeMessage(fresh), classifier.IconWhistle)
		})
	}
	if res.Terminal {
		logging.Info(s.logger, "event ended", "reason", string(res.Reason))
		s.broadcast(ctx, func(delivery.Client) delivery.Update {
			return delivery.NewMessage(ev.ID, fulltimeMessage(fresh), classifier.IconWhistle)
		})
		s.CancelAll(ctx)
		return nil
	}
	if state := classifier.State(fresh.RawStatus); res.StatusChanged && !state.IsValid() {
		logging.Info(s.logger, "event called off", logging.FieldStatus, fresh.RawStatus)
		s.broadcast(ctx, func(delivery.Client) delivery.Update {
			return delivery.NewMessage(ev.ID, calledOffMessage(ev, state), classifier.IconWhistle)
		})
		s.CancelAll(ctx)
	}
	return nil
}

// fresh drops sub-events that are too far behind the game clock to be news.
func (s *Subscription) fresh(subs []events.SubEvent, clock float64) []events.SubEvent {
	out := subs[:0:0]
	for _, e := range subs {
		if classifier.IsStale(e, clock) {
			logging.Debug(s.logger, "suppressing stale sub-event", "order", e.Order, "game_time", e.GameTime)
			continue
		}
		out = append(out, e)
	}
	return out
}

func (s *Subscription) updateStatus(ctx context.Context, fresh events.Snapshot) {
	s.mu.Lock()
	s.event.RawStatus = fresh.RawStatus
	s.event.State = classifier.State(fresh.RawStatus)
	if fresh.StatusText != "" {
		s.event.DisplayStatus = fresh.StatusText
	}
	ev := s.event
	s.mu.Unlock()

	if err := s.deps.Registry.SaveEvent(ctx, ev); err != nil {
		logging.Warn(s.logger, "failed to persist event status", logging.FieldStatus, ev.RawStatus, "err", err)
	}
}

// BeforeGameTrigger checks for lineups. It announces them once both sides
// are on the pitch; otherwise it re-arms itself until kickoff.
func (s *Subscription) BeforeGameTrigger(ctx context.Context) {
	if s.retireIfClosed(PhaseBeforeGame) {
		return
	}
	ev := s.Event()
	lineups, err := s.deps.Provider.FetchLineups(ctx, ev)
	switch {
	case err != nil:
		logging.Debug(s.logger, "lineup fetch failed", logging.FieldPhase, string(PhaseBeforeGame), "err", err)
	case lineups.Available():
		s.broadcast(ctx, func(delivery.Client) delivery.Update {
			return delivery.NewMessage(ev.ID, lineupsMessage(ev, lineups), classifier.IconEvent)
		})
		return
	}
	s.armLineupCheck(s.deps.Clock.Now().Add(s.deps.Timing.LineupInterval))
}

// Cancel removes c. Webhook clients get a best-effort cancellation notice.
// When the last subscriber leaves, the subscription shuts down.
func (s *Subscription) Cancel(ctx context.Context, c delivery.Client) error {
	ev := s.Event()
	remaining, err := s.deps.Registry.Remove(ctx, ev.ID, c)
	if err != nil {
		return err
	}
	if c.IsWebhook() {
		if err := s.deps.Transport.Send(ctx, c, delivery.NewCancel(ev.ID, cancelMessage(ev))); err != nil {
			logging.Warn(s.logger, "cancel notice failed", logging.FieldClient, c.Key(), "err", err)
		}
	}
	logging.Info(s.logger, "client unsubscribed", logging.FieldClient, c.Key(), logging.FieldCount, remaining)
	if remaining == 0 {
		s.close(ctx)
	}
	return nil
}

// CancelAll removes every subscriber and shuts the subscription down.
func (s *Subscription) CancelAll(ctx context.Context) {
	ev := s.Event()
	clients, err := s.deps.Registry.Clients(ctx, ev.ID)
	if err != nil {
		logging.Warn(s.logger, "failed to list subscribers for cancel", "err", err)
	}
	for _, c := range clients {
		if err := s.Cancel(ctx, c); err != nil {
			logging.Warn(s.logger, "failed to cancel subscriber", logging.FieldClient, c.Key(), "err", err)
		}
	}
	s.close(ctx)
}

// close cancels every job of the event and drops its stored state.
func (s *Subscription) close(ctx context.Context) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	id := s.event.ID
	s.mu.Unlock()

	for _, phase := range Phases {
		s.deps.Scheduler.CancelJob(JobID(id, phase))
	}
	if err := s.deps.Registry.Forget(ctx, id); err != nil {
		logging.Warn(s.logger, "failed to forget event", "err", err)
	}
	if err := s.deps.Cache.Forget(ctx, id); err != nil {
		logging.Warn(s.logger, "failed to drop cached snapshot", "err", err)
	}
	if s.onDone != nil {
		s.onDone(s)
	}
	logging.Info(s.logger, "subscription closed")
}

// broadcast sends one update per subscriber, in turn. A failed delivery is
// logged and never stops the others.
func (s *Subscription) broadcast(ctx context.Context, build func(delivery.Client) delivery.Update) int {
	ev := s.Event()
	clients, err := s.deps.Registry.Clients(ctx, ev.ID)
	if err != nil {
		logging.Warn(s.logger, "failed to list subscribers", "err", err)
		return 0
	}
	sent := 0
	for _, c := range clients {
		err := s.deps.Transport.Send(ctx, c, build(c))
		switch {
		case err == nil:
			sent++
		case errors.Is(err, delivery.ErrUnknownClient):
			logging.Debug(s.logger, "subscriber not connected", logging.FieldClient, c.Key())
		default:
			logging.Warn(s.logger, "delivery failed",
				logging.FieldClient, c.Key(),
				logging.FieldClientKind, string(c.Kind),
				"err", err,
			)
		}
	}
	return sent
}
