package goals

import (
	"context"
	"log/slog"
	"time"

	"github.com/juju/clock"

	"github.com/preston-bernstein/footy-live-service/internal/delivery"
	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
	"github.com/preston-bernstein/footy-live-service/internal/logging"
	"github.com/preston-bernstein/footy-live-service/internal/metrics"
	"github.com/preston-bernstein/footy-live-service/internal/scheduler"
)

// JobID is the scheduler id of the pipeline's polling job.
const JobID = "goals:poll"

// DefaultPollInterval is how often queued goals are checked for clips.
const DefaultPollInterval = 30 * time.Second

// Subscribers lists the clients of an event.
type Subscribers interface {
	Clients(ctx context.Context, eventID string) ([]delivery.Client, error)
}

// Config wires a Pipeline. Finder, Archive and Publisher are optional.
type Config struct {
	Queue       *Queue
	Finder      ClipFinder
	Archive     Archive
	Publisher   Publisher
	Subscribers Subscribers
	Transport   delivery.Transport
	Clock       clock.Clock
	Expiry      time.Duration
	Logger      *slog.Logger
	Metrics     *metrics.Recorder
}

// Pipeline matches queued goals with clips. It never blocks or fails the
// subscription that enqueued them; every error is logged and dropped.
type Pipeline struct {
	queue       *Queue
	finder      ClipFinder
	archive     Archive
	publisher   Publisher
	subscribers Subscribers
	transport   delivery.Transport
	clock       clock.Clock
	expiry      time.Duration
	logger      *slog.Logger
	metrics     *metrics.Recorder
}

// NewPipeline constructs a Pipeline.
func NewPipeline(cfg Config) *Pipeline {
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Expiry <= 0 {
		cfg.Expiry = DefaultExpiry
	}
	return &Pipeline{
		queue:       cfg.Queue,
		finder:      cfg.Finder,
		archive:     cfg.Archive,
		publisher:   cfg.Publisher,
		subscribers: cfg.Subscribers,
		transport:   cfg.Transport,
		clock:       cfg.Clock,
		expiry:      cfg.Expiry,
		logger:      cfg.Logger,
		metrics:     cfg.Metrics,
	}
}

// Register schedules Poll every interval under JobID.
func (p *Pipeline) Register(s *scheduler.Scheduler, every time.Duration) error {
	if every <= 0 {
		every = DefaultPollInterval
	}
	return s.AddJob(JobID, p.Poll, scheduler.IntervalTrigger{Every: every})
}

// Enqueue queues every goal in goals and returns how many were new. Goals
// already queued are not archived or published again.
func (p *Pipeline) Enqueue(ctx context.Context, snap events.Snapshot, goals []events.SubEvent) int {
	now := p.clock.Now()
	added := 0
	for _, g := range goals {
		query := NewQuery(snap, g, now)
		isNew, err := p.queue.Enqueue(ctx, query)
		if err != nil {
			logging.Error(p.logger, "failed to enqueue goal", err,
				logging.FieldEventID, query.EventID,
				logging.FieldGoalID, query.ID,
			)
			continue
		}
		if !isNew {
			continue
		}
		added++
		logging.Info(p.logger, "goal queued for clip",
			logging.FieldEventID, query.EventID,
			logging.FieldGoalID, query.ID,
		)
		if p.archive != nil {
			if err := p.archive.Record(ctx, query); err != nil {
				logging.Warn(p.logger, "failed to archive goal", logging.FieldGoalID, query.ID, "err", err)
			}
		}
		if p.publisher != nil {
			if err := p.publisher.Publish(ctx, query); err != nil {
				logging.Warn(p.logger, "failed to publish goal", logging.FieldGoalID, query.ID, "err", err)
			}
		}
	}
	return added
}

// Poll checks each queued goal once: expired goals are dropped, goals with a
// clip are delivered to the event's subscribers and removed.
func (p *Pipeline) Poll(ctx context.Context) {
	pending, err := p.queue.Pending(ctx)
	if err != nil {
		logging.Warn(p.logger, "failed to read goal queue", "err", err)
		return
	}
	for _, goal := range pending {
		if ctx.Err() != nil {
			return
		}
		p.check(ctx, goal)
	}
}

func (p *Pipeline) check(ctx context.Context, goal GoalQuery) {
	now := p.clock.Now()
	if goal.Expired(now, p.expiry) {
		p.resolve(ctx, goal, metrics.OutcomeExpired, "", now)
		logging.Debug(p.logger, "goal expired without clip",
			logging.FieldEventID, goal.EventID,
			logging.FieldGoalID, goal.ID,
		)
		return
	}
	if p.finder == nil {
		return
	}

	clip, found, err := p.finder.Find(ctx, goal)
	if err != nil {
		logging.Debug(p.logger, "clip lookup failed", logging.FieldGoalID, goal.ID, "err", err)
		return
	}
	if !found {
		return
	}

	p.deliver(ctx, goal, clip)
	p.resolve(ctx, goal, metrics.OutcomeFound, clip.URL, now)
}

func (p *Pipeline) deliver(ctx context.Context, goal GoalQuery, clip Clip) {
	if p.subscribers == nil || p.transport == nil {
		return
	}
	clients, err := p.subscribers.Clients(ctx, goal.EventID)
	if err != nil {
		logging.Warn(p.logger, "failed to list clip recipients", logging.FieldEventID, goal.EventID, "err", err)
		return
	}
	update := delivery.NewClip(goal.EventID, goal.Message(), clip.URL)
	for _, c := range clients {
		if err := p.transport.Send(ctx, c, update); err != nil {
			logging.Warn(p.logger, "failed to deliver clip",
				logging.FieldEventID, goal.EventID,
				logging.FieldClient, c.Key(),
				"err", err,
			)
		}
	}
}

func (p *Pipeline) resolve(ctx context.Context, goal GoalQuery, outcome, clipURL string, at time.Time) {
	if err := p.queue.Remove(ctx, goal); err != nil {
		logging.Warn(p.logger, "failed to dequeue goal", logging.FieldGoalID, goal.ID, "err", err)
		return
	}
	p.metrics.RecordGoalResolution(outcome)
	if p.archive != nil {
		if err := p.archive.Resolve(ctx, goal.ID, outcome, clipURL, at.UTC()); err != nil {
			logging.Warn(p.logger, "failed to archive goal outcome", logging.FieldGoalID, goal.ID, "err", err)
		}
	}
}
