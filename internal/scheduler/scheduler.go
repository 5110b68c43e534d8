package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/juju/clock"
	"golang.org/x/sync/semaphore"

	"github.com/preston-bernstein/footy-live-service/internal/logging"
	"github.com/preston-bernstein/footy-live-service/internal/metrics"
)

const (
	defaultWorkers      = 16
	defaultMisfireGrace = time.Minute
)

// Func is the unit of work a job runs. ctx is cancelled when the scheduler stops.
type Func func(ctx context.Context)

// Config wires a Scheduler.
type Config struct {
	Clock        clock.Clock
	Workers      int
	MisfireGrace time.Duration
	Logger       *slog.Logger
	Metrics      *metrics.Recorder
}

// Option customizes one job.
type Option func(*job)

// WithMisfireGrace overrides how late a fire may run before it is dropped.
func WithMisfireGrace(d time.Duration) Option {
	return func(j *job) {
		if d > 0 {
			j.grace = d
		}
	}
}

// JobInfo describes a scheduled job.
type JobInfo struct {
	ID      string
	Kind    string
	NextRun time.Time
}

// Scheduler runs id-keyed jobs on interval or date triggers. Adding a job
// with an existing id replaces it, so an id never has two live timers.
// Executions share a fixed number of worker slots; a single job never
// overlaps with itself.
type Scheduler struct {
	clock   clock.Clock
	slots   *semaphore.Weighted
	grace   time.Duration
	logger  *slog.Logger
	metrics *metrics.Recorder

	mu      sync.Mutex
	jobs    map[string]*job
	ctx     context.Context
	cancel  context.CancelFunc
	running bool
	stopped bool
	wg      sync.WaitGroup
}

type job struct {
	id       string
	fn       Func
	trigger  Trigger
	grace    time.Duration
	nextRun  time.Time
	stop     chan struct{}
	stopOnce sync.Once
}

func (j *job) halt() {
	j.stopOnce.Do(func() { close(j.stop) })
}

func (j *job) halted() bool {
	select {
	case <-j.stop:
		return true
	default:
		return false
	}
}

// New constructs a Scheduler. Jobs added before Start wait until it is called.
func New(cfg Config) *Scheduler {
	if cfg.Clock == nil {
		cfg.Clock = clock.WallClock
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.MisfireGrace <= 0 {
		cfg.MisfireGrace = defaultMisfireGrace
	}
	return &Scheduler{
		clock:   cfg.Clock,
		slots:   semaphore.NewWeighted(int64(cfg.Workers)),
		grace:   cfg.MisfireGrace,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		jobs:    make(map[string]*job),
	}
}

// AddJob registers fn under id, replacing any job already using that id.
// A replaced job that is mid-execution finishes its current run.
func (s *Scheduler) AddJob(id string, fn Func, trigger Trigger, opts ...Option) error {
	if id == "" || fn == nil || trigger == nil {
		return errors.New("scheduler: job id, func and trigger are required")
	}
	first, ok := trigger.First(s.clock.Now())
	if !ok {
		return fmt.Errorf("%w: job %s", ErrNoFireTime, id)
	}

	j := &job{
		id:      id,
		fn:      fn,
		trigger: trigger,
		grace:   s.grace,
		nextRun: first,
		stop:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(j)
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return errors.New("scheduler: stopped")
	}
	replaced, existed := s.jobs[id]
	s.jobs[id] = j
	if s.running {
		s.launch(j)
	}
	count := len(s.jobs)
	s.mu.Unlock()

	if existed {
		replaced.halt()
	}
	s.metrics.RecordJobsActive(count)
	logging.Debug(s.logger, "job scheduled",
		logging.FieldJobID, id,
		"trigger", trigger.Kind(),
		"next_run", first,
		"replaced", existed,
	)
	return nil
}

// CancelJob removes the job with id. Cancelling an unknown id is not an
// error; the return value reports whether a job was removed.
func (s *Scheduler) CancelJob(id string) bool {
	s.mu.Lock()
	j, ok := s.jobs[id]
	if ok {
		delete(s.jobs, id)
	}
	count := len(s.jobs)
	s.mu.Unlock()

	if !ok {
		return false
	}
	j.halt()
	s.metrics.RecordJobsActive(count)
	logging.Debug(s.logger, "job cancelled", logging.FieldJobID, id)
	return true
}

// HasJob reports whether a job with id is scheduled.
func (s *Scheduler) HasJob(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[id]
	return ok
}

// Job returns details of the job with id.
func (s *Scheduler) Job(id string) (JobInfo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return JobInfo{}, false
	}
	return JobInfo{ID: j.id, Kind: j.trigger.Kind(), NextRun: j.nextRun}, true
}

// Jobs lists scheduled jobs ordered by id.
func (s *Scheduler) Jobs() []JobInfo {
	s.mu.Lock()
	out := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, JobInfo{ID: j.id, Kind: j.trigger.Kind(), NextRun: j.nextRun})
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

// Start launches every pending job. It is a no-op when already running.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running || s.stopped {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	for _, j := range s.jobs {
		s.launch(j)
	}
	logging.Info(s.logger, "scheduler started", logging.FieldCount, len(s.jobs))
}

// Stop halts every job loop and waits for in-flight runs until ctx ends.
// Stop is idempotent.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	s.running = false
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logging.Info(s.logger, "scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// launch must be called with s.mu held.
func (s *Scheduler) launch(j *job) {
	s.wg.Add(1)
	go s.loop(s.ctx, j)
}

func (s *Scheduler) loop(ctx context.Context, j *job) {
	defer s.wg.Done()

	next := j.nextRun
	for {
		delay := next.Sub(s.clock.Now())
		if delay < 0 {
			delay = 0
		}
		timer := s.clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-j.stop:
			timer.Stop()
			return
		case <-timer.Chan():
		}

		if late := s.clock.Now().Sub(next); late > j.grace {
			s.metrics.RecordMisfire()
			logging.Warn(s.logger, "job misfired",
				logging.FieldJobID, j.id,
				"late_ms", late.Milliseconds(),
			)
		} else {
			s.execute(ctx, j)
		}

		var ok bool
		next, ok = j.trigger.Next(next, s.clock.Now())
		if !ok {
			s.retire(j)
			return
		}
		s.mu.Lock()
		j.nextRun = next
		s.mu.Unlock()
	}
}

func (s *Scheduler) execute(ctx context.Context, j *job) {
	if err := s.slots.Acquire(ctx, 1); err != nil {
		return
	}
	defer s.slots.Release(1)
	if j.halted() {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Error(s.logger, "job panicked", fmt.Errorf("%v", r), logging.FieldJobID, j.id)
		}
	}()
	j.fn(ctx)
}

// retire drops a job whose trigger is exhausted, unless it was replaced.
func (s *Scheduler) retire(j *job) {
	s.mu.Lock()
	current, ok := s.jobs[j.id]
	if ok && current == j {
		delete(s.jobs, j.id)
	}
	count := len(s.jobs)
	s.mu.Unlock()
	s.metrics.RecordJobsActive(count)
}
