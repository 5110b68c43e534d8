package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
	"github.com/preston-bernstein/footy-live-service/internal/logging"
)

const defaultInterval = 2 * time.Minute

// EventFetcher lists the games currently on the feed.
type EventFetcher interface {
	FetchEvents(ctx context.Context) ([]events.Event, error)
}

// Poller keeps the list of current games warm so subscribe queries resolve
// without a feed round trip, and tracks feed health for readiness checks.
type Poller struct {
	provider EventFetcher
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool

	statusMu sync.RWMutex
	status   Status
	events   []events.Event
}

// Status describes the recent health of the poller loop.
type Status struct {
	ConsecutiveFailures int
	LastError           string
	LastAttempt         time.Time
	LastSuccess         time.Time
	Count               int
}

// IsReady reports whether the poller has had a recent success and is not failing repeatedly.
func (s Status) IsReady() bool {
	if s.LastSuccess.IsZero() {
		return false
	}
	return s.ConsecutiveFailures < 3
}

// New constructs a Poller with sane defaults.
func New(provider EventFetcher, logger *slog.Logger, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Poller{
		provider: provider,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

// Start begins polling until the context is cancelled or Stop is called.
func (p *Poller) Start(ctx context.Context) {
	p.startMu.Lock()
	if p.started {
		p.startMu.Unlock()
		return
	}
	p.started = true
	p.startMu.Unlock()

	p.ticker = time.NewTicker(p.interval)

	go func() {
		logging.Info(p.logger, "feed poller started", logging.FieldDurationMS, p.interval.Milliseconds())
		// Warm the list on boot.
		_, _ = p.Refresh(ctx)

		for {
			select {
			case <-ctx.Done():
				p.stopTicker()
				logging.Info(p.logger, "feed poller stopped")
				return
			case <-p.done:
				p.stopTicker()
				logging.Info(p.logger, "feed poller stopped")
				return
			case <-p.ticker.C:
				_, _ = p.Refresh(ctx)
			}
		}
	}()
}

// Stop halts the polling loop.
func (p *Poller) Stop(ctx context.Context) error {
	_ = ctx
	p.stopOnce.Do(func() {
		close(p.done)
		p.stopTicker()
	})
	return nil
}

// Events returns the cached game list while it is fresh and fetches through
// to the feed otherwise.
func (p *Poller) Events(ctx context.Context) ([]events.Event, error) {
	p.statusMu.RLock()
	last := p.status.LastSuccess
	cached := p.events
	p.statusMu.RUnlock()

	if !last.IsZero() && p.now().Sub(last) < 2*p.interval {
		return append([]events.Event(nil), cached...), nil
	}
	return p.Refresh(ctx)
}

// Refresh fetches the game list now.
func (p *Poller) Refresh(ctx context.Context) ([]events.Event, error) {
	start := p.now()
	p.recordAttempt(start)
	list, err := p.provider.FetchEvents(ctx)
	if err != nil {
		logging.Error(p.logger, "feed refresh failed", err, logging.FieldDurationMS, p.now().Sub(start).Milliseconds())
		p.recordFailure(err, start)
		return nil, err
	}

	p.recordSuccess(start, list)
	logging.Debug(p.logger, "feed refreshed",
		logging.FieldCount, len(list),
		logging.FieldDurationMS, p.now().Sub(start).Milliseconds(),
	)
	return append([]events.Event(nil), list...), nil
}

func (p *Poller) stopTicker() {
	if p.ticker != nil {
		p.ticker.Stop()
	}
}

func (p *Poller) recordAttempt(at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.LastAttempt = at
}

func (p *Poller) recordSuccess(at time.Time, list []events.Event) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures = 0
	p.status.LastError = ""
	p.status.LastSuccess = at
	p.status.Count = len(list)
	p.events = append([]events.Event(nil), list...)
}

func (p *Poller) recordFailure(err error, at time.Time) {
	p.statusMu.Lock()
	defer p.statusMu.Unlock()
	p.status.ConsecutiveFailures++
	if err != nil {
		p.status.LastError = err.Error()
	}
	p.status.LastAttempt = at
}

// Status returns a snapshot of the poller's recent health.
func (p *Poller) Status() Status {
	p.statusMu.RLock()
	defer p.statusMu.RUnlock()
	return p.status
}
