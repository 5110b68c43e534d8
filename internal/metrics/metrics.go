package metrics

import (
	"sync"
	"time"
)

type providerStats struct {
	calls           int
	errors          int
	rateLimitHits   int
	lastRetryAfter  time.Duration
	lastCallLatency time.Duration
}

type deliveryStats struct {
	sent   int
	failed int
}

// Recorder captures lightweight, in-memory metrics and forwards them to
// OpenTelemetry instruments when telemetry is enabled. All methods are nil-safe.
type Recorder struct {
	mu         sync.Mutex
	stats      map[string]*providerStats
	deliveries map[string]*deliveryStats
	goals      map[string]int
	ticks      int
	tickErrors int
	misfires   int
	jobsActive int
	otel       *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		stats:      make(map[string]*providerStats),
		deliveries: make(map[string]*deliveryStats),
		goals:      make(map[string]int),
		otel:       otel,
	}
}

// RecordProviderAttempt increments counters for a provider call and stores the last observed latency.
func (r *Recorder) RecordProviderAttempt(provider string, duration time.Duration, err error) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.ensureStats(provider)
	stats.calls++
	stats.lastCallLatency = duration
	if err != nil {
		stats.errors++
	}
	r.mu.Unlock()

	r.otel.recordProviderAttempt(provider, duration, err)
}

// RecordRateLimit tracks that a provider response hit a rate limit and stores the last Retry-After.
func (r *Recorder) RecordRateLimit(provider string, retryAfter time.Duration) {
	if r == nil {
		return
	}

	r.mu.Lock()
	stats := r.ensureStats(provider)
	stats.rateLimitHits++
	if retryAfter > 0 {
		stats.lastRetryAfter = retryAfter
	}
	r.mu.Unlock()

	r.otel.recordRateLimit(provider, retryAfter)
}

// RecordTick tracks one subscription tick and whether its fetch failed.
func (r *Recorder) RecordTick(duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.ticks++
	if err != nil {
		r.tickErrors++
	}
	r.mu.Unlock()

	r.otel.recordTick(duration, err)
}

// RecordDelivery tracks one update sent to a subscriber of the given kind.
func (r *Recorder) RecordDelivery(kind string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	stats, ok := r.deliveries[kind]
	if !ok {
		stats = &deliveryStats{}
		r.deliveries[kind] = stats
	}
	if err != nil {
		stats.failed++
	} else {
		stats.sent++
	}
	r.mu.Unlock()

	r.otel.recordDelivery(kind, duration, err)
}

// RecordMisfire tracks a scheduled fire that was dropped for running too late.
func (r *Recorder) RecordMisfire() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.misfires++
	r.mu.Unlock()

	r.otel.recordMisfire()
}

// RecordJobsActive stores the current number of scheduled jobs.
func (r *Recorder) RecordJobsActive(n int) {
	if r == nil {
		return
	}
	r.mu.Lock()
	delta := n - r.jobsActive
	r.jobsActive = n
	r.mu.Unlock()

	r.otel.recordJobsDelta(delta)
}

// RecordGoalResolution tracks a goal leaving the clip queue.
func (r *Recorder) RecordGoalResolution(outcome string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.goals[outcome]++
	r.mu.Unlock()

	r.otel.recordGoal(outcome)
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// ProviderCalls returns the total attempts recorded for a provider.
func (r *Recorder) ProviderCalls(provider string) int {
	return r.Snapshot(provider).Calls
}

// ProviderErrors returns the total failed attempts recorded for a provider.
func (r *Recorder) ProviderErrors(provider string) int {
	return r.Snapshot(provider).Errors
}

// RateLimitHits returns the number of rate limit events seen for a provider.
func (r *Recorder) RateLimitHits(provider string) int {
	return r.Snapshot(provider).RateLimitHits
}

// LastRetryAfter returns the most recent Retry-After recorded for a provider.
func (r *Recorder) LastRetryAfter(provider string) time.Duration {
	return r.Snapshot(provider).LastRetryAfter
}

// LastCallLatency returns the last recorded latency for a provider call.
func (r *Recorder) LastCallLatency(provider string) time.Duration {
	return r.Snapshot(provider).LastCallLatency
}

// Ticks returns the number of subscription ticks and how many failed.
func (r *Recorder) Ticks() (total, failed int) {
	if r == nil {
		return 0, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ticks, r.tickErrors
}

// Deliveries returns successful deliveries for a client kind.
func (r *Recorder) Deliveries(kind string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if stats, ok := r.deliveries[kind]; ok {
		return stats.sent
	}
	return 0
}

// DeliveryFailures returns failed deliveries for a client kind.
func (r *Recorder) DeliveryFailures(kind string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if stats, ok := r.deliveries[kind]; ok {
		return stats.failed
	}
	return 0
}

// Misfires returns the number of dropped late fires.
func (r *Recorder) Misfires() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.misfires
}

// JobsActive returns the last recorded scheduled job count.
func (r *Recorder) JobsActive() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobsActive
}

// GoalResolutions returns how many goals left the queue with the given outcome.
func (r *Recorder) GoalResolutions(outcome string) int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.goals[outcome]
}

// Snapshot returns a copy of the current stats for the provider.
type Snapshot struct {
	Calls           int
	Errors          int
	RateLimitHits   int
	LastRetryAfter  time.Duration
	LastCallLatency time.Duration
}

func (r *Recorder) Snapshot(provider string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.stats[provider]
	if !ok || stats == nil {
		return Snapshot{}
	}
	return Snapshot{
		Calls:           stats.calls,
		Errors:          stats.errors,
		RateLimitHits:   stats.rateLimitHits,
		LastRetryAfter:  stats.lastRetryAfter,
		LastCallLatency: stats.lastCallLatency,
	}
}

// ensureStats must be called with r.mu held.
func (r *Recorder) ensureStats(provider string) *providerStats {
	stats, ok := r.stats[provider]
	if !ok {
		stats = &providerStats{}
		r.stats[provider] = stats
	}
	return stats
}
