package providers

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
	"github.com/preston-bernstein/footy-live-service/internal/logging"
	"github.com/preston-bernstein/footy-live-service/internal/metrics"
)

const (
	defaultRetryAttempts = 3
	defaultBackoff       = 200 * time.Millisecond
)

type backoffFunc func(attempt int) time.Duration

// retryingProvider wraps a LiveScoreProvider with retry/backoff on event
// listing. Snapshot and lineup fetches are single-shot: the next tick retries.
type retryingProvider struct {
	inner        LiveScoreProvider
	logger       *slog.Logger
	metrics      *metrics.Recorder
	providerName string
	maxAttempts  int
	backoffFn    backoffFunc
	rng          *rand.Rand
}

// NewRetryingProvider wraps the given provider with retries. If maxAttempts/backoff are <= 0, defaults are used.
func NewRetryingProvider(inner LiveScoreProvider, logger *slog.Logger, recorder *metrics.Recorder, providerName string, maxAttempts int, backoff time.Duration) LiveScoreProvider {
	return NewRetryingProviderWithRNG(inner, logger, recorder, providerName, nil, maxAttempts, backoff)
}

// NewRetryingProviderWithRNG is NewRetryingProvider with a caller-supplied jitter source.
func NewRetryingProviderWithRNG(inner LiveScoreProvider, logger *slog.Logger, recorder *metrics.Recorder, providerName string, rng *rand.Rand, maxAttempts int, backoff time.Duration) LiveScoreProvider {
	if maxAttempts <= 0 {
		maxAttempts = defaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	if providerName == "" {
		providerName = "provider"
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &retryingProvider{
		inner:        inner,
		logger:       logger,
		metrics:      recorder,
		providerName: providerName,
		maxAttempts:  maxAttempts,
		backoffFn: func(attempt int) time.Duration {
			return time.Duration(attempt) * backoff
		},
		rng: rng,
	}
}

func (r *retryingProvider) FetchEvents(ctx context.Context) ([]events.Event, error) {
	if r.inner == nil {
		return nil, ErrProviderUnavailable
	}
	var lastErr error

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		start := time.Now()
		evs, err := r.inner.FetchEvents(ctx)
		r.record(start, err)
		if err == nil {
			return evs, nil
		}
		lastErr = err

		if attempt == r.maxAttempts {
			break
		}

		delay := r.computeDelay(err, attempt)
		r.logWarn(ctx, "provider fetch retry", "attempt", attempt, "max_attempts", r.maxAttempts, "delay", delay, "err", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}

	r.logWarn(ctx, "provider fetch failed", "attempts", r.maxAttempts, "err", lastErr)
	return nil, lastErr
}

func (r *retryingProvider) FetchSnapshot(ctx context.Context, ev events.Event) (events.Snapshot, error) {
	if r.inner == nil {
		return events.Snapshot{}, ErrProviderUnavailable
	}
	start := time.Now()
	snap, err := r.inner.FetchSnapshot(ctx, ev)
	r.record(start, err)
	return snap, err
}

func (r *retryingProvider) FetchLineups(ctx context.Context, ev events.Event) (events.Lineups, error) {
	if r.inner == nil {
		return events.Lineups{}, ErrProviderUnavailable
	}
	start := time.Now()
	lineups, err := r.inner.FetchLineups(ctx, ev)
	r.record(start, err)
	return lineups, err
}

func (r *retryingProvider) record(start time.Time, err error) {
	r.metrics.RecordProviderAttempt(r.providerName, time.Since(start), err)
	if rlErr, ok := AsRateLimitError(err); ok {
		r.metrics.RecordRateLimit(r.providerName, rlErr.RetryAfter)
	}
}

// computeDelay honors Retry-After on rate limits, otherwise applies the linear
// backoff with up to 50% jitter.
func (r *retryingProvider) computeDelay(err error, attempt int) time.Duration {
	if rlErr, ok := AsRateLimitError(err); ok && rlErr.RetryAfter > 0 {
		return rlErr.RetryAfter
	}
	base := r.backoffFn(attempt)
	if base <= 0 {
		return 0
	}
	half := base / 2
	return half + time.Duration(r.rng.Int63n(int64(half)+1))
}

func (r *retryingProvider) logWarn(ctx context.Context, msg string, args ...any) {
	logger := logging.FromContext(ctx, r.logger)
	if logger != nil {
		args = append(args, slog.String(logging.FieldProvider, r.providerName))
		logger.Warn(msg, args...)
	}
}
