package providers

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
)

const (
	defaultRatePerMinute = 120
	defaultBurst         = 10
)

// rateLimitedProvider wraps a LiveScoreProvider with a token bucket shared by
// every subscription job in the process.
type rateLimitedProvider struct {
	next    LiveScoreProvider
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRateLimitedProvider returns a LiveScoreProvider that allows perMinute calls
// with the given burst. Calls block until a token is available or ctx ends.
func NewRateLimitedProvider(next LiveScoreProvider, perMinute, burst int, logger *slog.Logger) LiveScoreProvider {
	if perMinute <= 0 {
		perMinute = defaultRatePerMinute
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return &rateLimitedProvider{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60), burst),
		logger:  logger,
	}
}

func (p *rateLimitedProvider) FetchEvents(ctx context.Context) ([]events.Event, error) {
	if err := p.wait(ctx, "events"); err != nil {
		return nil, err
	}
	return p.next.FetchEvents(ctx)
}

func (p *rateLimitedProvider) FetchSnapshot(ctx context.Context, ev events.Event) (events.Snapshot, error) {
	if err := p.wait(ctx, "snapshot"); err != nil {
		return events.Snapshot{}, err
	}
	return p.next.FetchSnapshot(ctx, ev)
}

func (p *rateLimitedProvider) FetchLineups(ctx context.Context, ev events.Event) (events.Lineups, error) {
	if err := p.wait(ctx, "lineups"); err != nil {
		return events.Lineups{}, err
	}
	return p.next.FetchLineups(ctx, ev)
}

func (p *rateLimitedProvider) wait(ctx context.Context, call string) error {
	if p == nil || p.next == nil {
		if p != nil {
			logWithProvider(ctx, p.logger, slog.LevelWarn, "rate-limited", "provider unavailable")
		}
		return ErrProviderUnavailable
	}
	if err := p.limiter.Wait(ctx); err != nil {
		logWithProvider(ctx, p.logger, slog.LevelWarn, "rate-limited", "rate-limited fetch canceled", slog.String("call", call))
		return err
	}
	return nil
}
