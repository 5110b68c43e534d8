package server

import (
	"log/slog"

	"github.com/preston-bernstein/footy-live-service/internal/config"
	"github.com/preston-bernstein/footy-live-service/internal/metrics"
	"github.com/preston-bernstein/footy-live-service/internal/providers"
)

// providerFactory assembles the provider with shared wrappers (rate limit + retry).
type providerFactory struct {
	logger  *slog.Logger
	metrics *metrics.Recorder
}

func newProviderFactory(logger *slog.Logger, metrics *metrics.Recorder) providerFactory {
	return providerFactory{logger: logger, metrics: metrics}
}

func (f providerFactory) build(cfg config.Config) providers.LiveScoreProvider {
	base := selectProvider(cfg, f.logger)
	// One token bucket for every subscription job keeps the feed quota.
	limited := providers.NewRateLimitedProvider(base, cfg.Livescore.RatePerMinute, cfg.Livescore.Burst, f.logger)
	return providers.NewRetryingProvider(limited, f.logger, f.metrics, normalizeProviderName(cfg.Provider, base), 0, 0)
}
