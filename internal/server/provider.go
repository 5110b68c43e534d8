package server

import (
	"log/slog"

	"github.com/preston-bernstein/footy-live-service/internal/config"
	"github.com/preston-bernstein/footy-live-service/internal/providers"
	"github.com/preston-bernstein/footy-live-service/internal/providers/fixture"
	"github.com/preston-bernstein/footy-live-service/internal/providers/livescore"
)

func selectProvider(cfg config.Config, logger *slog.Logger) providers.LiveScoreProvider {
	switch cfg.Provider {
	case "fixture", "":
		return fixture.New()
	case "livescore":
		return livescore.NewClient(livescore.Config{
			BaseURL:  cfg.Livescore.BaseURL,
			APIKey:   cfg.Livescore.APIKey,
			Timezone: cfg.Livescore.Timezone,
		})
	default:
		if logger != nil {
			logger.Warn("unknown provider, falling back to fixture", slog.String("provider", cfg.Provider))
		}
		return fixture.New()
	}
}
