package server

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/preston-bernstein/footy-live-service/internal/config"
	"github.com/preston-bernstein/footy-live-service/internal/delivery"
	"github.com/preston-bernstein/footy-live-service/internal/goals"
	"github.com/preston-bernstein/footy-live-service/internal/logging"
	"github.com/preston-bernstein/footy-live-service/internal/metrics"
)

type closer struct {
	name  string
	close func() error
}

func closeAll(closers []closer, logger *slog.Logger) {
	for _, c := range closers {
		if err := c.close(); err != nil {
			logging.Warn(logger, "failed to close "+c.name, "error", err)
		}
	}
}

type goalDeps struct {
	redis       redis.Cmdable
	subscribers goals.Subscribers
	transport   delivery.Transport
	logger      *slog.Logger
	metrics     *metrics.Recorder
}

// Overridden in tests.
var (
	openArchive = func(ctx context.Context, dsn string) (goalArchive, error) {
		return goals.OpenPostgres(ctx, dsn)
	}
	dialPublisher = func(url, exchange string) (goalPublisher, error) {
		return goals.DialAMQP(url, exchange)
	}
)

type goalArchive interface {
	goals.Archive
	Close() error
}

type goalPublisher interface {
	goals.Publisher
	Close() error
}

// buildGoals assembles the goal pipeline. The clip finder, archive and
// publisher are optional; a sink that fails to connect is logged and left
// out rather than failing startup.
func buildGoals(ctx context.Context, cfg config.Config, deps goalDeps) (*goals.Pipeline, []closer) {
	pcfg := goals.Config{
		Queue:       goals.NewQueue(deps.redis, deps.logger),
		Subscribers: deps.subscribers,
		Transport:   deps.transport,
		Expiry:      cfg.Goals.Expiry,
		Logger:      deps.logger,
		Metrics:     deps.metrics,
	}
	var closers []closer

	if cfg.Goals.ClipSearchURL != "" {
		pcfg.Finder = goals.NewHTTPClipFinder(cfg.Goals.ClipSearchURL, nil)
	} else {
		logging.Info(deps.logger, "clip search disabled, goals will expire unresolved")
	}

	if cfg.Goals.DatabaseURL != "" {
		archive, err := openArchive(ctx, cfg.Goals.DatabaseURL)
		if err != nil {
			logging.Error(deps.logger, "goal archive unavailable", err)
		} else {
			pcfg.Archive = archive
			closers = append(closers, closer{name: "goal archive", close: archive.Close})
		}
	}

	if cfg.Goals.AMQPURL != "" {
		pub, err := dialPublisher(cfg.Goals.AMQPURL, cfg.Goals.AMQPExchange)
		if err != nil {
			logging.Error(deps.logger, "goal publisher unavailable", err)
		} else {
			pcfg.Publisher = pub
			closers = append(closers, closer{name: "goal publisher", close: pub.Close})
		}
	}

	return goals.NewPipeline(pcfg), closers
}
