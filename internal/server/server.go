package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/preston-bernstein/footy-live-service/internal/config"
	"github.com/preston-bernstein/footy-live-service/internal/delivery"
	httpserver "github.com/preston-bernstein/footy-live-service/internal/http"
	"github.com/preston-bernstein/footy-live-service/internal/http/handlers"
	"github.com/preston-bernstein/footy-live-service/internal/logging"
	"github.com/preston-bernstein/footy-live-service/internal/metrics"
	"github.com/preston-bernstein/footy-live-service/internal/poller"
	"github.com/preston-bernstein/footy-live-service/internal/providers"
	"github.com/preston-bernstein/footy-live-service/internal/registry"
	"github.com/preston-bernstein/footy-live-service/internal/scheduler"
	"github.com/preston-bernstein/footy-live-service/internal/snapshots"
	"github.com/preston-bernstein/footy-live-service/internal/subscription"
)

var metricsSetup = metrics.Setup

type Server struct {
	cfg           config.Config
	logger        *slog.Logger
	metrics       *metrics.Recorder
	redis         *redis.Client
	hub           *delivery.Hub
	scheduler     *scheduler.Scheduler
	manager       *subscription.Manager
	httpServer    httpServer
	metricsServer httpServer
	poller        Poller
	metricsStop   func(context.Context) error
	closers       []closer
}

// New connects to Redis and wires every component. A Redis that cannot be
// reached is fatal: subscriptions would not survive a restart.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	client, err := openRedis(ctx, cfg.Redis.URL)
	if err != nil {
		return nil, err
	}
	srv, err := newServer(ctx, cfg, logger, client, nil, nil)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	return srv, nil
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis unavailable at %s: %w", opts.Addr, err)
	}
	return client, nil
}

func newServer(ctx context.Context, cfg config.Config, logger *slog.Logger, client *redis.Client, provider providers.LiveScoreProvider, recorder *metrics.Recorder) (*Server, error) {
	if logger == nil {
		logger = logging.NewLogger(logging.Config{})
	}
	recorder, metricsSrv, metricsShutdown := buildMetrics(cfg, logger, recorder)

	if provider == nil {
		provider = newProviderFactory(logger, recorder).build(cfg)
	} else {
		provider = providers.NewRetryingProvider(provider, logger, recorder, normalizeProviderName(cfg.Provider, provider), 0, 0)
	}

	reg := registry.New(client, logger)
	hub := delivery.NewHub(logger)
	transport := delivery.NewDispatcher(hub, delivery.NewWebhookSender(delivery.WebhookConfig{
		Timeout:    cfg.Webhook.Timeout,
		TOTPSecret: cfg.Webhook.TOTPSecret,
	}), recorder)

	sched := scheduler.New(scheduler.Config{
		Workers:      cfg.Scheduler.Workers,
		MisfireGrace: cfg.Scheduler.MisfireGrace,
		Logger:       logger,
		Metrics:      recorder,
	})

	pipeline, closers := buildGoals(ctx, cfg, goalDeps{
		redis:       client,
		subscribers: reg,
		transport:   transport,
		logger:      logger,
		metrics:     recorder,
	})
	if err := pipeline.Register(sched, cfg.Goals.PollInterval); err != nil {
		closeAll(closers, logger)
		return nil, fmt.Errorf("schedule goal pipeline: %w", err)
	}

	feed := poller.New(provider, logger, cfg.Livescore.RefreshInterval)
	manager := subscription.NewManager(subscription.Deps{
		Provider:  provider,
		Events:    feed,
		Registry:  reg,
		Cache:     snapshots.NewCache(snapshots.NewRedisStore(client, cfg.Redis.SnapshotTTL), logger),
		Scheduler: sched,
		Transport: transport,
		Goals:     pipeline,
		Timing: subscription.Timing{
			PollInterval:   cfg.Scheduler.PollInterval,
			MisfireGrace:   cfg.Scheduler.MisfireGrace,
			LineupInterval: cfg.Scheduler.LineupInterval,
			LineupLead:     cfg.Scheduler.LineupLead,
		},
		Logger:  logger,
		Metrics: recorder,
	})

	httpSrv := buildHTTPServer(cfg, manager, hub, logger, recorder, feed)

	return &Server{
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
		redis:         client,
		hub:           hub,
		scheduler:     sched,
		manager:       manager,
		httpServer:    httpSrv,
		metricsServer: metricsSrv,
		poller:        feed,
		metricsStop:   metricsShutdown,
		closers:       closers,
	}, nil
}

// newServerWithDeps is used for testing to inject custom components.
func newServerWithDeps(cfg config.Config, logger *slog.Logger, httpSrv httpServer, plr Poller) *Server {
	return &Server{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpSrv,
		poller:     plr,
	}
}

func buildHTTPServer(cfg config.Config, subs handlers.Subscriptions, hub *delivery.Hub, logger *slog.Logger, recorder *metrics.Recorder, plr Poller) httpServer {
	var statusFn func() poller.Status
	if plr != nil {
		statusFn = plr.Status
	}

	handler := handlers.NewHandler(subs, hub, logger, statusFn)
	router := httpserver.NewRouter(handler, httpserver.RouterConfig{
		Logger:         logger,
		Metrics:        recorder,
		AllowedOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	return netHTTPServer{srv: srv}
}

// Run restores persisted subscriptions, starts the scheduler, poller and HTTP
// server, then waits for context cancellation to shut down gracefully.
func (s *Server) Run(ctx context.Context, stop context.CancelFunc) {
	s.startMetrics()
	s.restore(ctx)
	if s.scheduler != nil {
		s.scheduler.Start(ctx)
	}
	s.startServer(stop)
	s.poller.Start(ctx)

	<-ctx.Done()
	logging.Info(s.logger, "shutdown signal received")

	s.gracefulShutdown()
}

func (s *Server) restore(ctx context.Context) {
	if s.manager == nil {
		return
	}
	n, err := s.manager.Restore(ctx)
	if err != nil {
		logging.Error(s.logger, "subscription restore failed", err)
		return
	}
	logging.Info(s.logger, "subscriptions restored", logging.FieldCount, n)
}

func (s *Server) startServer(stop context.CancelFunc) {
	logging.Info(s.logger, "http server starting", slog.String("addr", s.httpServer.Addr()))
	launchServer("http", s.httpServer, s.logger, func(err error) {
		if stop != nil {
			stop()
		}
	})
}

func (s *Server) startMetrics() {
	if s.metricsServer == nil {
		return
	}
	logging.Info(s.logger, "metrics server starting", slog.String("addr", s.metricsServer.Addr()))
	launchServer("metrics", s.metricsServer, s.logger, nil)
}

func (s *Server) gracefulShutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		logging.Error(s.logger, "graceful shutdown failed", err)
	}

	if err := s.poller.Stop(shutdownCtx); err != nil {
		logging.Error(s.logger, "failed to stop poller", err)
	}

	if s.scheduler != nil {
		if err := s.scheduler.Stop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "scheduler did not drain before timeout", "error", err)
		}
	}

	if s.hub != nil {
		s.hub.Close()
	}

	closeAll(s.closers, s.logger)

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			logging.Warn(s.logger, "redis close failed", "error", err)
		}
	}

	if s.metricsStop != nil {
		if err := s.metricsStop(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics shutdown failed", "error", err)
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(shutdownCtx); err != nil {
			logging.Warn(s.logger, "metrics server shutdown failed", "error", err)
		}
	}

	logging.Info(s.logger, "shutdown complete")
}

func buildMetrics(cfg config.Config, logger *slog.Logger, recorder *metrics.Recorder) (*metrics.Recorder, httpServer, func(context.Context) error) {
	if recorder != nil {
		return recorder, nil, nil
	}

	recCfg := metrics.TelemetryConfig{
		Enabled:      cfg.Metrics.Enabled,
		Port:         cfg.Metrics.Port,
		ServiceName:  cfg.Metrics.ServiceName,
		OtlpEndpoint: cfg.Metrics.OtlpEndpoint,
		OtlpInsecure: cfg.Metrics.OtlpInsecure,
	}

	rec, handler, shutdown, err := metricsSetup(context.Background(), recCfg)
	if err != nil {
		logging.Warn(logger, "metrics setup failed, continuing without telemetry", "err", err)
		return metrics.NewRecorder(), nil, nil
	}

	var metricsSrv httpServer
	if handler != nil && recCfg.Enabled {
		metricsSrv = netHTTPServer{
			srv: &http.Server{
				Addr:    ":" + recCfg.Port,
				Handler: handler,
			},
		}
	}

	return rec, metricsSrv, shutdown
}

func launchServer(name string, srv httpServer, logger *slog.Logger, onError func(error)) {
	go func() {
		logging.Info(logger, "starting "+name+" server", slog.String("addr", srv.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Warn(logger, name+" server failed", "error", err)
			if onError != nil {
				onError(err)
			}
		}
	}()
}

// Handler exposes the HTTP handler (useful for tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler()
}
