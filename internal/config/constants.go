package config

import "time"

const (
	envPort           = "PORT"
	envCORSOrigins    = "CORS_ALLOWED_ORIGINS"
	envProvider       = "PROVIDER"
	envLivescoreURL   = "LIVESCORE_BASE_URL"
	envLivescoreKey   = "LIVESCORE_API_KEY"
	envLivescoreTZ    = "LIVESCORE_TIMEZONE"
	envProviderRate   = "PROVIDER_RATE_PER_MINUTE"
	envProviderBurst  = "PROVIDER_BURST"
	envFeedRefresh    = "FEED_REFRESH_INTERVAL"
	envPollInterval   = "POLL_INTERVAL"
	envMisfireGrace   = "MISFIRE_GRACE"
	envLineupInterval = "LINEUP_POLL_INTERVAL"
	envLineupLead     = "LINEUP_LEAD"
	envWorkers        = "SCHEDULER_WORKERS"
	envRedisURL       = "REDIS_URL"
	envSnapshotTTL    = "SNAPSHOT_TTL"
	envWebhookTimeout = "WEBHOOK_TIMEOUT"
	envWebhookSecret  = "WEBHOOK_TOTP_SECRET"
	envGoalExpiry     = "GOAL_EXPIRY"
	envGoalInterval   = "GOAL_POLL_INTERVAL"
	envClipSearchURL  = "CLIP_SEARCH_URL"
	envGoalsDatabase  = "GOALS_DATABASE_URL"
	envAMQPURL        = "AMQP_URL"
	envAMQPExchange   = "AMQP_GOALS_EXCHANGE"
	envMetricsPort    = "METRICS_PORT"
	envMetricsOn      = "METRICS_ENABLED"
	envOtelEndpoint   = "OTEL_EXPORTER_OTLP_ENDPOINT"
	envOtelService    = "OTEL_SERVICE_NAME"
	envOtelInsecure   = "OTEL_EXPORTER_OTLP_INSECURE"
	envLogLevel       = "LOG_LEVEL"
	envLogFormat      = "LOG_FORMAT"

	defaultPort          = "4000"
	defaultProvider      = "fixture"
	defaultLivescoreURL  = "https://webws.365scores.com/web"
	defaultLivescoreTZ   = "UTC"
	defaultProviderRate  = 120
	defaultProviderBurst = 10
	defaultFeedRefresh   = 2 * Duration(time.Minute)
	// In-progress games are polled once a minute and may fire up to a minute late.
	defaultPollInterval   = Duration(time.Minute)
	defaultMisfireGrace   = Duration(time.Minute)
	defaultLineupInterval = 5 * Duration(time.Minute)
	defaultLineupLead     = 60 * Duration(time.Minute)
	defaultWorkers        = 16
	defaultRedisURL       = "redis://localhost:6379/0"
	defaultSnapshotTTL    = 6 * Duration(time.Hour)
	defaultWebhookTimeout = 10 * Duration(time.Second)
	// Unresolved goals are dropped after this window.
	defaultGoalExpiry   = 15 * Duration(time.Minute)
	defaultGoalInterval = 30 * Duration(time.Second)
	defaultAMQPExchange = "footy.goals"
	defaultMetricsPort  = "9090"
	defaultServiceName  = "footy-live-service"
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
)
