package config

import "strings"

// Config holds runtime configuration for the server.
type Config struct {
	Port        string
	CORSOrigins []string
	Provider    string
	Livescore   LivescoreConfig
	Scheduler   SchedulerConfig
	Redis       RedisConfig
	Webhook     WebhookConfig
	Goals       GoalsConfig
	Metrics     MetricsConfig
	Logging     LoggingConfig
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// RedisConfig points at the durable subscriber store.
type RedisConfig struct {
	URL         string
	SnapshotTTL Duration
}

// WebhookConfig controls outbound webhook delivery.
type WebhookConfig struct {
	Timeout    Duration
	TOTPSecret string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	return Config{
		Port:        envOrDefault(envPort, defaultPort),
		CORSOrigins: listEnvOrDefault(envCORSOrigins, []string{"*"}),
		Provider:    strings.ToLower(envOrDefault(envProvider, defaultProvider)),
		Livescore:   loadLivescore(),
		Scheduler:   loadScheduler(),
		Redis: RedisConfig{
			URL:         envOrDefault(envRedisURL, defaultRedisURL),
			SnapshotTTL: durationEnvOrDefault(envSnapshotTTL, defaultSnapshotTTL),
		},
		Webhook: WebhookConfig{
			Timeout:    durationEnvOrDefault(envWebhookTimeout, defaultWebhookTimeout),
			TOTPSecret: envOrDefault(envWebhookSecret, ""),
		},
		Goals:       loadGoals(),
		Metrics:     loadMetrics(),
		Logging: LoggingConfig{
			Level:  envOrDefault(envLogLevel, defaultLogLevel),
			Format: envOrDefault(envLogFormat, defaultLogFormat),
		},
	}
}
