package config

// GoalsConfig controls the goal-clip pipeline and its optional sinks.
// Empty URLs disable the matching component.
type GoalsConfig struct {
	Expiry        Duration
	PollInterval  Duration
	ClipSearchURL string
	DatabaseURL   string
	AMQPURL       string
	AMQPExchange  string
}

func loadGoals() GoalsConfig {
	return GoalsConfig{
		Expiry:        durationEnvOrDefault(envGoalExpiry, defaultGoalExpiry),
		PollInterval:  durationEnvOrDefault(envGoalInterval, defaultGoalInterval),
		ClipSearchURL: envOrDefault(envClipSearchURL, ""),
		DatabaseURL:   envOrDefault(envGoalsDatabase, ""),
		AMQPURL:       envOrDefault(envAMQPURL, ""),
		AMQPExchange:  envOrDefault(envAMQPExchange, defaultAMQPExchange),
	}
}
