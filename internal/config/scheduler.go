package config

// SchedulerConfig controls job cadence and concurrency.
type SchedulerConfig struct {
	PollInterval   Duration
	MisfireGrace   Duration
	LineupInterval Duration
	LineupLead     Duration
	Workers        int
}

func loadScheduler() SchedulerConfig {
	return SchedulerConfig{
		PollInterval:   durationEnvOrDefault(envPollInterval, defaultPollInterval),
		MisfireGrace:   durationEnvOrDefault(envMisfireGrace, defaultMisfireGrace),
		LineupInterval: durationEnvOrDefault(envLineupInterval, defaultLineupInterval),
		LineupLead:     durationEnvOrDefault(envLineupLead, defaultLineupLead),
		Workers:        intEnvOrDefault(envWorkers, defaultWorkers),
	}
}
