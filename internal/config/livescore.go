package config

// LivescoreConfig controls how we talk to the live-score feed.
type LivescoreConfig struct {
	BaseURL       string
	APIKey        string
	Timezone      string
	RatePerMinute int
	Burst         int

	// RefreshInterval is how often the list of current games is refreshed.
	RefreshInterval Duration
}

func loadLivescore() LivescoreConfig {
	return LivescoreConfig{
		BaseURL:       envOrDefault(envLivescoreURL, defaultLivescoreURL),
		APIKey:        envOrDefault(envLivescoreKey, ""),
		Timezone:      envOrDefault(envLivescoreTZ, defaultLivescoreTZ),
		RatePerMinute: intEnvOrDefault(envProviderRate, defaultProviderRate),
		Burst:         intEnvOrDefault(envProviderBurst, defaultProviderBurst),

		RefreshInterval: durationEnvOrDefault(envFeedRefresh, defaultFeedRefresh),
	}
}
