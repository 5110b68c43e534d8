package livescore

import "time"

const (
	providerName       = "livescore"
	defaultBaseURL     = "https://webws.365scores.com/web"
	defaultHTTPTimeout = 10 * time.Second
	defaultTimezone    = "UTC"
	maxErrorBody       = 512

	pathCurrentGames = "/games/current"
	pathGame         = "/game"
	pathLineups      = "/game/lineups"
)
