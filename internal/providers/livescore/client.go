package livescore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
	"github.com/preston-bernstein/footy-live-service/internal/providers"
)

// Config controls how the client reaches the live-score feed.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	Timezone   string
}

// Client fetches games from the live-score feed and maps them to domain models.
type Client struct {
	baseURL    string
	apiKey     string
	timezone   string
	httpClient httpDoer
	now        func() time.Time
}

// NewClient constructs a live-score client with the provided configuration.
func NewClient(cfg Config) *Client {
	tz := defaultTimezone
	if loc := providers.ResolveTimezone(cfg.Timezone); loc != nil {
		tz = loc.String()
	}
	return &Client{
		baseURL:    normalizeBaseURL(cfg.BaseURL),
		apiKey:     cfg.APIKey,
		timezone:   tz,
		httpClient: resolveHTTPClient(cfg.HTTPClient),
		now:        time.Now,
	}
}

// FetchEvents lists the games currently on the feed.
func (c *Client) FetchEvents(ctx context.Context) ([]events.Event, error) {
	var payload gamesResponse
	if err := c.get(ctx, pathCurrentGames, url.Values{"timezone": {c.timezone}}, &payload); err != nil {
		return nil, err
	}
	out := make([]events.Event, 0, len(payload.Games))
	for _, g := range payload.Games {
		out = append(out, mapEvent(g))
	}
	return out, nil
}

// FetchSnapshot retrieves the detailed state of one game.
func (c *Client) FetchSnapshot(ctx context.Context, ev events.Event) (events.Snapshot, error) {
	var payload gameEnvelope
	if err := c.get(ctx, pathGame, gameQuery(ev), &payload); err != nil {
		return events.Snapshot{}, err
	}
	snap := mapSnapshot(payload.Game, c.now().UTC())
	if snap.EventID == "" || payload.Game.ID == 0 {
		return events.Snapshot{}, fmt.Errorf("%s: empty game payload for %d", providerName, ev.ProviderID)
	}
	return snap, nil
}

// FetchLineups retrieves both team sheets for one game.
func (c *Client) FetchLineups(ctx context.Context, ev events.Event) (events.Lineups, error) {
	var payload gameEnvelope
	if err := c.get(ctx, pathLineups, gameQuery(ev), &payload); err != nil {
		return events.Lineups{}, err
	}
	lineups := mapLineups(payload.Game)
	lineups.EventID = ev.ID
	return lineups, nil
}

func gameQuery(ev events.Event) url.Values {
	return url.Values{"gameId": {strconv.Itoa(ev.ProviderID)}}
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.URL.RawQuery = query.Encode()
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &providers.RateLimitError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), c.now()),
			Remaining:  resp.Header.Get("X-RateLimit-Remaining"),
		}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &providers.StatusError{
			Provider:   providerName,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode %s: %w", providerName, path, err)
	}
	return nil
}
