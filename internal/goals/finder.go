package goals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Clip is a located goal video.
type Clip struct {
	URL      string    `json:"url"`
	Title    string    `json:"title"`
	PostedAt time.Time `json:"postedAt"`
}

// ClipFinder looks for a clip matching a goal.
type ClipFinder interface {
	Find(ctx context.Context, goal GoalQuery) (Clip, bool, error)
}

type httpDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// clipWindow is how long before detection a clip may have been posted and
// still match; feeds often lag the actual goal.
const clipWindow = 2 * time.Minute

// HTTPClipFinder queries a search endpoint: GET {base}?q=<terms>, answered
// with {"results":[{"url","title","postedAt"}]}.
type HTTPClipFinder struct {
	baseURL string
	client  httpDoer
}

// NewHTTPClipFinder builds a finder for baseURL. A nil client uses a 10s timeout.
func NewHTTPClipFinder(baseURL string, client httpDoer) *HTTPClipFinder {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPClipFinder{baseURL: strings.TrimSpace(baseURL), client: client}
}

type searchResponse struct {
	Results []Clip `json:"results"`
}

// Find returns the first clip posted no earlier than shortly before the goal.
func (f *HTTPClipFinder) Find(ctx context.Context, goal GoalQuery) (Clip, bool, error) {
	endpoint, err := url.Parse(f.baseURL)
	if err != nil {
		return Clip{}, false, fmt.Errorf("parsing clip search url: %w", err)
	}
	query := endpoint.Query()
	query.Set("q", goal.SearchTerms())
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return Clip{}, false, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return Clip{}, false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Clip{}, false, fmt.Errorf("clip search returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Clip{}, false, fmt.Errorf("decoding clip search: %w", err)
	}
	earliest := goal.DetectedAt.Add(-clipWindow)
	for _, clip := range payload.Results {
		if clip.URL == "" {
			continue
		}
		if !clip.PostedAt.IsZero() && clip.PostedAt.Before(earliest) {
			continue
		}
		return clip, true, nil
	}
	return Clip{}, false, nil
}
