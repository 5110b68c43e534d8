package providers

import (
	"context"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
)

// LiveScoreProvider defines how upstream live-score data is fetched and normalized.
type LiveScoreProvider interface {
	// FetchEvents lists the games the feed currently knows about.
	FetchEvents(ctx context.Context) ([]events.Event, error)
	// FetchSnapshot returns the detailed state of one game.
	FetchSnapshot(ctx context.Context, ev events.Event) (events.Snapshot, error)
	// FetchLineups returns both team sheets for one game.
	FetchLineups(ctx context.Context, ev events.Event) (events.Lineups, error)
}
