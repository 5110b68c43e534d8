package testutil

import (
	"context"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
	"github.com/preston-bernstein/footy-live-service/internal/providers"
)

// GoodProvider returns the provided events with no error.
type GoodProvider struct {
	Events []events.Event
}

func (p GoodProvider) FetchEvents(ctx context.Context) ([]events.Event, error) {
	_ = ctx
	return p.Events, nil
}

func (p GoodProvider) FetchSnapshot(ctx context.Context, ev events.Event) (events.Snapshot, error) {
	_ = ctx
	return events.Snapshot{EventID: ev.ID, Home: ev.Home, Away: ev.Away, RawStatus: ev.RawStatus}, nil
}

func (p GoodProvider) FetchLineups(ctx context.Context, ev events.Event) (events.Lineups, error) {
	_ = ctx
	return events.Lineups{EventID: ev.ID}, nil
}

// UnavailableProvider fails every call with ErrProviderUnavailable.
type UnavailableProvider struct{}

func (UnavailableProvider) FetchEvents(ctx context.Context) ([]events.Event, error) {
	return nil, providers.ErrProviderUnavailable
}

func (UnavailableProvider) FetchSnapshot(ctx context.Context, ev events.Event) (events.Snapshot, error) {
	return events.Snapshot{}, providers.ErrProviderUnavailable
}

func (UnavailableProvider) FetchLineups(ctx context.Context, ev events.Event) (events.Lineups, error) {
	return events.Lineups{}, providers.ErrProviderUnavailable
}
