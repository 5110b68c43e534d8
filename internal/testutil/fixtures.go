package testutil

import (
	"time"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
)

// SampleEvent returns a not-yet-started league game between home and away.
func SampleEvent(home, away string, start time.Time) events.Event {
	return events.Event{
		ID:         events.EventID(home, away),
		ProviderID: 1,
		Home:       events.Team{ID: 1, Name: home},
		Away:       events.Team{ID: 2, Name: away},
		LeagueID:   47,
		LeagueName: "Premier League",
		StartTime:  start,
		RawStatus:  "NS",
		State:      events.StateNotStarted,
	}
}

// SampleSnapshot returns an in-play snapshot of ev at the given game clock
// carrying subs in order.
func SampleSnapshot(ev events.Event, clock float64, subs ...events.SubEvent) events.Snapshot {
	snap := events.Snapshot{
		EventID:    ev.ID,
		Home:       ev.Home,
		Away:       ev.Away,
		RawStatus:  "1st Half",
		StatusText: "1st Half",
		GameTime:   clock,
	}
	for i, s := range subs {
		if s.Order == 0 {
			s.Order = i + 1
		}
		snap.Events = append(snap.Events, s)
	}
	return snap
}
