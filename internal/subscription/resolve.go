package subscription

import (
	"sort"
	"strings"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
)

// Query prefixes that pin a search to one field.
const (
	prefixTeam        = "team:"
	prefixCompetition = "league:"
)

// resolve picks the game a query refers to out of the current feed. An exact
// event id wins; otherwise team names, then competition names are matched
// case-insensitively. Among matches, a game in progress beats the earliest
// upcoming one.
func resolve(list []events.Event, query string) (events.Event, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return events.Event{}, ErrGameNotFound
	}

	switch {
	case strings.HasPrefix(q, prefixTeam):
		return pick(filter(list, byTeam(strings.TrimSpace(strings.TrimPrefix(q, prefixTeam)))), ErrTeamNotFound)
	case strings.HasPrefix(q, prefixCompetition):
		return pick(filter(list, byCompetition(strings.TrimSpace(strings.TrimPrefix(q, prefixCompetition)))), ErrCompetitionNotFound)
	}

	for _, ev := range list {
		if strings.EqualFold(ev.ID, q) {
			return pick([]events.Event{ev}, ErrGameNotFound)
		}
	}
	if matches := filter(list, byTeam(q)); len(matches) > 0 {
		return pick(matches, ErrTeamNotFound)
	}
	return pick(filter(list, byCompetition(q)), ErrGameNotFound)
}

func byTeam(q string) func(events.Event) bool {
	return func(ev events.Event) bool {
		return q != "" && (strings.Contains(strings.ToLower(ev.Home.Name), q) ||
			strings.Contains(strings.ToLower(ev.Away.Name), q))
	}
}

func byCompetition(q string) func(events.Event) bool {
	return func(ev events.Event) bool {
		return q != "" && strings.Contains(strings.ToLower(ev.LeagueName), q)
	}
}

func filter(list []events.Event, keep func(events.Event) bool) []events.Event {
	var out []events.Event
	for _, ev := range list {
		if keep(ev) {
			out = append(out, ev)
		}
	}
	return out
}

// pick chooses the best still-active match. notFound is returned when there
// are no matches at all; ErrGameNotActive when every match is over.
func pick(matches []events.Event, notFound error) (events.Event, error) {
	if len(matches) == 0 {
		return events.Event{}, notFound
	}
	active := filter(matches, func(ev events.Event) bool { return ev.State.IsValid() })
	if len(active) == 0 {
		return events.Event{}, ErrGameNotActive
	}
	sort.SliceStable(active, func(i, j int) bool {
		li, lj := active[i].State.InProgress(), active[j].State.InProgress()
		if li != lj {
			return li
		}
		return active[i].StartTime.Before(active[j].StartTime)
	})
	return active[0], nil
}
