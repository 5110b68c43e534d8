package livescore

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/preston-bernstein/footy-live-service/internal/classifier"
	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
	"github.com/preston-bernstein/footy-live-service/internal/timeutil"
)

func mapEvent(g gameResponse) events.Event {
	raw := rawStatus(g)
	home := mapTeam(g.HomeCompetitor)
	away := mapTeam(g.AwayCompetitor)
	return events.Event{
		ID:            events.EventID(home.Name, away.Name),
		ProviderID:    g.ID,
		Home:          home,
		Away:          away,
		LeagueID:      g.CompetitionID,
		LeagueName:    g.CompetitionDisplayName,
		StartTime:     timeutil.ParseFeedTime(g.StartTime),
		RawStatus:     raw,
		State:         classifier.State(raw),
		DisplayStatus: strings.TrimSpace(g.StatusText),
	}
}

func mapSnapshot(g gameResponse, fetchedAt time.Time) events.Snapshot {
	home := mapTeam(g.HomeCompetitor)
	away := mapTeam(g.AwayCompetitor)
	names := memberNames(g.Members)

	subs := make([]events.SubEvent, 0, len(g.Events))
	for _, e := range g.Events {
		sub := events.SubEvent{
			Order:           e.Order,
			GameTime:        e.GameTime,
			GameTimeDisplay: e.GameTimeDisplay,
			Type:            e.EventType.Name,
			SubType:         e.EventType.SubTypeName,
			CompetitorID:    e.CompetitorID,
			PlayerID:        e.PlayerID,
			PlayerName:      names[e.PlayerID],
		}
		switch e.CompetitorID {
		case home.ID:
			sub.TeamName = home.Name
		case away.ID:
			sub.TeamName = away.Name
		}
		subs = append(subs, sub)
	}

	return events.Snapshot{
		EventID:    events.EventID(home.Name, away.Name),
		Home:       home,
		Away:       away,
		RawStatus:  rawStatus(g),
		StatusText: strings.TrimSpace(g.StatusText),
		GameTime:   g.GameTime,
		Score: events.Score{
			Home: scoreValue(g.HomeCompetitor.Score),
			Away: scoreValue(g.AwayCompetitor.Score),
		},
		Events:    subs,
		FetchedAt: fetchedAt,
	}
}

func mapLineups(g gameResponse) events.Lineups {
	names := memberNames(g.Members)
	home := mapTeam(g.HomeCompetitor)
	away := mapTeam(g.AwayCompetitor)
	return events.Lineups{
		EventID: events.EventID(home.Name, away.Name),
		Home:    mapTeamLineup(g.HomeCompetitor.Lineups, names),
		Away:    mapTeamLineup(g.AwayCompetitor.Lineups, names),
	}
}

func mapTeamLineup(l *lineupsResponse, names map[int]string) events.TeamLineup {
	if l == nil {
		return events.TeamLineup{}
	}
	out := events.TeamLineup{
		Formation: l.Formation,
		Members:   make([]events.LineupMember, 0, len(l.Members)),
	}
	for _, m := range l.Members {
		member := events.LineupMember{ID: m.ID, Name: names[m.ID]}
		if m.Position != nil {
			member.Position = m.Position.Name
		}
		if m.YardFormation != nil {
			member.Formation = fmt.Sprintf("%d-%d", m.YardFormation.Line, m.YardFormation.FieldPosition)
		}
		out.Members = append(out.Members, member)
	}
	return out
}

func mapTeam(c competitorResponse) events.Team {
	return events.Team{ID: c.ID, Name: strings.TrimSpace(c.Name)}
}

// rawStatus prefers the long status text; the short one is used when the
// feed leaves the long text empty.
func rawStatus(g gameResponse) string {
	if s := strings.TrimSpace(g.StatusText); s != "" {
		return s
	}
	return strings.TrimSpace(g.ShortStatusText)
}

func memberNames(members []memberResponse) map[int]string {
	names := make(map[int]string, len(members))
	for _, m := range members {
		name := m.Name
		if name == "" {
			name = m.ShortName
		}
		names[m.ID] = name
	}
	return names
}

// scoreValue converts the feed's score, which is -1 before kickoff.
func scoreValue(v float64) int {
	if v < 0 {
		return 0
	}
	return int(math.Round(v))
}
