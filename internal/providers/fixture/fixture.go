package fixture

import (
	"context"
	"fmt"
	"time"

	"github.com/preston-bernstein/footy-live-service/internal/classifier"
	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
)

// Provider simulates a small matchday for local testing and bootstrapping.
// Game progress is derived from the wall clock relative to each kickoff, so
// repeated fetches play a game from kickoff to fulltime.
type Provider struct {
	now    func() time.Time
	anchor time.Time
}

type fixtureGame struct {
	providerID int
	home       events.Team
	away       events.Team
	league     string
	kickoff    time.Duration
	script     []scripted
}

type scripted struct {
	minute   float64
	kind     string
	homeSide bool
	player   string
}

var matchday = []fixtureGame{
	{
		providerID: 1001,
		home:       events.Team{ID: 10, Name: "Arsenal"},
		away:       events.Team{ID: 20, Name: "Chelsea"},
		league:     "Premier League",
		kickoff:    -30 * time.Minute,
		script: []scripted{
			{minute: 12, kind: "Goal", homeSide: true, player: "Bukayo Saka"},
			{minute: 31, kind: "Yellow Card", homeSide: false, player: "Reece James"},
			{minute: 58, kind: "Goal", homeSide: false, player: "Cole Palmer"},
			{minute: 64, kind: "Substitution", homeSide: true, player: "Leandro Trossard"},
			{minute: 81, kind: "Goal", homeSide: true, player: "Martin Odegaard"},
		},
	},
	{
		providerID: 1002,
		home:       events.Team{ID: 30, Name: "Liverpool"},
		away:       events.Team{ID: 40, Name: "Everton"},
		league:     "Premier League",
		kickoff:    2 * time.Hour,
		script: []scripted{
			{minute: 7, kind: "Goal", homeSide: true, player: "Mohamed Salah"},
			{minute: 44, kind: "Red Card", homeSide: false, player: "Idrissa Gueye"},
		},
	},
}

const (
	halfLength     = 45
	breakLength    = 15
	fullTimeMinute = 2*halfLength + breakLength
	lineupLead     = 45 * time.Minute
)

// New creates a fixture provider anchored at the current hour.
func New() *Provider {
	return NewAt(time.Now)
}

// NewAt creates a fixture provider using the given time source.
func NewAt(now func() time.Time) *Provider {
	return &Provider{
		now:    now,
		anchor: now().UTC().Truncate(time.Hour),
	}
}

// FetchEvents returns the simulated matchday.
func (p *Provider) FetchEvents(ctx context.Context) ([]events.Event, error) {
	_ = ctx
	out := make([]events.Event, 0, len(matchday))
	for _, g := range matchday {
		out = append(out, p.event(g))
	}
	return out, nil
}

// FetchSnapshot plays the scripted game up to the current minute.
func (p *Provider) FetchSnapshot(ctx context.Context, ev events.Event) (events.Snapshot, error) {
	_ = ctx
	g, ok := p.lookup(ev)
	if !ok {
		return events.Snapshot{}, fmt.Errorf("fixture: unknown game %d", ev.ProviderID)
	}

	elapsed := p.elapsedMinutes(g)
	status := statusAt(elapsed)
	snap := events.Snapshot{
		EventID:    events.EventID(g.home.Name, g.away.Name),
		Home:       g.home,
		Away:       g.away,
		RawStatus:  status,
		StatusText: status,
		GameTime:   gameClock(elapsed),
		FetchedAt:  p.now().UTC(),
	}

	for i, s := range g.script {
		if elapsed < clockToElapsed(s.minute) {
			break
		}
		team := g.away
		if s.homeSide {
			team = g.home
		}
		snap.Events = append(snap.Events, events.SubEvent{
			Order:           i + 1,
			GameTime:        s.minute,
			GameTimeDisplay: fmt.Sprintf("%.0f'", s.minute),
			Type:            s.kind,
			CompetitorID:    team.ID,
			TeamName:        team.Name,
			PlayerID:        g.providerID*100 + i,
			PlayerName:      s.player,
		})
		if classifier.IsGoal(snap.Events[len(snap.Events)-1]) {
			if s.homeSide {
				snap.Score.Home++
			} else {
				snap.Score.Away++
			}
		}
	}
	return snap, nil
}

// FetchLineups publishes both team sheets shortly before kickoff.
func (p *Provider) FetchLineups(ctx context.Context, ev events.Event) (events.Lineups, error) {
	_ = ctx
	g, ok := p.lookup(ev)
	if !ok {
		return events.Lineups{}, fmt.Errorf("fixture: unknown game %d", ev.ProviderID)
	}
	lineups := events.Lineups{EventID: ev.ID}
	if p.now().Before(p.anchor.Add(g.kickoff - lineupLead)) {
		return lineups, nil
	}
	lineups.Home = sheet(g.home, "4-3-3")
	lineups.Away = sheet(g.away, "4-2-3-1")
	return lineups, nil
}

func (p *Provider) event(g fixtureGame) events.Event {
	status := statusAt(p.elapsedMinutes(g))
	return events.Event{
		ID:            events.EventID(g.home.Name, g.away.Name),
		ProviderID:    g.providerID,
		Home:          g.home,
		Away:          g.away,
		LeagueID:      1,
		LeagueName:    g.league,
		StartTime:     p.anchor.Add(g.kickoff),
		RawStatus:     status,
		State:         classifier.State(status),
		DisplayStatus: status,
	}
}

func (p *Provider) lookup(ev events.Event) (fixtureGame, bool) {
	for _, g := range matchday {
		if g.providerID == ev.ProviderID || events.EventID(g.home.Name, g.away.Name) == ev.ID {
			return g, true
		}
	}
	return fixtureGame{}, false
}

func (p *Provider) elapsedMinutes(g fixtureGame) float64 {
	return p.now().Sub(p.anchor.Add(g.kickoff)).Minutes()
}

func statusAt(elapsed float64) string {
	switch {
	case elapsed < 0:
		return "Scheduled"
	case elapsed < halfLength:
		return "1st Half"
	case elapsed < halfLength+breakLength:
		return "Halftime"
	case elapsed < fullTimeMinute:
		return "2nd Half"
	default:
		return "Ended"
	}
}

// gameClock converts wall minutes since kickoff into the match clock.
func gameClock(elapsed float64) float64 {
	switch {
	case elapsed < 0:
		return -1
	case elapsed < halfLength:
		return elapsed
	case elapsed < halfLength+breakLength:
		return halfLength
	case elapsed < fullTimeMinute:
		return elapsed - breakLength
	default:
		return 2 * halfLength
	}
}

func clockToElapsed(minute float64) float64 {
	if minute <= halfLength {
		return minute
	}
	return minute + breakLength
}

func sheet(team events.Team, formation string) events.TeamLineup {
	out := events.TeamLineup{Formation: formation}
	for i := 1; i <= 11; i++ {
		out.Members = append(out.Members, events.LineupMember{
			ID:        team.ID*100 + i,
			Name:      fmt.Sprintf("%s #%d", team.Name, i),
			Formation: fmt.Sprintf("%d-%d", (i+2)/3, (i-1)%3+1),
		})
	}
	return out
}
