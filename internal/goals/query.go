package goals

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/preston-bernstein/footy-live-service/internal/classifier"
	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
)

// DefaultExpiry is how long a goal waits for a clip before it is dropped.
const DefaultExpiry = 15 * time.Minute

// GoalQuery is one detected goal awaiting a clip.
type GoalQuery struct {
	ID         string    `json:"id"`
	EventID    string    `json:"eventId"`
	Order      int       `json:"order"`
	GameTime   float64   `json:"gameTime"`
	Minute     string    `json:"minute"`
	Home       string    `json:"home"`
	Away       string    `json:"away"`
	Scoreline  string    `json:"scoreline"`
	Player     string    `json:"player,omitempty"`
	Team       string    `json:"team,omitempty"`
	DetectedAt time.Time `json:"detectedAt"`
}

// QueryID is the goal id: event id and the goal's order index.
func QueryID(eventID string, order int) string {
	return eventID + ":" + strconv.Itoa(order)
}

// NewQuery describes goal e of snap, detected at now.
func NewQuery(snap events.Snapshot, e events.SubEvent, now time.Time) GoalQuery {
	team := e.TeamName
	if team == "" {
		switch e.CompetitorID {
		case snap.Home.ID:
			team = snap.Home.Name
		case snap.Away.ID:
			team = snap.Away.Name
		}
	}
	return GoalQuery{
		ID:         QueryID(snap.EventID, e.Order),
		EventID:    snap.EventID,
		Order:      e.Order,
		GameTime:   e.GameTime,
		Minute:     classifier.Minute(e),
		Home:       snap.Home.Name,
		Away:       snap.Away.Name,
		Scoreline:  scorelineAfter(snap, e),
		Player:     e.PlayerName,
		Team:       team,
		DetectedAt: now.UTC(),
	}
}

// scorelineAfter is the score right after goal e: the snapshot's score
// without the goals that came later in the same snapshot.
func scorelineAfter(snap events.Snapshot, e events.SubEvent) string {
	home, away := snap.Score.Home, snap.Score.Away
	for _, later := range snap.Events {
		if later.Order <= e.Order || !classifier.IsGoal(later) {
			continue
		}
		switch later.CompetitorID {
		case snap.Home.ID:
			home--
		case snap.Away.ID:
			away--
		}
	}
	return fmt.Sprintf("%d-%d", max(home, 0), max(away, 0))
}

// Expired reports whether q has waited longer than window at now.
func (q GoalQuery) Expired(now time.Time, window time.Duration) bool {
	if window <= 0 {
		window = DefaultExpiry
	}
	return now.Sub(q.DetectedAt) > window
}

// SearchTerms is the free-text query sent to the clip finder.
func (q GoalQuery) SearchTerms() string {
	parts := []string{q.Home, q.Scoreline, q.Away}
	if q.Player != "" {
		parts = append(parts, q.Player)
	}
	parts = append(parts, q.Minute)
	return strings.Join(parts, " ")
}

// Message is the text that accompanies a delivered clip.
func (q GoalQuery) Message() string {
	msg := fmt.Sprintf("%s %s %s %s", q.Minute, q.Home, q.Scoreline, q.Away)
	if q.Player != "" {
		msg += " " + q.Player
	}
	return msg
}
