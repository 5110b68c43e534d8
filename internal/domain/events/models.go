package events

import (
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// GameState is the coarse lifecycle state of a live game.
type GameState string

const (
	StateNotStarted GameState = "NOT_STARTED"
	StateInProgress GameState = "IN_PROGRESS"
	StateHalftime   GameState = "HALFTIME"
	StateEnded      GameState = "ENDED"
	StatePostponed  GameState = "POSTPONED"
	StateCancelled  GameState = "CANCELLED"
)

// IsValid reports whether a game in this state can still be subscribed to.
func (s GameState) IsValid() bool {
	switch s {
	case StateEnded, StatePostponed, StateCancelled:
		return false
	default:
		return true
	}
}

// InProgress reports whether the game clock is running or paused for halftime.
func (s GameState) InProgress() bool {
	return s == StateInProgress || s == StateHalftime
}

// Team identifies one side of a game.
type Team struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Event identifies one live game. It is rebuilt on every poll of the feed and
// only referenced by ID from subscriptions.
type Event struct {
	ID            string    `json:"id"`
	ProviderID    int       `json:"providerId"`
	Home          Team      `json:"home"`
	Away          Team      `json:"away"`
	LeagueID      int       `json:"leagueId"`
	LeagueName    string    `json:"leagueName"`
	StartTime     time.Time `json:"startTime"`
	RawStatus     string    `json:"rawStatus"`
	State         GameState `json:"state"`
	DisplayStatus string    `json:"displayStatus"`
	// Started is set once kickoff has been announced to subscribers.
	Started       bool      `json:"started,omitempty"`
}

// EventID derives the stable identifier of a game from its team names. The
// provider's numeric id is deliberately not part of it.
func EventID(home, away string) string {
	key := strings.ToLower(strings.TrimSpace(home)) + "/" + strings.ToLower(strings.TrimSpace(away))
	return fmt.Sprintf("%016x", xxhash.Sum64String(key))
}

// Title renders "Home vs Away".
func (e Event) Title() string {
	return e.Home.Name + " vs " + e.Away.Name
}

// Score captures home and away goals.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// SubEvent is one in-game occurrence (goal, card, substitution).
type SubEvent struct {
	Order           int     `json:"order"`
	GameTime        float64 `json:"gameTime"`
	GameTimeDisplay string  `json:"gameTimeDisplay,omitempty"`
	Type            string  `json:"type"`
	SubType         string  `json:"subType,omitempty"`
	CompetitorID    int     `json:"competitorId"`
	TeamName        string  `json:"teamName,omitempty"`
	PlayerID        int     `json:"playerId,omitempty"`
	PlayerName      string  `json:"playerName,omitempty"`
}

// Snapshot is the detailed state of one game at a successful fetch.
type Snapshot struct {
	EventID    string     `json:"eventId"`
	Home       Team       `json:"home"`
	Away       Team       `json:"away"`
	RawStatus  string     `json:"rawStatus"`
	StatusText string     `json:"statusText,omitempty"`
	GameTime   float64    `json:"gameTime"`
	Score      Score      `json:"score"`
	Events     []SubEvent `json:"events"`
	FetchedAt  time.Time  `json:"fetchedAt"`
}

// LineupMember is one player listed in a team sheet.
type LineupMember struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Position  string `json:"position,omitempty"`
	Formation string `json:"formation,omitempty"`
}

// TeamLineup is one side's team sheet.
type TeamLineup struct {
	Formation string         `json:"formation,omitempty"`
	Members   []LineupMember `json:"members"`
}

// HasFieldPositions reports whether any member has been placed on the pitch.
// A bare squad list does not count.
func (t TeamLineup) HasFieldPositions() bool {
	for _, m := range t.Members {
		if m.Formation != "" {
			return true
		}
	}
	return false
}

// Starters returns the members placed on the pitch.
func (t TeamLineup) Starters() []LineupMember {
	out := make([]LineupMember, 0, 11)
	for _, m := range t.Members {
		if m.Formation != "" {
			out = append(out, m)
		}
	}
	return out
}

// Lineups pairs both team sheets for a game.
type Lineups struct {
	EventID string     `json:"eventId"`
	Home    TeamLineup `json:"home"`
	Away    TeamLineup `json:"away"`
}

// Available reports whether both sides published real field positions.
func (l Lineups) Available() bool {
	return l.Home.HasFieldPositions() && l.Away.HasFieldPositions()
}
