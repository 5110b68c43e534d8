package classifier

import (
	"fmt"
	"math"
	"strings"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
)

// Icons used for sub-event lines and pixel events.
const (
	IconGoal         = "goal"
	IconYellowCard   = "yellow-card"
	IconRedCard      = "red-card"
	IconSubstitution = "substitution"
	IconWhistle      = "whistle"
	IconEvent        = "event"
)

// Icon picks the display icon for a sub-event type.
func Icon(e events.SubEvent) string {
	kind := strings.ToLower(e.Type + " " + e.SubType)
	switch {
	case IsGoal(e):
		return IconGoal
	case strings.Contains(kind, "red"):
		return IconRedCard
	case strings.Contains(kind, "yellow"):
		return IconYellowCard
	case strings.Contains(kind, "sub"):
		return IconSubstitution
	default:
		return IconEvent
	}
}

// Minute renders the sub-event clock as shown to users.
func Minute(e events.SubEvent) string {
	if e.GameTimeDisplay != "" {
		return strings.TrimSuffix(e.GameTimeDisplay, "'") + "'"
	}
	return fmt.Sprintf("%d'", int(math.Ceil(e.GameTime)))
}

// Scoreline renders "Home 1-0 Away".
func Scoreline(s events.Snapshot) string {
	return fmt.Sprintf("%s %d-%d %s", s.Home.Name, s.Score.Home, s.Score.Away, s.Away.Name)
}

// Line renders one human-readable line for a sub-event.
func Line(s events.Snapshot, e events.SubEvent) string {
	parts := []string{Minute(e), e.Type}
	if e.SubType != "" && !strings.EqualFold(e.SubType, e.Type) {
		parts = append(parts, "("+e.SubType+")")
	}
	if e.PlayerName != "" {
		parts = append(parts, e.PlayerName)
	}
	if team := teamName(s, e); team != "" {
		parts = append(parts, "["+team+"]")
	}
	return strings.Join(parts, " ") + " | " + Scoreline(s)
}

func teamName(s events.Snapshot, e events.SubEvent) string {
	if e.TeamName != "" {
		return e.TeamName
	}
	if e.CompetitorID == 0 {
		return ""
	}
	switch e.CompetitorID {
	case s.Home.ID:
		return s.Home.Name
	case s.Away.ID:
		return s.Away.Name
	}
	return ""
}
