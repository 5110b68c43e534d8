package classifier

import (
	"strings"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
)

// TerminalReason names why a game can no longer resume.
type TerminalReason string

const (
	ReasonNone           TerminalReason = ""
	ReasonEnded          TerminalReason = "ended"
	ReasonJustEnded      TerminalReason = "just-ended"
	ReasonSuspended      TerminalReason = "suspended"
	ReasonAbandoned      TerminalReason = "abandoned"
	ReasonAfterExtraTime TerminalReason = "after-extra-time"
	ReasonAfterPenalties TerminalReason = "after-penalties"
	ReasonFinal          TerminalReason = "final"
)

const halftimeShort = "ht"

var terminalStatuses = map[string]TerminalReason{
	"ended":           ReasonEnded,
	"ft":              ReasonEnded,
	"full time":       ReasonEnded,
	"fulltime":        ReasonEnded,
	"just ended":      ReasonJustEnded,
	"suspended":       ReasonSuspended,
	"susp":            ReasonSuspended,
	"abandoned":       ReasonAbandoned,
	"abd":             ReasonAbandoned,
	"after et":        ReasonAfterExtraTime,
	"aet":             ReasonAfterExtraTime,
	"after penalties": ReasonAfterPenalties,
	"pen":             ReasonAfterPenalties,
	"ap":              ReasonAfterPenalties,
	"final":           ReasonFinal,
}

var otherStatuses = map[string]events.GameState{
	"":            events.StateNotStarted,
	"ns":          events.StateNotStarted,
	"scheduled":   events.StateNotStarted,
	"not started": events.StateNotStarted,
	halftimeShort: events.StateHalftime,
	"halftime":    events.StateHalftime,
	"half time":   events.StateHalftime,
	"half-time":   events.StateHalftime,
	"postponed":   events.StatePostponed,
	"pst":         events.StatePostponed,
	"cancelled":   events.StateCancelled,
	"canceled":    events.StateCancelled,
	"canc":        events.StateCancelled,
}

func normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// ParseStatus maps a provider status string onto the game state machine.
// Unrecognised strings are treated as a running game so polling continues.
func ParseStatus(raw string) (events.GameState, TerminalReason) {
	key := normalize(raw)
	if reason, ok := terminalStatuses[key]; ok {
		return events.StateEnded, reason
	}
	if state, ok := otherStatuses[key]; ok {
		return state, ReasonNone
	}
	return events.StateInProgress, ReasonNone
}

// State returns only the game state for raw.
func State(raw string) events.GameState {
	state, _ := ParseStatus(raw)
	return state
}

// IsTerminal reports whether raw maps to a state the game cannot resume from.
func IsTerminal(raw string) bool {
	_, reason := ParseStatus(raw)
	return reason != ReasonNone
}

// IsHalftime reports whether raw is the halftime status.
func IsHalftime(raw string) bool {
	return State(raw) == events.StateHalftime
}

// HalftimeEdge fires only on the tick where the status first becomes halftime.
func HalftimeEdge(previous, fresh string) bool {
	return !IsHalftime(previous) && IsHalftime(fresh)
}
