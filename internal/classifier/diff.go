package classifier

import (
	"strings"

	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
)

// StaleAfterMinutes is how far behind the game clock a sub-event may be
// before it is considered old news.
const StaleAfterMinutes = 5

// Result is the outcome of comparing a fresh snapshot with the cached one.
type Result struct {
	// NewEvents are the sub-events appended since the previous snapshot, in feed order.
	NewEvents []events.SubEvent
	// Halftime is set on the tick the game enters halftime.
	Halftime bool
	// Terminal is set on the tick the game enters a terminal state.
	Terminal bool
	Reason   TerminalReason
	// StatusChanged reports a change of coarse state.
	StatusChanged bool
	// Rebased is set when the feed shortened or rewrote history.
	Rebased bool
	// Accept reports whether the fresh snapshot should replace the cached one.
	Accept bool
}

// Compare diffs fresh against previous, which may be nil when nothing is cached yet.
func Compare(previous *events.Snapshot, fresh events.Snapshot) Result {
	var (
		prevStatus string
		prevEvents []events.SubEvent
	)
	if previous != nil {
		prevStatus = previous.RawStatus
		prevEvents = previous.Events
	}

	freshState, reason := ParseStatus(fresh.RawStatus)
	res := Result{
		Halftime:      HalftimeEdge(prevStatus, fresh.RawStatus),
		StatusChanged: previous == nil || State(prevStatus) != freshState,
		Reason:        reason,
	}
	res.Terminal = reason != ReasonNone && (previous == nil || !IsTerminal(prevStatus))

	switch {
	case !prefixStable(prevEvents, fresh.Events):
		res.Rebased = true
	case len(fresh.Events) > len(prevEvents):
		res.NewEvents = append([]events.SubEvent(nil), fresh.Events[len(prevEvents):]...)
	}

	res.Accept = len(res.NewEvents) > 0 || res.StatusChanged || res.Rebased
	return res
}

// NewSubEvents returns fresh[len(previous):] when fresh strictly extends
// previous, and nothing otherwise.
func NewSubEvents(previous, fresh []events.SubEvent) []events.SubEvent {
	if len(fresh) <= len(previous) || !prefixStable(previous, fresh) {
		return nil
	}
	return fresh[len(previous):]
}

func prefixStable(previous, fresh []events.SubEvent) bool {
	if len(fresh) < len(previous) {
		return false
	}
	for i := range previous {
		if previous[i].Order != fresh[i].Order {
			return false
		}
	}
	return true
}

// IsGoal reports whether the sub-event is a goal.
func IsGoal(e events.SubEvent) bool {
	return strings.EqualFold(strings.TrimSpace(e.Type), "Goal")
}

// Goals filters the goals out of subs.
func Goals(subs []events.SubEvent) []events.SubEvent {
	var out []events.SubEvent
	for _, e := range subs {
		if IsGoal(e) {
			out = append(out, e)
		}
	}
	return out
}

// IsStale reports whether e happened more than StaleAfterMinutes before clock.
// A clock that has not started never marks anything stale.
func IsStale(e events.SubEvent, clock float64) bool {
	if clock <= 0 {
		return false
	}
	return clock-e.GameTime > StaleAfterMinutes
}
