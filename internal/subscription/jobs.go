package subscription

import "time"

// Phase names one of the scheduled jobs a subscription can own.
type Phase string

const (
	PhaseScheduled  Phase = "SCHEDULED"
	PhaseInProgress Phase = "INPROGRESS"
	PhaseBeforeGame Phase = "BEFOREGAME"
)

// Phases lists every phase in scheduling order.
var Phases = []Phase{PhaseScheduled, PhaseBeforeGame, PhaseInProgress}

// JobID is the scheduler id for an event's phase. It depends only on its
// inputs so a restart re-creates the same ids.
func JobID(eventID string, phase Phase) string {
	return eventID + ":" + string(phase)
}

// Timing controls job cadence.
type Timing struct {
	PollInterval   time.Duration
	MisfireGrace   time.Duration
	LineupInterval time.Duration
	LineupLead     time.Duration
}

// Default cadence.
const (
	DefaultPollInterval   = 60 * time.Second
	DefaultMisfireGrace   = 60 * time.Second
	DefaultLineupInterval = 5 * time.Minute
	DefaultLineupLead     = 60 * time.Minute
)

func (t Timing) withDefaults() Timing {
	if t.PollInterval <= 0 {
		t.PollInterval = DefaultPollInterval
	}
	if t.MisfireGrace <= 0 {
		t.MisfireGrace = DefaultMisfireGrace
	}
	if t.LineupInterval <= 0 {
		t.LineupInterval = DefaultLineupInterval
	}
	if t.LineupLead <= 0 {
		t.LineupLead = DefaultLineupLead
	}
	return t
}
