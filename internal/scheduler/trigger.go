package scheduler

import (
	"errors"
	"time"
)

// ErrNoFireTime is returned when a trigger would never fire.
var ErrNoFireTime = errors.New("trigger has no future fire time")

// Trigger computes when a job fires.
type Trigger interface {
	// First returns the first fire time relative to now.
	First(now time.Time) (time.Time, bool)
	// Next returns the fire time after prev, skipping any already behind now.
	Next(prev, now time.Time) (time.Time, bool)
	Kind() string
}

// IntervalTrigger fires every Every, starting at Start (or one period from
// now when Start is zero) and never after End when End is set.
type IntervalTrigger struct {
	Every time.Duration
	Start time.Time
	End   time.Time
}

func (t IntervalTrigger) Kind() string { return "interval" }

func (t IntervalTrigger) First(now time.Time) (time.Time, bool) {
	if t.Every <= 0 {
		return time.Time{}, false
	}
	var first time.Time
	switch {
	case t.Start.IsZero():
		first = now.Add(t.Every)
	case !t.Start.Before(now):
		first = t.Start
	default:
		first = t.align(now)
	}
	return first, t.within(first)
}

func (t IntervalTrigger) Next(prev, now time.Time) (time.Time, bool) {
	if t.Every <= 0 {
		return time.Time{}, false
	}
	next := prev.Add(t.Every)
	if !next.After(now) {
		// Coalesce missed periods into the next future fire.
		missed := now.Sub(next)/t.Every + 1
		next = next.Add(missed * t.Every)
	}
	return next, t.within(next)
}

// align returns the first multiple of Every after Start that is not before now.
func (t IntervalTrigger) align(now time.Time) time.Time {
	periods := now.Sub(t.Start) / t.Every
	next := t.Start.Add(periods * t.Every)
	if next.Before(now) {
		next = next.Add(t.Every)
	}
	return next
}

func (t IntervalTrigger) within(at time.Time) bool {
	return t.End.IsZero() || !at.After(t.End)
}

// DateTrigger fires once at At.
type DateTrigger struct {
	At time.Time
}

func (t DateTrigger) Kind() string { return "date" }

func (t DateTrigger) First(_ time.Time) (time.Time, bool) {
	return t.At, !t.At.IsZero()
}

func (t DateTrigger) Next(prev, now time.Time) (time.Time, bool) {
	return time.Time{}, false
}
