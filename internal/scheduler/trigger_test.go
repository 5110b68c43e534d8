package scheduler

import (
	"testing"
	"time"
)

func TestIntervalTriggerFirst(t *testing.T) {
	now := time.Date(2024, 5, 4, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		trigger IntervalTrigger
		want    time.Time
		ok      bool
	}{
		{name: "no start", trigger: IntervalTrigger{Every: time.Minute}, want: now.Add(time.Minute), ok: true},
		{name: "future start", trigger: IntervalTrigger{Every: time.Minute, Start: now.Add(time.Hour)}, want: now.Add(time.Hour), ok: true},
		{name: "past start aligns", trigger: IntervalTrigger{Every: time.Minute, Start: now.Add(-90 * time.Second)}, want: now.Add(30 * time.Second), ok: true},
		{name: "past start on boundary", trigger: IntervalTrigger{Every: time.Minute, Start: now.Add(-2 * time.Minute)}, want: now, ok: true},
		{name: "zero period", trigger: IntervalTrigger{}, ok: false},
		{name: "ends before first", trigger: IntervalTrigger{Every: time.Minute, End: now.Add(time.Second)}, want: now.Add(time.Minute), ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.trigger.First(now)
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got %v", tt.ok, ok)
			}
			if tt.ok && !got.Equal(tt.want) {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestIntervalTriggerNextCoalescesMissedPeriods(t *testing.T) {
	start := time.Date(2024, 5, 4, 15, 0, 0, 0, time.UTC)
	trig := IntervalTrigger{Every: time.Minute}

	next, ok := trig.Next(start, start.Add(10*time.Second))
	if !ok || !next.Equal(start.Add(time.Minute)) {
		t.Fatalf("expected next period, got %s ok=%v", next, ok)
	}

	next, ok = trig.Next(start, start.Add(5*time.Minute+time.Second))
	if !ok || !next.Equal(start.Add(6*time.Minute)) {
		t.Fatalf("expected missed periods to coalesce, got %s", next)
	}
}

func TestIntervalTriggerStopsAtEnd(t *testing.T) {
	start := time.Date(2024, 5, 4, 15, 0, 0, 0, time.UTC)
	trig := IntervalTrigger{Every: time.Minute, End: start.Add(90 * time.Second)}

	if _, ok := trig.Next(start, start); !ok {
		t.Fatalf("expected a fire before end")
	}
	if _, ok := trig.Next(start.Add(time.Minute), start.Add(time.Minute)); ok {
		t.Fatalf("expected no fire after end")
	}
}

func TestDateTriggerFiresOnce(t *testing.T) {
	at := time.Date(2024, 5, 4, 15, 0, 0, 0, time.UTC)
	trig := DateTrigger{At: at}

	first, ok := trig.First(at.Add(-time.Hour))
	if !ok || !first.Equal(at) {
		t.Fatalf("expected first fire at %s, got %s", at, first)
	}
	if _, ok := trig.Next(at, at); ok {
		t.Fatalf("date trigger should not fire twice")
	}
	if _, ok := (DateTrigger{}).First(at); ok {
		t.Fatalf("zero date should not fire")
	}
}
