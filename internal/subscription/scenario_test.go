package subscription

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/preston-bernstein/footy-live-service/internal/delivery"
)

func hasMessage(updates []delivery.Update, contains string) bool {
	for _, u := range updates {
		if strings.Contains(u.Message, contains) {
			return true
		}
	}
	return false
}

// A game followed from before kickoff to the final whistle.
func TestMatchdayScenario(t *testing.T) {
	ev := upcomingEvent(60 * time.Second)
	h := newHarness(t, ev)
	ctx := context.Background()
	h.sched.Start(ctx)

	const c1, c2 = "conn-1", "https://h/ook"
	mustSubscribe(t, h, c1, "arsenal")
	mustSubscribe(t, h, c2, "arsenal")

	start, ok := h.sched.Job(JobID(ev.ID, PhaseScheduled))
	if !ok || start.Kind != "date" || !start.NextRun.Equal(epoch.Add(60*time.Second)) {
		t.Fatalf("expected date job at kickoff, got %+v ok=%v", start, ok)
	}
	if h.sched.HasJob(JobID(ev.ID, PhaseInProgress)) {
		t.Fatalf("no polling job expected before kickoff")
	}

	// Kickoff.
	if err := h.clock.WaitAdvance(60*time.Second, shortWait, 1); err != nil {
		t.Fatalf("advance to kickoff: %v", err)
	}
	waitFor(t, "kickoff announcement", func() bool {
		return hasMessage(h.transport.Updates(c1), "is starting") && hasMessage(h.transport.Updates(c2), "is starting")
	})
	waitFor(t, "polling job", func() bool { return h.sched.HasJob(JobID(ev.ID, PhaseInProgress)) })
	waitFor(t, "start job retirement", func() bool { return !h.sched.HasJob(JobID(ev.ID, PhaseScheduled)) })

	// A goal.
	h.provider.SetSnapshot(snapshotFor(ev, "1st Half", 2, goalAt(1, 1.5, 1, "Saka")))
	if err := h.clock.WaitAdvance(60*time.Second, shortWait, 1); err != nil {
		t.Fatalf("advance to first tick: %v", err)
	}
	waitFor(t, "goal delivery", func() bool {
		return hasMessage(h.transport.Updates(c1), "Saka") && len(h.transport.Updates(c2)) == 2
	})
	if u := h.transport.Updates(c2)[1]; u.Method != delivery.MethodPixels || u.Pixels[0].Icon != "goal" {
		t.Fatalf("expected goal pixels for webhook, got %+v", u)
	}
	waitFor(t, "goal query", func() bool {
		n, _ := h.queue.Len(ctx)
		return n == 1
	})

	// Final whistle.
	h.provider.SetSnapshot(snapshotFor(ev, "Ended", 93, goalAt(1, 1.5, 1, "Saka")))
	if err := h.clock.WaitAdvance(60*time.Second, shortWait, 1); err != nil {
		t.Fatalf("advance to final tick: %v", err)
	}
	waitFor(t, "subscription shutdown", func() bool {
		sub, ok := h.manager.Get(ev.ID)
		return !ok || sub.Closed()
	})
	for _, id := range []string{c1, c2} {
		if !hasMessage(h.transport.Updates(id), "FT Arsenal 1-0 Chelsea") {
			t.Fatalf("expected fulltime message for %s", id)
		}
	}
	if n, _ := h.registry.Count(ctx, ev.ID); n != 0 {
		t.Fatalf("expected subscribers removed, got %d", n)
	}
	waitFor(t, "job cancellation", func() bool { return !h.sched.HasJob(JobID(ev.ID, PhaseInProgress)) })
}
