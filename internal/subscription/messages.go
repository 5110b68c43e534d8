package subscription

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/preston-bernstein/footy-live-service/internal/classifier"
	"github.com/preston-bernstein/footy-live-service/internal/delivery"
	"github.com/preston-bernstein/footy-live-service/internal/domain/events"
	"github.com/preston-bernstein/footy-live-service/internal/timeutil"
)

func kickoffMessage(ev events.Event) string {
	return "⚽ " + ev.Title() + " is starting"
}

func halftimeMessage(s events.Snapshot) string {
	return "HT " + classifier.Scoreline(s)
}

func fulltimeMessage(s events.Snapshot) string {
	return "FT " + classifier.Scoreline(s)
}

func calledOffMessage(ev events.Event, state events.GameState) string {
	return ev.Title() + " is " + strings.ToLower(string(state))
}

func cancelMessage(ev events.Event) string {
	return "Unsubscribed from " + ev.Title()
}

func subscribedMessage(ev events.Event, added bool) string {
	if !added {
		return "Already following " + ev.Title()
	}
	if ev.State.InProgress() {
		return "Following " + ev.Title() + ", live now"
	}
	return fmt.Sprintf("Following %s, kickoff %s", ev.Title(), timeutil.FormatKickoff(ev.StartTime))
}

func lineupsMessage(ev events.Event, l events.Lineups) string {
	return lineupLine(ev.Home.Name, l.Home) + "\n" + lineupLine(ev.Away.Name, l.Away)
}

func lineupLine(team string, t events.TeamLineup) string {
	names := make([]string, 0, 11)
	for _, m := range t.Starters() {
		names = append(names, m.Name)
	}
	head := team
	if t.Formation != "" {
		head += " (" + t.Formation + ")"
	}
	return head + ": " + strings.Join(names, ", ")
}

func listingText(ev events.Event) string {
	return fmt.Sprintf("%s (%s)", ev.Title(), timeutil.FormatKickoff(ev.StartTime))
}

// subEventUpdate formats new sub-events for one client: a multi-line message
// for connections and one pixel event per sub-event for webhooks.
func subEventUpdate(c delivery.Client, s events.Snapshot, subs []events.SubEvent) delivery.Update {
	if c.IsWebhook() {
		pixels := make([]delivery.PixelEvent, 0, len(subs))
		for _, e := range subs {
			pixels = append(pixels, delivery.PixelEvent{Text: classifier.Line(s, e), Icon: classifier.Icon(e)})
		}
		return delivery.NewPixels(s.EventID, pixels)
	}
	lines := make([]string, 0, len(subs))
	for _, e := range subs {
		lines = append(lines, classifier.Line(s, e))
	}
	return delivery.NewMessage(s.EventID, strings.Join(lines, "\n"), classifier.Icon(subs[len(subs)-1]))
}

type filler struct {
	message string
	icon    string
}

var notFoundFillers = []filler{
	{"No game found. The pitch is empty.", "empty-pitch"},
	{"Nothing on that fixture list.", "calendar"},
	{"The referee has no record of that game.", "whistle"},
	{"That one must be played in another league.", "question"},
	{"No kickoff found for that search.", "ball"},
}

// fillers rotates through the not-found messages.
type fillers struct {
	next atomic.Uint64
}

func (f *fillers) pick() filler {
	n := f.next.Add(1) - 1
	return notFoundFillers[n%uint64(len(notFoundFillers))]
}
