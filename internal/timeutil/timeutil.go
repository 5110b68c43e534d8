package timeutil

import "time"

// KickoffLayout renders kickoff times shown to subscribers.
const KickoffLayout = "Mon 2 Jan 15:04 MST"

// feedLayouts are tried in order; the last has no offset and is read as UTC.
var feedLayouts = []string{time.RFC3339, "2006-01-02T15:04:05"}

// FormatKickoff renders t in UTC using KickoffLayout.
func FormatKickoff(t time.Time) string {
	return t.UTC().Format(KickoffLayout)
}

// ParseFeedTime parses a feed timestamp into UTC. It returns the zero time
// when raw matches no known layout.
func ParseFeedTime(raw string) time.Time {
	for _, layout := range feedLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
