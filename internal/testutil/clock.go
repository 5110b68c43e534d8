package testutil

import "time"

// Kickoff is a Saturday 3pm UTC kickoff used as a fixed reference time.
var Kickoff = time.Date(2024, 5, 4, 15, 0, 0, 0, time.UTC)

// NowAt returns a clock function fixed at the provided time.
func NowAt(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// MustParseRFC3339 parses an RFC3339 timestamp or panics; intended for tests.
func MustParseRFC3339(v string) time.Time {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		panic(err)
	}
	return t
}
