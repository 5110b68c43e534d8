package subscription

import "errors"

var (
	// ErrGameNotFound is returned when a query matches no game.
	ErrGameNotFound = errors.New("game not found")
	// ErrTeamNotFound is returned when a team query matches no game.
	ErrTeamNotFound = errors.New("team not found")
	// ErrCompetitionNotFound is returned when a competition query matches no game.
	ErrCompetitionNotFound = errors.New("competition not found")
	// ErrGameNotActive is returned when subscribing to an ended, postponed or cancelled game.
	ErrGameNotActive = errors.New("game is no longer active")
	// ErrNotSubscribed is returned when unsubscribing a client that is not subscribed.
	ErrNotSubscribed = errors.New("client is not subscribed")

	errClosed = errors.New("subscription closed")
)

// IsNotFound reports whether err means the query did not resolve.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrGameNotFound) ||
		errors.Is(err, ErrTeamNotFound) ||
		errors.Is(err, ErrCompetitionNotFound)
}
