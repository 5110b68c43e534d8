package registry

// ActiveKey indexes every event id with stored subscribers.
const ActiveKey = "subscriptions.active"

// ClientsKey holds the set of encoded clients for an event.
func ClientsKey(eventID string) string {
	return "subscription." + eventID + ".clients"
}

// EventKey holds the encoded event record for an event.
func EventKey(eventID string) string {
	return "subscription." + eventID + ".event"
}
