package metrics

// Common metric attribute keys to keep telemetry consistent/searchable.
const (
	AttrMethod   = "method"
	AttrPath     = "path"
	AttrStatus   = "status"
	AttrProvider = "provider"
	AttrKind     = "kind"
	AttrOutcome  = "outcome"
)

// Outcome values for deliveries and goal resolutions.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeFound   = "found"
	OutcomeExpired = "expired"
)
