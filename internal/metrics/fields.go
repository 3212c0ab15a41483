package metrics

// Common metric attribute keys to keep telemetry consistent/searchable.
const (
	AttrMethod    = "method"
	AttrPath      = "path"
	AttrStatus    = "status"
	AttrProvider  = "provider"
	AttrTier      = "tier"
	AttrPartition = "partition"
	AttrOutcome   = "outcome"
	AttrSource    = "source"
)

// Cache lookup and write outcomes.
const (
	OutcomeHit   = "hit"
	OutcomeMiss  = "miss"
	OutcomeOK    = "ok"
	OutcomeError = "error"
)
