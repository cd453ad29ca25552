// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Failure reasons reported with IncCommandFailed.
const (
	ReasonInvalidArgument = "invalid_argument"
	ReasonTypeMismatch    = "type_mismatch"
	ReasonStore           = "store"
)

// Consumed event statuses reported with IncChangeEventConsumed.
const (
	ConsumedSuccess      = "success"
	ConsumedFailed       = "failed"
	ConsumedDeadLettered = "dead_lettered"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Command metrics
	IncCommandApplied(operation string)
	IncCommandFailed(operation, reason string)
	ObserveCommandDuration(duration time.Duration)
	IncProfileCreated()

	// Read path metrics
	IncProfileCacheHit()
	IncProfileCacheMiss()

	// Change stream metrics
	IncChangeEventPublished(status string) // status: "success" or "dropped"

	// Activity consumer metrics
	IncChangeEventConsumed(status string) // status: "success", "failed" or "dead_lettered"
	SetChangeEventBacklog(pending int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
