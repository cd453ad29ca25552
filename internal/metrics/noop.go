package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncCommandApplied is a no-op.
func (n *NoopRecorder) IncCommandApplied(operation string) {}

// IncCommandFailed is a no-op.
func (n *NoopRecorder) IncCommandFailed(operation, reason string) {}

// ObserveCommandDuration is a no-op.
func (n *NoopRecorder) ObserveCommandDuration(duration time.Duration) {}

// IncProfileCreated is a no-op.
func (n *NoopRecorder) IncProfileCreated() {}

// IncProfileCacheHit is a no-op.
func (n *NoopRecorder) IncProfileCacheHit() {}

// IncProfileCacheMiss is a no-op.
func (n *NoopRecorder) IncProfileCacheMiss() {}

// IncChangeEventPublished is a no-op.
func (n *NoopRecorder) IncChangeEventPublished(status string) {}

// IncChangeEventConsumed is a no-op.
func (n *NoopRecorder) IncChangeEventConsumed(status string) {}

// SetChangeEventBacklog is a no-op.
func (n *NoopRecorder) SetChangeEventBacklog(pending int64) {}
