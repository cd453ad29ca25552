package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	CommandsApplied        map[string]uint64
	CommandsFailed         map[string]uint64 // keyed by "operation:reason"
	CommandDurationCount   uint64
	CommandDurationTotalNs int64
	ProfilesCreated        uint64
	ProfileCacheHits       uint64
	ProfileCacheMisses     uint64
	ChangeEventsPublished  uint64
	ChangeEventsDropped    uint64
	ChangeEventsConsumed   map[string]uint64
	ChangeEventBacklog     int64
}

// InMemoryRecorder stores metrics in memory. It backs the /metrics endpoint
// and is handy in tests.
type InMemoryRecorder struct {
	mu              sync.Mutex
	commandsApplied map[string]uint64
	commandsFailed  map[string]uint64
	eventsConsumed  map[string]uint64

	commandDurationCount   uint64
	commandDurationTotalNs int64
	profilesCreated        uint64
	profileCacheHits       uint64
	profileCacheMisses     uint64
	changeEventsPublished  uint64
	changeEventsDropped    uint64
	changeEventBacklog     int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{
		commandsApplied: make(map[string]uint64),
		commandsFailed:  make(map[string]uint64),
		eventsConsumed:  make(map[string]uint64),
	}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	m.mu.Lock()
	applied := make(map[string]uint64, len(m.commandsApplied))
	for k, v := range m.commandsApplied {
		applied[k] = v
	}
	failed := make(map[string]uint64, len(m.commandsFailed))
	for k, v := range m.commandsFailed {
		failed[k] = v
	}
	consumed := make(map[string]uint64, len(m.eventsConsumed))
	for k, v := range m.eventsConsumed {
		consumed[k] = v
	}
	m.mu.Unlock()

	return Snapshot{
		CommandsApplied:        applied,
		CommandsFailed:         failed,
		CommandDurationCount:   atomic.LoadUint64(&m.commandDurationCount),
		CommandDurationTotalNs: atomic.LoadInt64(&m.commandDurationTotalNs),
		ProfilesCreated:        atomic.LoadUint64(&m.profilesCreated),
		ProfileCacheHits:       atomic.LoadUint64(&m.profileCacheHits),
		ProfileCacheMisses:     atomic.LoadUint64(&m.profileCacheMisses),
		ChangeEventsPublished:  atomic.LoadUint64(&m.changeEventsPublished),
		ChangeEventsDropped:    atomic.LoadUint64(&m.changeEventsDropped),
		ChangeEventsConsumed:   consumed,
		ChangeEventBacklog:     atomic.LoadInt64(&m.changeEventBacklog),
	}
}

// IncCommandApplied increments the applied counter for an operation.
func (m *InMemoryRecorder) IncCommandApplied(operation string) {
	m.mu.Lock()
	m.commandsApplied[operation]++
	m.mu.Unlock()
}

// IncCommandFailed increments the failure counter for an operation and reason.
func (m *InMemoryRecorder) IncCommandFailed(operation, reason string) {
	m.mu.Lock()
	m.commandsFailed[operation+":"+reason]++
	m.mu.Unlock()
}

// ObserveCommandDuration records command duration.
func (m *InMemoryRecorder) ObserveCommandDuration(duration time.Duration) {
	atomic.AddUint64(&m.commandDurationCount, 1)
	atomic.AddInt64(&m.commandDurationTotalNs, duration.Nanoseconds())
}

// IncProfileCreated increments profile created counter.
func (m *InMemoryRecorder) IncProfileCreated() {
	atomic.AddUint64(&m.profilesCreated, 1)
}

// IncProfileCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncProfileCacheHit() {
	atomic.AddUint64(&m.profileCacheHits, 1)
}

// IncProfileCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncProfileCacheMiss() {
	atomic.AddUint64(&m.profileCacheMisses, 1)
}

// IncChangeEventPublished counts published or dropped change events.
func (m *InMemoryRecorder) IncChangeEventPublished(status string) {
	if status == "success" {
		atomic.AddUint64(&m.changeEventsPublished, 1)
		return
	}
	atomic.AddUint64(&m.changeEventsDropped, 1)
}

// IncChangeEventConsumed counts change events handled by the activity consumer.
func (m *InMemoryRecorder) IncChangeEventConsumed(status string) {
	m.mu.Lock()
	m.eventsConsumed[status]++
	m.mu.Unlock()
}

// SetChangeEventBacklog records pending plus undelivered stream entries.
func (m *InMemoryRecorder) SetChangeEventBacklog(pending int64) {
	atomic.StoreInt64(&m.changeEventBacklog, pending)
}
