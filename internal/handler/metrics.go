package handler

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/spotlight/userprofile/internal/metrics"
)

// MetricsHandler exposes in-memory metrics.
type MetricsHandler struct {
	snapshotter metrics.Snapshotter
}

// NewMetricsHandler creates a new MetricsHandler.
func NewMetricsHandler(snapshotter metrics.Snapshotter) *MetricsHandler {
	return &MetricsHandler{snapshotter: snapshotter}
}

// Metrics returns metrics in Prometheus exposition format.
func (h *MetricsHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	if h.snapshotter == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	snap := h.snapshotter.Snapshot()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	for _, op := range sortedKeys(snap.CommandsApplied) {
		writeMetric(w, "userprofile_commands_applied_total{operation=%q} %d\n", op, snap.CommandsApplied[op])
	}
	for _, key := range sortedKeys(snap.CommandsFailed) {
		op, reason, _ := strings.Cut(key, ":")
		writeMetric(w, "userprofile_commands_failed_total{operation=%q,reason=%q} %d\n", op, reason, snap.CommandsFailed[key])
	}
	writeMetric(w, "userprofile_command_duration_seconds_count %d\n", snap.CommandDurationCount)
	writeMetric(w, "userprofile_command_duration_seconds_sum %.6f\n", float64(snap.CommandDurationTotalNs)/1e9)

	writeMetric(w, "userprofile_profiles_created_total %d\n", snap.ProfilesCreated)
	writeMetric(w, "userprofile_profile_cache_hits_total %d\n", snap.ProfileCacheHits)
	writeMetric(w, "userprofile_profile_cache_misses_total %d\n", snap.ProfileCacheMisses)

	writeMetric(w, "userprofile_change_events_published_total{status=\"success\"} %d\n", snap.ChangeEventsPublished)
	writeMetric(w, "userprofile_change_events_published_total{status=\"dropped\"} %d\n", snap.ChangeEventsDropped)

	for _, status := range sortedKeys(snap.ChangeEventsConsumed) {
		writeMetric(w, "userprofile_change_events_consumed_total{status=%q} %d\n", status, snap.ChangeEventsConsumed[status])
	}
	writeMetric(w, "userprofile_change_event_backlog %d\n", snap.ChangeEventBacklog)
}

func writeMetric(w http.ResponseWriter, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func sortedKeys(m map[string]uint64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
