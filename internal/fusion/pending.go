package fusion

import (
	"time"

	"github.com/open-runtime/contextfusion/internal/platform"
)

// pendingKey identifies a fuse-window pending slot: the Hub keeps at most
// one in-flight record per (pid, kind) pair.
type pendingKey struct {
	PID  int32
	Kind platform.ObservationKind
}

// pendingRecord accumulates observations that arrive for the same pending
// key within the fuse window. Merge keeps the union of populated fields and
// the latest arrival so the promoted event reflects everything seen.
type pendingRecord struct {
	first      platform.Observation
	latest     platform.Observation
	arrivedAt  time.Time
	mergeCount int
}

func newPendingRecord(obs platform.Observation) *pendingRecord {
	return &pendingRecord{first: obs, latest: obs, arrivedAt: time.Now(), mergeCount: 1}
}

// merge folds a second observation for the same key into the record. Any
// field the new observation populates overrides the accumulated one; fields
// it leaves zero are left untouched so the union grows rather than resets.
func (r *pendingRecord) merge(obs platform.Observation) {
	r.mergeCount++
	if obs.App != nil {
		r.latest.App = obs.App
	}
	if obs.Windows != nil {
		r.latest.Windows = obs.Windows
	}
	if obs.Focus != nil {
		r.latest.Focus = obs.Focus
	}
	if obs.Breadcrumb != nil {
		r.latest.Breadcrumb = obs.Breadcrumb
	}
	if obs.Clipboard != nil {
		r.latest.Clipboard = obs.Clipboard
	}
	if obs.ScriptResult != "" {
		r.latest.ScriptResult = obs.ScriptResult
	}
	r.latest.Timestamp = obs.Timestamp
}
