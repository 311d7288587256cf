package fusion

import (
	"context"
	"strconv"
	"time"

	"github.com/open-runtime/contextfusion/internal/extractor"
	"github.com/open-runtime/contextfusion/internal/platform"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

type stateKind int

const (
	stateIdle stateKind = iota
	stateBound
	stateRebinding
)

// fsmState is the Idle / Bound(pid) / Rebinding(from->to) state described in
// spec §4.C.2. Only Run's goroutine ever reads or writes it.
type fsmState struct {
	kind stateKind
	pid  int32 // valid when kind == stateBound
	from int32 // valid when kind == stateRebinding
	to   int32 // valid when kind == stateRebinding
}

// onActivate handles a workspace activation/launch observation, driving the
// Idle->Bound and Bound->Rebinding->Bound transitions.
func (h *Hub) onActivate(ctx context.Context, obs platform.Observation) {
	target := obs.PID
	app := appInfoFromObservation(obs)

	switch h.state.kind {
	case stateIdle:
		h.bind(ctx, nil, app, obs)

	case stateBound:
		if h.state.pid == target {
			return
		}
		from := h.state.pid
		h.state = fsmState{kind: stateRebinding, from: from, to: target}
		h.store.EndURL(from, obs.Timestamp)
		fromSnap, ok := h.store.LastSnapshot(from)
		var fromPtr *contextmodel.ContextSnapshot
		if ok {
			fromPtr = &fromSnap
		}
		h.bind(ctx, fromPtr, app, obs)

	case stateRebinding:
		from := h.state.to
		h.state = fsmState{kind: stateRebinding, from: from, to: target}
		fromSnap, ok := h.store.LastSnapshot(from)
		var fromPtr *contextmodel.ContextSnapshot
		if ok {
			fromPtr = &fromSnap
		}
		h.bind(ctx, fromPtr, app, obs)
	}
}

// bind performs the actual extraction and publication shared by Idle->Bound
// and Bound->Rebinding->Bound, landing the Hub back in Bound(app.PID).
func (h *Hub) bind(ctx context.Context, fromSnap *contextmodel.ContextSnapshot, app contextmodel.AppInfo, obs platform.Observation) {
	h.store.Activate(app)

	seed := extractor.ExtractSeed{
		App:       app,
		Windows:   h.windows,
		Input:     h.input,
		StartedAt: time.Now(),
	}
	snap := h.extractor.Extract(ctx, seed)
	h.store.RecordSnapshot(app.PID, snap)

	if snap.Browser != nil && snap.Browser.URL != "" {
		h.store.BeginURL(app.PID, snap.Browser.URL, snap.Timestamp)
	}

	h.state = fsmState{kind: stateBound, pid: app.PID}

	sources := []platform.ObservationKind{obs.Kind}
	if snap.Focus != nil {
		sources = append(sources, platform.ObsAccessibility)
	}

	ev := contextmodel.ContextEvent{
		ID:          newEventID(),
		Kind:        contextmodel.EventAppSwitch,
		TimestampMs: h.msSinceStart(obs.Timestamp),
		FromContext: fromSnap,
		ToContext:   snap,
		Trigger:     string(obs.Kind),
		Confidence:  ComputeConfidence(sources, false),
	}
	if fromSnap != nil {
		ev.TransitionDetails = map[string]string{
			"duration_ms": durationMsSince(fromSnap.Timestamp, obs.Timestamp),
		}
	}

	if err := h.sink.Deliver(ctx, ev); err != nil {
		logSinkError(err)
	}
}

// onSecondaryObservation handles Bound(p) -> Bound(p): an AX/workspace
// observation about the currently bound app whose merged context may or may
// not have changed semantic key since the last published snapshot.
func (h *Hub) onSecondaryObservation(ctx context.Context, pid int32, rec *pendingRecord) {
	if h.state.kind != stateBound || h.state.pid != pid {
		// A stale observation for a pid we've since rebound away from, or
		// one that arrived mid-Rebinding: spec §4.C.2 drops AX observations
		// for the app we're leaving.
		return
	}

	prev, hadPrev := h.store.LastSnapshot(pid)

	app := prev.App
	if rec.latest.App != nil {
		app = *rec.latest.App
	}
	if rec.latest.Windows != nil {
		h.windows = rec.latest.Windows
	}

	seed := extractor.ExtractSeed{
		App:       app,
		Windows:   h.windows,
		Input:     h.input,
		StartedAt: time.Now(),
	}
	snap := h.extractor.Extract(ctx, seed)

	if hadPrev && !semanticKeyChanged(prev, snap) {
		// Debounced: nothing worth publishing.
		return
	}

	h.store.RecordSnapshot(pid, snap)
	if snap.Browser != nil && snap.Browser.URL != "" && (!hadPrev || prev.Browser == nil || prev.Browser.URL != snap.Browser.URL) {
		h.store.BeginURL(pid, snap.Browser.URL, snap.Timestamp)
	}

	kind := secondaryEventKind(rec.first.Kind, prev, snap)

	sources := []platform.ObservationKind{rec.first.Kind}
	if rec.mergeCount > 1 {
		sources = append(sources, rec.latest.Kind)
	}

	ev := contextmodel.ContextEvent{
		ID:          newEventID(),
		Kind:        kind,
		TimestampMs: h.msSinceStart(rec.latest.Timestamp),
		ToContext:   snap,
		Trigger:     string(rec.first.Kind),
		Confidence:  ComputeConfidence(sources, false),
	}
	if hadPrev {
		ev.FromContext = &prev
	}

	if err := h.sink.Deliver(ctx, ev); err != nil {
		logSinkError(err)
	}
}

// onWorkspaceSignal publishes a workspace-level signal (active space change,
// system wake, session become/resign active, screen-parameter change)
// directly. These observations carry no per-app semantic field, so they
// bypass onSecondaryObservation's semanticKeyChanged debounce entirely
// rather than being forced through secondaryEventKind.
func (h *Hub) onWorkspaceSignal(ctx context.Context, obs platform.Observation) {
	kind, ok := workspaceSignalEventKind(obs.Kind)
	if !ok {
		return
	}

	var toSnap contextmodel.ContextSnapshot
	if h.state.kind == stateBound {
		if snap, ok := h.store.LastSnapshot(h.state.pid); ok {
			toSnap = snap
		}
	}

	ev := contextmodel.ContextEvent{
		ID:          newEventID(),
		Kind:        kind,
		TimestampMs: h.msSinceStart(obs.Timestamp),
		ToContext:   toSnap,
		Trigger:     string(obs.Kind),
		Confidence:  ComputeConfidence([]platform.ObservationKind{obs.Kind}, false),
	}

	if err := h.sink.Deliver(ctx, ev); err != nil {
		logSinkError(err)
	}
}

func workspaceSignalEventKind(k platform.ObservationKind) (contextmodel.EventKind, bool) {
	switch k {
	case platform.ObsSpaceChange:
		return contextmodel.EventSpaceChange, true
	case platform.ObsWake:
		return contextmodel.EventWake, true
	case platform.ObsSessionChange:
		return contextmodel.EventSessionChange, true
	case platform.ObsScreenChange:
		return contextmodel.EventScreenChange, true
	default:
		return "", false
	}
}

func appInfoFromObservation(obs platform.Observation) contextmodel.AppInfo {
	if obs.App != nil {
		app := *obs.App
		app.PID = obs.PID
		if app.FirstSeen.IsZero() {
			app.FirstSeen = obs.Timestamp
		}
		return app
	}
	return contextmodel.AppInfo{PID: obs.PID, FirstSeen: obs.Timestamp}
}

// semanticKeyChanged implements the "window title, URL, active file,
// document path" comparison of spec §4.C.2, and also compares the focused
// element's selected text.
func semanticKeyChanged(prev, next contextmodel.ContextSnapshot) bool {
	if windowTitle(prev) != windowTitle(next) {
		return true
	}
	if browserURL(prev) != browserURL(next) {
		return true
	}
	if activeFile(prev) != activeFile(next) {
		return true
	}
	if documentPath(prev) != documentPath(next) {
		return true
	}
	if selectedText(prev) != selectedText(next) {
		return true
	}
	return false
}

func windowTitle(s contextmodel.ContextSnapshot) string {
	if s.Window == nil {
		return ""
	}
	return s.Window.Title
}

func browserURL(s contextmodel.ContextSnapshot) string {
	if s.Browser == nil {
		return ""
	}
	return s.Browser.URL
}

func activeFile(s contextmodel.ContextSnapshot) string {
	if s.IDE != nil {
		return s.IDE.ActiveFile
	}
	if s.Finder != nil {
		return s.Finder.CurrentFolder
	}
	return ""
}

func documentPath(s contextmodel.ContextSnapshot) string {
	if s.Window == nil {
		return ""
	}
	return s.Window.FilePath
}

func selectedText(s contextmodel.ContextSnapshot) string {
	if s.Focus == nil {
		return ""
	}
	return s.Focus.SelectedText
}

// secondaryEventKind derives the event kind from which adapter triggered the
// change, per spec §4.C.2's "kind derived from the notification".
func secondaryEventKind(trigger platform.ObservationKind, prev, next contextmodel.ContextSnapshot) contextmodel.EventKind {
	switch {
	case next.Browser != nil && browserURL(prev) != browserURL(next):
		return contextmodel.EventTabChange
	case trigger == platform.ObsWindowList:
		return contextmodel.EventWindowChange
	case selectedText(prev) != selectedText(next):
		return contextmodel.EventSelectionChange
	default:
		return contextmodel.EventFocusChange
	}
}

// msSinceStart converts a wall-clock observation timestamp into milliseconds
// since the Hub started, per spec §6.2's "timestamp (milliseconds since
// process start)".
func (h *Hub) msSinceStart(t time.Time) int64 {
	if t.Before(h.startedAt) {
		return 0
	}
	return t.Sub(h.startedAt).Milliseconds()
}

func durationMsSince(from, to time.Time) string {
	if from.IsZero() || to.Before(from) {
		return "0"
	}
	return strconv.FormatInt(to.Sub(from).Milliseconds(), 10)
}
