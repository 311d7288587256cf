package fusion

import (
	"context"
	"time"

	"github.com/open-runtime/contextfusion/internal/platform"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// clipboardUnmatchedConfidence is the confidence assigned to a clipboard
// change with no matching keystroke marker (spec §4.C.4).
const clipboardUnmatchedConfidence = 0.6

// clipboardExpectation records a Cmd+C/V/X marker awaiting the clipboard
// change it is expected to produce.
type clipboardExpectation struct {
	action  contextmodel.ClipboardAction
	at      time.Time
	context *contextmodel.ContextSnapshot
}

// noteClipboardIntentFromClick is a no-op placeholder retained for mouse
// clicks that land on an edit menu's Copy/Cut/Paste item; the real
// expectation is set by keystroke markers in noteClipboardIntentFromKeyDown.
// Kept as a separate hook because InputTap reports clicks and key-downs on
// the same Observation envelope and the Hub's handle switch routes them
// through distinct cases.
func (h *Hub) noteClipboardIntentFromClick(obs platform.Observation) {
	_ = obs
}

// noteClipboardIntentFromKeyDown inspects a key-down observation's modifier
// set and key code for a Cmd+C/V/X marker and, if found, records an
// expectation the next clipboard-change observation can fuse with.
func (h *Hub) noteClipboardIntentFromKeyDown(obs platform.Observation) {
	if !obs.Modifiers.Command {
		return
	}

	var action contextmodel.ClipboardAction
	switch obs.KeyCode {
	case platform.KeyCodeANSI_C:
		action = contextmodel.ClipboardCopy
	case platform.KeyCodeANSI_V:
		action = contextmodel.ClipboardPaste
	case platform.KeyCodeANSI_X:
		action = contextmodel.ClipboardCut
	default:
		return
	}

	var ctxSnap *contextmodel.ContextSnapshot
	if h.state.kind == stateBound {
		if snap, ok := h.store.LastSnapshot(h.state.pid); ok {
			ctxSnap = &snap
		}
	}

	h.clipboardExpectation = &clipboardExpectation{action: action, at: obs.Timestamp, context: ctxSnap}
}

// handleClipboard fuses a clipboard-change observation with a pending
// keystroke expectation within the clipboard fusion window, or publishes an
// unmatched copy event at reduced confidence.
func (h *Hub) handleClipboard(ctx context.Context, obs platform.Observation) {
	if obs.Clipboard == nil {
		return
	}
	ev := *obs.Clipboard
	if ev.ID == "" {
		ev.ID = newEventID()
	}
	if ev.TimestampMs == 0 {
		ev.TimestampMs = h.msSinceStart(obs.Timestamp)
	}

	exp := h.clipboardExpectation
	if exp != nil && obs.Timestamp.Sub(exp.at) <= h.cfg.ClipboardFusionWindow && obs.Timestamp.Sub(exp.at) >= 0 {
		ev.Action = exp.action
		if exp.action == contextmodel.ClipboardPaste {
			// exp.context was captured at the Cmd+V keydown, i.e. the paste
			// destination, never the copy site that put content on the
			// clipboard (§3.1). This architecture has no way to recover the
			// latter, so SourceContext stays nil for a paste.
			ev.DestContext = exp.context
		} else {
			ev.SourceContext = exp.context
		}
		ev.Confidence = ComputeConfidence([]platform.ObservationKind{platform.ObsClipboard, platform.ObsKeyDown}, false)
		h.clipboardExpectation = nil
	} else {
		ev.Action = contextmodel.ClipboardCopy
		ev.Confidence = clipboardUnmatchedConfidence
	}

	if h.state.kind == stateBound {
		if snap, ok := h.store.LastSnapshot(h.state.pid); ok && ev.Action == contextmodel.ClipboardPaste && ev.DestContext == nil {
			ev.DestContext = &snap
		}
	}

	if err := h.sink.DeliverClipboard(ctx, ev); err != nil {
		logSinkError(err)
	}
}
