// Package extractor implements the Context Extractor (spec §4.B): given a
// pid, bundle id, and a handful of adapter-supplied hints, it builds a
// ContextSnapshot through a progressive-enhancement pipeline that degrades
// gracefully as sources run out of time or return nothing.
package extractor

import (
	"context"
	"time"

	"github.com/open-runtime/contextfusion/internal/platform"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// DefaultDeadline is the extractor's soft cancellation budget; on expiry the
// partial snapshot built so far is returned rather than an error.
const DefaultDeadline = 100 * time.Millisecond

// AccessibilityQuerier is the subset of platform.AccessibilityAdapter the
// extractor depends on, narrowed for testability.
type AccessibilityQuerier interface {
	Query(ctx context.Context, pid int32) (*contextmodel.FocusedElement, []contextmodel.Breadcrumb, error)
}

// ScriptRunner is the subset of platform.ScriptOracle the extractor depends
// on.
type ScriptRunner interface {
	Query(ctx context.Context, bundleID string, kind platform.QueryKind, script string) (string, error)
}

// InputHints carries the latest values the extractor cannot itself observe:
// mouse position, last click, scroll delta, and modifier state, all sourced
// from the most recent InputTap observations.
type InputHints struct {
	MousePosition contextmodel.Point
	LastClick     *contextmodel.Point
	ScrollDelta   contextmodel.Point
	Modifiers     contextmodel.ModifierSet
}

// ExtractSeed is everything the extractor is handed to build one snapshot.
// Windows is the most recent WindowList snapshot; the extractor does not
// poll for windows itself.
type ExtractSeed struct {
	App        contextmodel.AppInfo
	Windows    []contextmodel.WindowRecord
	Input      InputHints
	StartedAt  time.Time
	IdleTimeMs int64
}

// Extractor builds ContextSnapshots. It holds no OS handles between calls:
// every AX reference is acquired and released inside Query by the platform
// layer, never retained here.
type Extractor struct {
	AX       AccessibilityQuerier
	Oracle   ScriptRunner
	Deadline time.Duration
}

func New(ax AccessibilityQuerier, oracle ScriptRunner) *Extractor {
	return &Extractor{AX: ax, Oracle: oracle, Deadline: DefaultDeadline}
}

// Extract runs the pipeline: seed, focused window, app-class branch, focused
// element mining, breadcrumb, input state. A deadline shorter than the
// default can be supplied via ctx; Extract always attaches its own deadline
// on top and returns whatever was gathered when it expires.
func (e *Extractor) Extract(ctx context.Context, seed ExtractSeed) contextmodel.ContextSnapshot {
	deadline := e.Deadline
	if deadline <= 0 {
		deadline = DefaultDeadline
	}
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	snap := contextmodel.ContextSnapshot{
		App:           seed.App,
		MousePosition: seed.Input.MousePosition,
		LastClick:     seed.Input.LastClick,
		ScrollDelta:   seed.Input.ScrollDelta,
		Modifiers:     seed.Input.Modifiers,
		Timestamp:     time.Now(),
		StartedAt:     seed.StartedAt,
		IdleTimeMs:    seed.IdleTimeMs,
	}

	class := ClassifyApp(seed.App.BundleID)
	window := pickFocusedWindow(seed.Windows, seed.App.PID)
	if window != nil {
		w := *window
		w.AppClass = class
		snap.Window = &w
	}

	switch class {
	case contextmodel.AppClassBrowser:
		e.extractBrowser(ctx, seed, snap.Window, &snap)
	case contextmodel.AppClassIDE:
		e.extractIDE(snap.Window, &snap)
	case contextmodel.AppClassTerminal:
		e.extractTerminal(snap.Window, &snap)
	case contextmodel.AppClassSpreadsheet:
		e.extractSpreadsheet(snap.Window, &snap)
	case contextmodel.AppClassFileManager:
		e.extractFileManager(ctx, seed, &snap)
	case contextmodel.AppClassMediaViewer:
		e.extractMediaViewer(ctx, seed, &snap)
	}

	if ctx.Err() == nil && e.AX != nil {
		focus, breadcrumb, err := e.AX.Query(ctx, seed.App.PID)
		if err == nil {
			snap.Focus = focus
			snap.Breadcrumb = breadcrumb
			e.refineFromFocus(class, focus, &snap)
		}
	}

	return snap
}

// pickFocusedWindow returns the frontmost on-screen window owned by pid:
// lowest layer value among on-screen windows, falling back to any window
// for pid if none are on-screen. A window list of length zero is simply
// "no windows", never an error (spec §8 boundary behavior).
func pickFocusedWindow(windows []contextmodel.WindowRecord, pid int32) *contextmodel.WindowRecord {
	var best *contextmodel.WindowRecord
	for i := range windows {
		w := &windows[i]
		if w.OwnerPID != pid {
			continue
		}
		if best == nil {
			best = w
			continue
		}
		if w.OnScreen && !best.OnScreen {
			best = w
			continue
		}
		if w.OnScreen == best.OnScreen && w.Layer < best.Layer {
			best = w
		}
	}
	return best
}

// refineFromFocus applies focused-element-derived fields that only make
// sense once the general AX attribute set has been mined, keyed by app
// class. AX values are already type-checked by the platform layer (a
// non-string attribute is simply absent, never stringified).
func (e *Extractor) refineFromFocus(class contextmodel.AppClass, focus *contextmodel.FocusedElement, snap *contextmodel.ContextSnapshot) {
	if focus == nil {
		return
	}
	switch class {
	case contextmodel.AppClassIDE:
		if snap.IDE == nil {
			snap.IDE = &contextmodel.IDEContext{}
		}
		if focus.Document != "" {
			snap.IDE.ActiveFile = focus.Document
		} else if focus.Path != "" {
			snap.IDE.ActiveFile = focus.Path
		}
	case contextmodel.AppClassTerminal:
		if snap.Terminal == nil {
			snap.Terminal = &contextmodel.TerminalContext{}
		}
		if snap.Terminal.LastCommand == "" && focus.Value != "" {
			snap.Terminal.LastCommand = truncate(focus.Value, 500)
		}
	case contextmodel.AppClassSpreadsheet:
		if snap.Spreadsheet == nil {
			snap.Spreadsheet = &contextmodel.SpreadsheetContext{}
		}
		if snap.Spreadsheet.SelectedCell == "" {
			if focus.Description != "" {
				snap.Spreadsheet.SelectedCell = focus.Description
			} else if focus.Help != "" {
				snap.Spreadsheet.SelectedCell = focus.Help
			}
		}
	case contextmodel.AppClassBrowser:
		if snap.Browser == nil {
			snap.Browser = &contextmodel.BrowserContext{}
		}
		if snap.Browser.URL == "" && looksLikeURL(focus.URL) {
			snap.Browser.URL = focus.URL
		} else if snap.Browser.URL == "" && looksLikeURL(focus.Value) {
			snap.Browser.URL = focus.Value
		}
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
