// Package platform defines the Platform Adapter contracts (spec §4.A) and
// their macOS (cgo, `//go:build darwin`) and non-darwin stub implementations.
// Every adapter reports observations on a channel rather than blocking the
// caller. The non-darwin stubs report cferrors.ErrSourceUnavailable (the
// streaming stubs from Start, the accessibility stub from Query) so a
// non-darwin build still links and runs with degraded coverage.
package platform

import (
	"context"
	"time"

	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// ObservationKind tags the payload carried by an Observation.
type ObservationKind string

const (
	ObsAppActivate   ObservationKind = "app_activate"
	ObsAppDeactivate ObservationKind = "app_deactivate"
	ObsAppLaunch     ObservationKind = "app_launch"
	ObsAppTerminate  ObservationKind = "app_terminate"
	ObsAppHide       ObservationKind = "app_hide"
	ObsAppUnhide     ObservationKind = "app_unhide"
	ObsSpaceChange   ObservationKind = "space_change"
	ObsWake          ObservationKind = "wake"
	ObsSessionChange ObservationKind = "session_change"
	ObsScreenChange  ObservationKind = "screen_change"
	ObsWindowList    ObservationKind = "window_list"
	ObsAccessibility ObservationKind = "accessibility"
	ObsKeyDown       ObservationKind = "key_down"
	ObsFlagsChanged  ObservationKind = "flags_changed"
	ObsMouseClick    ObservationKind = "mouse_click"
	ObsScroll        ObservationKind = "scroll"
	ObsClipboard     ObservationKind = "clipboard"
	ObsScriptOracle  ObservationKind = "script_oracle"
	ObsProcessSample ObservationKind = "process_sample"
)

// Observation is the single envelope every adapter publishes. Only the
// field matching Kind is populated; the rest are zero values.
type Observation struct {
	Kind      ObservationKind
	PID       int32
	Timestamp time.Time

	App            *contextmodel.AppInfo
	Windows        []contextmodel.WindowRecord
	Focus          *contextmodel.FocusedElement
	Breadcrumb     []contextmodel.Breadcrumb
	Clipboard      *contextmodel.ClipboardEvent
	Modifiers      contextmodel.ModifierSet
	Point          contextmodel.Point
	KeyCode        int64
	ScriptResult   string
	ScriptQueryKey string
	LivePIDs       map[int32]bool
	Sample         *contextmodel.ProcessSample
}

// Adapter is the lifecycle contract every Platform Adapter implements.
// Start must return promptly; ongoing observations are delivered on the
// channel returned by Start until Stop is called or ctx is done.
type Adapter interface {
	Name() string
	Start(ctx context.Context) (<-chan Observation, error)
	Stop() error
}

// ANSI virtual keycodes for the three clipboard-shortcut letters, used by
// the Fusion Hub to recognize a Cmd+C/V/X marker (spec §4.C.4). Declared
// here rather than in inputtap_darwin.go so non-darwin builds of the fusion
// package, which references them to interpret Observation.KeyCode, still
// link.
const (
	KeyCodeANSI_X = 7
	KeyCodeANSI_C = 8
	KeyCodeANSI_V = 9
)

// AdapterSet names the seven adapters spec §4.A defines, used both as
// config.MonitorConfig.EnabledAdapters values and as map keys for wiring.
const (
	AdapterWorkspace      = "workspace"
	AdapterWindowList     = "windowlist"
	AdapterAccessibility  = "accessibility"
	AdapterInputTap       = "inputtap"
	AdapterClipboard      = "clipboard"
	AdapterScriptOracle   = "scriptoracle"
	AdapterProcessSampler = "processsampler"
)
