// Package contextmodel defines the wire types shared between the Context
// Fusion Engine's internal components and its sinks: application/window
// identity, the focused-element attribute set, the per-instant context
// snapshot, and the deltas (ContextEvent, ClipboardEvent) the Hub emits.
//
// Values here are copied into events and owned by whoever holds them after
// that point (see the engine's ownership notes); nothing in this package
// holds an OS handle.
package contextmodel

import (
	"encoding/json"
	"time"
)

// EventKind enumerates the ContextEvent variants the Fusion Hub can publish.
type EventKind string

const (
	EventAppSwitch      EventKind = "app_switch"
	EventWindowChange   EventKind = "window_change"
	EventTabChange      EventKind = "tab_change"
	EventFocusChange    EventKind = "focus_change"
	EventSelectionChange EventKind = "selection_change"
	EventMouseClick     EventKind = "mouse_click"
	EventScroll         EventKind = "scroll"
	EventClipboard      EventKind = "clipboard"
	EventSpaceChange    EventKind = "space_change"
	EventScreenChange   EventKind = "screen_change"
	EventWake           EventKind = "wake"
	EventSessionChange  EventKind = "session_change"
)

// AppClass is the coarse classification derived from bundle-id prefix
// matching (Glossary: "App class").
type AppClass string

const (
	AppClassBrowser     AppClass = "browser"
	AppClassIDE         AppClass = "ide"
	AppClassTerminal    AppClass = "terminal"
	AppClassSpreadsheet AppClass = "spreadsheet"
	AppClassFileManager AppClass = "file_manager"
	AppClassMediaViewer AppClass = "media_viewer"
	AppClassOther       AppClass = "other"
)

// AppInfo identifies a running application. Identity key is PID while the
// process is alive; BundleID is used for cross-session aggregation.
type AppInfo struct {
	Name             string    `json:"name"`
	BundleID         string    `json:"bundle_id"`
	PID              int32     `json:"pid"`
	Path             string    `json:"path,omitempty"`
	FirstSeen        time.Time `json:"first_seen"`
	ActivationCount  int       `json:"activation_count"`
}

// Bounds is a window's on-screen rectangle.
type Bounds struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// WindowRecord is a single on-screen window, materialized wholesale from a
// window-list snapshot and never mutated in place (§3.1 Lifecycle).
type WindowRecord struct {
	WindowID  uint32   `json:"window_id"`
	OwnerPID  int32    `json:"owner_pid"`
	Title     string   `json:"title,omitempty"`
	Layer     int      `json:"layer"`
	Alpha     float64  `json:"alpha"`
	OnScreen  bool     `json:"on_screen"`
	Bounds    Bounds   `json:"bounds"`
	DisplayID uint32   `json:"display_id"`
	AppClass  AppClass `json:"app_class,omitempty"`

	// Derived fields filled by the Extractor.
	URL             string `json:"url,omitempty"`
	FilePath        string `json:"file_path,omitempty"`
	TabTitle        string `json:"tab_title,omitempty"`
	TerminalCommand string `json:"terminal_command,omitempty"`
}

// FocusedElement mines the recognized AX attribute set (§6.3). Every field
// is optional; a zero value for a pointer/omitempty field means the source
// did not report it, never that the attribute was false or empty.
type FocusedElement struct {
	Role                string  `json:"role,omitempty"`
	RoleDescription     string  `json:"role_description,omitempty"`
	Subrole             string  `json:"subrole,omitempty"`
	Title               string  `json:"title,omitempty"`
	Description         string  `json:"description,omitempty"`
	Value               string  `json:"value,omitempty"`
	Help                string  `json:"help,omitempty"`
	URL                 string  `json:"url,omitempty"`
	Document            string  `json:"document,omitempty"`
	Filename            string  `json:"filename,omitempty"`
	Path                string  `json:"path,omitempty"`
	Identifier          string  `json:"identifier,omitempty"`
	Label               string  `json:"label,omitempty"`
	PlaceholderValue    string  `json:"placeholder_value,omitempty"`
	SelectedText        string  `json:"selected_text,omitempty"`
	NumberOfCharacters  *int    `json:"number_of_characters,omitempty"`
	RowCount            *int    `json:"row_count,omitempty"`
	ColumnCount         *int    `json:"column_count,omitempty"`
	Index               *int    `json:"index,omitempty"`
	DisclosureLevel     *int    `json:"disclosure_level,omitempty"`
	SortDirection       string  `json:"sort_direction,omitempty"`
	AccessKey           string  `json:"access_key,omitempty"`
	ARIALabel           string  `json:"aria_label,omitempty"`
	ParentLabel         string  `json:"parent_label,omitempty"`
	ChildrenCount       *int    `json:"children_count,omitempty"`
	PositionX           *float64 `json:"position_x,omitempty"`
	PositionY           *float64 `json:"position_y,omitempty"`
	SizeW               *float64 `json:"size_w,omitempty"`
	SizeH               *float64 `json:"size_h,omitempty"`
	Enabled             *bool   `json:"enabled,omitempty"`
	Focused             *bool   `json:"focused,omitempty"`
	Selected            *bool   `json:"selected,omitempty"`
	Expanded            *bool   `json:"expanded,omitempty"`
	Checked             *bool   `json:"checked,omitempty"`
	OrderedByRow        *bool   `json:"ordered_by_row,omitempty"`
}

// BrowserContext is the optional browser-specific slot of a ContextSnapshot.
type BrowserContext struct {
	URL       string `json:"url,omitempty"`
	PageTitle string `json:"page_title,omitempty"`
	TabCount  int    `json:"tab_count,omitempty"`
	Incognito bool   `json:"incognito,omitempty"`
}

// IDEContext is the optional IDE-specific slot.
type IDEContext struct {
	ActiveFile  string   `json:"active_file,omitempty"`
	ProjectName string   `json:"project_name,omitempty"`
	OpenFiles   []string `json:"open_files,omitempty"`
	GitBranch   string   `json:"git_branch,omitempty"`
}

// TerminalContext is the optional terminal-specific slot.
type TerminalContext struct {
	Tab         string `json:"tab,omitempty"`
	CWD         string `json:"cwd,omitempty"`
	LastCommand string `json:"last_command,omitempty"`
}

// SpreadsheetContext is the optional spreadsheet-specific slot.
type SpreadsheetContext struct {
	Sheet         string `json:"sheet,omitempty"`
	SelectedCell  string `json:"selected_cell,omitempty"`
}

// FinderContext is the optional file-manager-specific slot.
type FinderContext struct {
	CurrentFolder  string   `json:"current_folder,omitempty"`
	SelectedItems  []string `json:"selected_items,omitempty"`
}

// Breadcrumb is one (role, title-or-role) pair on the AX ancestor chain.
type Breadcrumb struct {
	Role  string `json:"role"`
	Title string `json:"title"`
}

// Point is a screen position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ModifierSet is the last-observed keyboard modifier flags.
type ModifierSet struct {
	Command bool `json:"command,omitempty"`
	Shift   bool `json:"shift,omitempty"`
	Control bool `json:"control,omitempty"`
	Option  bool `json:"option,omitempty"`
}

// ContextSnapshot is the complete context at one instant for one app.
type ContextSnapshot struct {
	App    AppInfo       `json:"app"`
	Window *WindowRecord `json:"window,omitempty"`
	Focus  *FocusedElement `json:"focus,omitempty"`

	Browser     *BrowserContext     `json:"browser,omitempty"`
	IDE         *IDEContext         `json:"ide,omitempty"`
	Terminal    *TerminalContext    `json:"terminal,omitempty"`
	Spreadsheet *SpreadsheetContext `json:"spreadsheet,omitempty"`
	Finder      *FinderContext      `json:"finder,omitempty"`

	Breadcrumb []Breadcrumb `json:"breadcrumb,omitempty"`

	MousePosition Point       `json:"mouse_position"`
	LastClick     *Point      `json:"last_click,omitempty"`
	ScrollDelta   Point       `json:"scroll_delta"`
	Modifiers     ModifierSet `json:"modifiers"`

	Timestamp  time.Time     `json:"timestamp"`
	StartedAt  time.Time     `json:"-"` // monotonic start instant, not serialized
	IdleTimeMs int64         `json:"idle_time_ms"`
}

// wireSnapshot promotes app_name/bundle_id/pid to the top level of the
// serialized snapshot, matching the sink wire shape (§6.2), while keeping
// the full AppInfo struct on the Go side for internal use.
type wireSnapshot struct {
	AppName  string `json:"app_name"`
	BundleID string `json:"bundle_id"`
	PID      int32  `json:"pid"`
	ContextSnapshotAlias
}

// ContextSnapshotAlias avoids infinite recursion when ContextSnapshot's
// MarshalJSON embeds it inside wireSnapshot.
type ContextSnapshotAlias ContextSnapshot

// MarshalJSON flattens AppName/BundleID/PID to the top level alongside the
// rest of the snapshot's fields.
func (s ContextSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireSnapshot{
		AppName:              s.App.Name,
		BundleID:             s.App.BundleID,
		PID:                  s.App.PID,
		ContextSnapshotAlias: ContextSnapshotAlias(s),
	})
}

// ContextEvent is a delta produced by the Fusion Hub.
type ContextEvent struct {
	ID              string            `json:"id"`
	Kind            EventKind         `json:"event_type"`
	TimestampMs     int64             `json:"timestamp"`
	FromContext     *ContextSnapshot  `json:"from_context,omitempty"`
	ToContext       ContextSnapshot   `json:"to_context"`
	Trigger         string            `json:"trigger,omitempty"`
	TransitionDetails map[string]string `json:"transition_details,omitempty"`
	Confidence      float64           `json:"confidence,omitempty"`
	Metadata        map[string]string `json:"metadata,omitempty"`
}

// ClipboardAction enumerates the recorded clipboard actions.
type ClipboardAction string

const (
	ClipboardCopy  ClipboardAction = "copy"
	ClipboardCut   ClipboardAction = "cut"
	ClipboardPaste ClipboardAction = "paste"
)

// ClipboardContentType classifies the clipboard payload.
type ClipboardContentType string

const (
	ClipboardText  ClipboardContentType = "text"
	ClipboardHTML  ClipboardContentType = "html"
	ClipboardRTF   ClipboardContentType = "rtf"
	ClipboardImage ClipboardContentType = "image"
	ClipboardFiles ClipboardContentType = "files"
	ClipboardOther ClipboardContentType = "unknown"
)

// ClipboardFormat is one available pasteboard format identifier and its size.
type ClipboardFormat struct {
	Identifier string `json:"identifier"`
	Bytes      int    `json:"bytes"`
}

// ClipboardEvent records a copy/cut/paste action.
type ClipboardEvent struct {
	ID           string                `json:"id"`
	Action       ClipboardAction       `json:"action"`
	Content      string                `json:"content,omitempty"`
	ContentType  ClipboardContentType  `json:"content_type"`
	Formats      []ClipboardFormat     `json:"formats,omitempty"`
	SourceContext *ContextSnapshot     `json:"source_context,omitempty"`
	DestContext   *ContextSnapshot     `json:"dest_context,omitempty"`
	FilePaths     []string             `json:"file_paths,omitempty"`
	MousePosition Point                `json:"mouse_position"`
	Confidence    float64              `json:"confidence"`
	TimestampMs   int64                `json:"timestamp"`
}

// ProcessSample is a per-pid resource reading taken by the Process Sampler
// (A.7) on a fixed cadence.
type ProcessSample struct {
	PID         int32   `json:"pid"`
	CPUPercent  float64 `json:"cpu_percent"`
	RSSBytes    uint64  `json:"rss_bytes"`
	TimestampMs int64   `json:"timestamp"`
}

// UrlDwellRecord accumulates time spent per URL.
type UrlDwellRecord struct {
	URL          string        `json:"url"`
	TotalDuration time.Duration `json:"total_duration"`
	SessionCount int           `json:"session_count"`
	FirstSeen    time.Time     `json:"first_seen"`
	LastSeen     time.Time     `json:"last_seen"`
}
