// Package jsontext implements the Sink Fan-out's two required renderers
// (spec §4.F): a compact single-line JSON object per event, and a
// multi-line human-readable format keyed on event kind.
package jsontext

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// Format selects the renderer's output shape.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Sink writes one event at a time to w, serialized in the requested Format.
// Writes are serialized with a mutex since the underlying writer (typically
// os.Stdout) is not safe for concurrent use and the Fan-out may in principle
// hold several sinks racing to flush at shutdown.
type Sink struct {
	w      io.Writer
	format Format
	mu     sync.Mutex
}

func New(w io.Writer, format Format) *Sink {
	if format != FormatText {
		format = FormatJSON
	}
	return &Sink{w: w, format: format}
}

func (s *Sink) Name() string { return "jsontext" }

func (s *Sink) Deliver(ctx context.Context, ev contextmodel.ContextEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == FormatText {
		return s.writeText(ev)
	}
	return s.writeJSON(ev)
}

func (s *Sink) DeliverClipboard(ctx context.Context, ev contextmodel.ClipboardEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.format == FormatText {
		return s.writeClipboardText(ev)
	}
	return s.writeJSON(ev)
}

func (s *Sink) writeJSON(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	_, err = fmt.Fprintf(s.w, "%s\n", data)
	return err
}

func (s *Sink) writeText(ev contextmodel.ContextEvent) error {
	to := ev.ToContext
	switch ev.Kind {
	case contextmodel.EventAppSwitch:
		from := "None"
		if ev.FromContext != nil {
			from = ev.FromContext.App.Name
		}
		_, err := fmt.Fprintf(s.w, "[%s] app_switch\n  from: %s\n  to:   %s (%s)\n  pid:  %d\n",
			stamp(ev.TimestampMs), from, to.App.Name, to.App.BundleID, to.App.PID)
		return err
	case contextmodel.EventTabChange, contextmodel.EventWindowChange, contextmodel.EventFocusChange, contextmodel.EventSelectionChange:
		_, err := fmt.Fprintf(s.w, "[%s] %s\n  app: %s\n  %s\n",
			stamp(ev.TimestampMs), ev.Kind, to.App.Name, contextLine(to))
		return err
	default:
		_, err := fmt.Fprintf(s.w, "[%s] %s\n  app: %s\n", stamp(ev.TimestampMs), ev.Kind, to.App.Name)
		return err
	}
}

func (s *Sink) writeClipboardText(ev contextmodel.ClipboardEvent) error {
	src := "unknown"
	if ev.SourceContext != nil {
		src = ev.SourceContext.App.Name
	}
	_, err := fmt.Fprintf(s.w, "[%s] clipboard %s\n  from: %s\n  type: %s\n  confidence: %.2f\n",
		stamp(ev.TimestampMs), ev.Action, src, ev.ContentType, ev.Confidence)
	return err
}

func contextLine(snap contextmodel.ContextSnapshot) string {
	switch {
	case snap.Browser != nil && snap.Browser.URL != "":
		return fmt.Sprintf("url: %s", snap.Browser.URL)
	case snap.IDE != nil && snap.IDE.ActiveFile != "":
		return fmt.Sprintf("file: %s", snap.IDE.ActiveFile)
	case snap.Terminal != nil && snap.Terminal.Tab != "":
		return fmt.Sprintf("terminal: %s", snap.Terminal.Tab)
	case snap.Window != nil:
		return fmt.Sprintf("window: %s", snap.Window.Title)
	default:
		return ""
	}
}

func stamp(ms int64) string {
	return fmt.Sprintf("%dms", ms)
}
