// Package hostbridge pushes ContextEvent/ClipboardEvent values into a Wails
// frontend via runtime.EventsEmit. It is only wired in by the `gui`
// subcommand (SPEC_FULL.md CLI section); the `run` daemon never imports it on
// its hot path.
package hostbridge

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

const (
	contextEventChannel   = "context:event"
	clipboardEventChannel = "context:clipboard"
)

// Sink emits events to a Wails frontend. wailsCtx is the context Wails hands
// to App.Startup, not the per-call ctx threaded through Deliver.
type Sink struct {
	wailsCtx context.Context
}

func New(wailsCtx context.Context) *Sink {
	return &Sink{wailsCtx: wailsCtx}
}

func (s *Sink) Name() string { return "hostbridge" }

func (s *Sink) Deliver(_ context.Context, ev contextmodel.ContextEvent) error {
	runtime.EventsEmit(s.wailsCtx, contextEventChannel, ev)
	return nil
}

func (s *Sink) DeliverClipboard(_ context.Context, ev contextmodel.ClipboardEvent) error {
	runtime.EventsEmit(s.wailsCtx, clipboardEventChannel, ev)
	return nil
}
