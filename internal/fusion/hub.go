// Package fusion implements the Event Fusion Hub (spec §4.C): it serializes
// every platform observation through one goroutine, coalesces near-duplicate
// observations about the same (pid, kind) pair within a fuse window, and
// drives the Idle/Bound/Rebinding state machine that decides when to call
// the Context Extractor and publish a ContextEvent.
package fusion

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/open-runtime/contextfusion/internal/extractor"
	"github.com/open-runtime/contextfusion/internal/logger"
	"github.com/open-runtime/contextfusion/internal/platform"
	"github.com/open-runtime/contextfusion/internal/store"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// Sink is what the Hub publishes finished events to. internal/sink.Fanout
// is the only production implementation; the Hub never knows there may be
// more than one underlying sink behind it.
type Sink interface {
	Deliver(ctx context.Context, ev contextmodel.ContextEvent) error
	DeliverClipboard(ctx context.Context, ev contextmodel.ClipboardEvent) error
}

// Config bundles the Hub's tunables. FuseWindow, ClipboardFusionWindow and
// RebindGrace mirror config.FusionConfig; SecondaryDebounce has no
// FusionConfig counterpart.
type Config struct {
	FuseWindow            time.Duration
	ClipboardFusionWindow time.Duration
	RebindGrace           time.Duration
	SecondaryDebounce     time.Duration
}

func DefaultConfig() Config {
	return Config{
		FuseWindow:            300 * time.Millisecond,
		ClipboardFusionWindow: 500 * time.Millisecond,
		RebindGrace:           150 * time.Millisecond,
		SecondaryDebounce:     50 * time.Millisecond,
	}
}

// Hub is the sole owner of the pending-slot map and the state machine; both
// are only ever touched from the Run goroutine.
type Hub struct {
	cfg       Config
	extractor *extractor.Extractor
	store     *store.Store
	sink      Sink

	in      <-chan platform.Observation
	promote chan pendingKey

	state fsmState

	pending map[pendingKey]*pendingRecord
	windows []contextmodel.WindowRecord
	input   extractor.InputHints

	clipboardExpectation *clipboardExpectation

	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// New builds a Hub. in is the fan-in of every adapter's observation
// channel; extractor and store are shared with the rest of the engine.
func New(cfg Config, in <-chan platform.Observation, ext *extractor.Extractor, st *store.Store, sink Sink) *Hub {
	return &Hub{
		cfg:       cfg,
		extractor: ext,
		store:     st,
		sink:      sink,
		in:        in,
		promote:   make(chan pendingKey, 256),
		state:     fsmState{kind: stateIdle},
		pending:   make(map[pendingKey]*pendingRecord),
		startedAt: time.Now(),
	}
}

// Run drains the observation channel until ctx is canceled or the channel
// closes. It is meant to be run in its own goroutine (T-hub).
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	runCtx, cancel := context.WithCancel(ctx)
	h.cancel = cancel
	h.mu.Unlock()

	logger.Info("fusion hub started", zap.Duration("fuse_window", h.cfg.FuseWindow))

	for {
		select {
		case <-runCtx.Done():
			h.flushAllPending(runCtx)
			return
		case obs, ok := <-h.in:
			if !ok {
				h.flushAllPending(runCtx)
				return
			}
			h.handle(runCtx, obs)
		case key := <-h.promote:
			h.promoteIfPending(runCtx, key)
		}
	}
}

func (h *Hub) Stop() {
	h.mu.Lock()
	cancel := h.cancel
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// handle routes one observation: activations and launches drive the state
// machine directly (they are never coalesced across apps — each activation
// is its own transition); window-list, input, clipboard and workspace-signal
// observations are applied directly too; every other kind feeds the
// fuse-window pending-slot map keyed on (pid, kind).
func (h *Hub) handle(ctx context.Context, obs platform.Observation) {
	switch obs.Kind {
	case platform.ObsAppActivate, platform.ObsAppLaunch:
		h.onActivate(ctx, obs)
		return
	case platform.ObsWindowList:
		h.windows = obs.Windows
		return
	case platform.ObsKeyDown:
		h.input.Modifiers = obs.Modifiers
		h.noteClipboardIntentFromKeyDown(obs)
		return
	case platform.ObsFlagsChanged:
		h.input.Modifiers = obs.Modifiers
		return
	case platform.ObsMouseClick:
		pt := obs.Point
		h.input.LastClick = &pt
		h.input.MousePosition = obs.Point
		h.noteClipboardIntentFromClick(obs)
		return
	case platform.ObsScroll:
		h.input.ScrollDelta = obs.Point
		return
	case platform.ObsClipboard:
		h.handleClipboard(ctx, obs)
		return
	case platform.ObsSpaceChange, platform.ObsWake, platform.ObsSessionChange, platform.ObsScreenChange:
		h.onWorkspaceSignal(ctx, obs)
		return
	}

	h.enqueuePending(obs)
}

func (h *Hub) enqueuePending(obs platform.Observation) {
	key := pendingKey{PID: obs.PID, Kind: obs.Kind}
	if rec, ok := h.pending[key]; ok {
		rec.merge(obs)
		return
	}

	rec := newPendingRecord(obs)
	h.pending[key] = rec

	time.AfterFunc(h.cfg.FuseWindow, func() {
		select {
		case h.promote <- key:
		default:
		}
	})
}

func (h *Hub) promoteIfPending(ctx context.Context, key pendingKey) {
	rec, ok := h.pending[key]
	if !ok {
		return
	}
	delete(h.pending, key)
	h.onSecondaryObservation(ctx, key.PID, rec)
}

func (h *Hub) flushAllPending(ctx context.Context) {
	for key, rec := range h.pending {
		h.onSecondaryObservation(ctx, key.PID, rec)
	}
	h.pending = make(map[pendingKey]*pendingRecord)
}

func newEventID() string { return uuid.NewString() }

func logSinkError(err error) {
	logger.Warn("sink delivery failed", zap.Error(err))
}
