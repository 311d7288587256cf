package fusion

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-runtime/contextfusion/internal/extractor"
	"github.com/open-runtime/contextfusion/internal/platform"
	"github.com/open-runtime/contextfusion/internal/store"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

type fakeSink struct {
	mu         sync.Mutex
	events     []contextmodel.ContextEvent
	clipboards []contextmodel.ClipboardEvent
}

func (s *fakeSink) Deliver(ctx context.Context, ev contextmodel.ContextEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *fakeSink) DeliverClipboard(ctx context.Context, ev contextmodel.ClipboardEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clipboards = append(s.clipboards, ev)
	return nil
}

func (s *fakeSink) snapshot() ([]contextmodel.ContextEvent, []contextmodel.ClipboardEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]contextmodel.ContextEvent(nil), s.events...), append([]contextmodel.ClipboardEvent(nil), s.clipboards...)
}

func newTestHub(cfg Config) (*Hub, chan platform.Observation, *fakeSink) {
	in := make(chan platform.Observation, 64)
	sink := &fakeSink{}
	ext := extractor.New(nil, nil)
	st := store.New()
	h := New(cfg, in, ext, st, sink)
	return h, in, sink
}

func TestHub_IdleToBoundPublishesAppSwitch(t *testing.T) {
	h, in, sink := newTestHub(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	defer h.Stop()

	in <- platform.Observation{
		Kind:      platform.ObsAppActivate,
		PID:       100,
		Timestamp: time.Now(),
		App:       &contextmodel.AppInfo{Name: "Finder", BundleID: "com.apple.finder", PID: 100},
	}

	require.Eventually(t, func() bool {
		evs, _ := sink.snapshot()
		return len(evs) == 1
	}, time.Second, 5*time.Millisecond)

	evs, _ := sink.snapshot()
	assert.Equal(t, contextmodel.EventAppSwitch, evs[0].Kind)
	assert.Nil(t, evs[0].FromContext)
	assert.Equal(t, int32(100), evs[0].ToContext.App.PID)
}

func TestHub_RapidSwitchesPublishOneTransitionPerApp(t *testing.T) {
	h, in, sink := newTestHub(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	defer h.Stop()

	now := time.Now()
	in <- platform.Observation{Kind: platform.ObsAppActivate, PID: 1, Timestamp: now, App: &contextmodel.AppInfo{Name: "A", BundleID: "com.a", PID: 1}}
	in <- platform.Observation{Kind: platform.ObsAppActivate, PID: 2, Timestamp: now.Add(time.Millisecond), App: &contextmodel.AppInfo{Name: "B", BundleID: "com.b", PID: 2}}
	in <- platform.Observation{Kind: platform.ObsAppActivate, PID: 3, Timestamp: now.Add(2 * time.Millisecond), App: &contextmodel.AppInfo{Name: "C", BundleID: "com.c", PID: 3}}

	require.Eventually(t, func() bool {
		evs, _ := sink.snapshot()
		return len(evs) == 3
	}, time.Second, 5*time.Millisecond)

	evs, _ := sink.snapshot()
	assert.Equal(t, int32(3), evs[2].ToContext.App.PID)
	assert.Equal(t, int32(2), evs[2].FromContext.App.PID)
}

func TestHub_StaleObservationForFormerPIDIsDropped(t *testing.T) {
	h, in, sink := newTestHub(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	defer h.Stop()

	now := time.Now()
	in <- platform.Observation{Kind: platform.ObsAppActivate, PID: 1, Timestamp: now, App: &contextmodel.AppInfo{Name: "A", BundleID: "com.a", PID: 1}}
	require.Eventually(t, func() bool {
		evs, _ := sink.snapshot()
		return len(evs) == 1
	}, time.Second, 5*time.Millisecond)

	in <- platform.Observation{Kind: platform.ObsAppActivate, PID: 2, Timestamp: now.Add(10 * time.Millisecond), App: &contextmodel.AppInfo{Name: "B", BundleID: "com.b", PID: 2}}
	require.Eventually(t, func() bool {
		evs, _ := sink.snapshot()
		return len(evs) == 2
	}, time.Second, 5*time.Millisecond)

	in <- platform.Observation{
		Kind:      platform.ObsAccessibility,
		PID:       1,
		Timestamp: now.Add(20 * time.Millisecond),
		Focus:     &contextmodel.FocusedElement{Title: "stale"},
	}

	time.Sleep(h.cfg.FuseWindow + 50*time.Millisecond)
	evs, _ := sink.snapshot()
	assert.Len(t, evs, 2, "observation for the app we left must be dropped, not published")
}

func TestHub_ClipboardWithoutKeystrokeMarkerIsLowConfidence(t *testing.T) {
	h, in, sink := newTestHub(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	defer h.Stop()

	in <- platform.Observation{
		Kind:      platform.ObsClipboard,
		Timestamp: time.Now(),
		Clipboard: &contextmodel.ClipboardEvent{Content: "hello", ContentType: contextmodel.ClipboardText},
	}

	require.Eventually(t, func() bool {
		_, cbs := sink.snapshot()
		return len(cbs) == 1
	}, time.Second, 5*time.Millisecond)

	_, cbs := sink.snapshot()
	assert.Equal(t, contextmodel.ClipboardCopy, cbs[0].Action)
	assert.Equal(t, clipboardUnmatchedConfidence, cbs[0].Confidence)
}

func TestHub_ClipboardFusesWithPrecedingKeystroke(t *testing.T) {
	h, in, sink := newTestHub(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	defer h.Stop()

	now := time.Now()
	in <- platform.Observation{
		Kind:      platform.ObsKeyDown,
		Timestamp: now,
		Modifiers: contextmodel.ModifierSet{Command: true},
		KeyCode:   platform.KeyCodeANSI_C,
	}
	in <- platform.Observation{
		Kind:      platform.ObsClipboard,
		Timestamp: now.Add(50 * time.Millisecond),
		Clipboard: &contextmodel.ClipboardEvent{Content: "hello", ContentType: contextmodel.ClipboardText},
	}

	require.Eventually(t, func() bool {
		_, cbs := sink.snapshot()
		return len(cbs) == 1
	}, time.Second, 5*time.Millisecond)

	_, cbs := sink.snapshot()
	assert.Equal(t, contextmodel.ClipboardCopy, cbs[0].Action)
	assert.Greater(t, cbs[0].Confidence, clipboardUnmatchedConfidence)
}

func TestHub_WorkspaceSignalsPublishDirectly(t *testing.T) {
	h, in, sink := newTestHub(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	defer h.Stop()

	in <- platform.Observation{Kind: platform.ObsAppActivate, PID: 1, Timestamp: time.Now(), App: &contextmodel.AppInfo{Name: "A", BundleID: "com.a", PID: 1}}
	require.Eventually(t, func() bool {
		evs, _ := sink.snapshot()
		return len(evs) == 1
	}, time.Second, 5*time.Millisecond)

	now := time.Now()
	in <- platform.Observation{Kind: platform.ObsSpaceChange, Timestamp: now}
	in <- platform.Observation{Kind: platform.ObsWake, Timestamp: now.Add(time.Millisecond)}
	in <- platform.Observation{Kind: platform.ObsSessionChange, Timestamp: now.Add(2 * time.Millisecond)}
	in <- platform.Observation{Kind: platform.ObsScreenChange, Timestamp: now.Add(3 * time.Millisecond)}

	require.Eventually(t, func() bool {
		evs, _ := sink.snapshot()
		return len(evs) == 5
	}, time.Second, 5*time.Millisecond)

	evs, _ := sink.snapshot()
	assert.Equal(t, contextmodel.EventSpaceChange, evs[1].Kind)
	assert.Equal(t, contextmodel.EventWake, evs[2].Kind)
	assert.Equal(t, contextmodel.EventSessionChange, evs[3].Kind)
	assert.Equal(t, contextmodel.EventScreenChange, evs[4].Kind)
	assert.Equal(t, int32(1), evs[1].ToContext.App.PID, "workspace signal while bound carries the bound app's last snapshot")
}

func TestComputeConfidence_AgreementBonusAndClamp(t *testing.T) {
	solo := ComputeConfidence([]platform.ObservationKind{platform.ObsWindowList}, false)
	assert.Equal(t, 0.80, solo)

	agreed := ComputeConfidence([]platform.ObservationKind{platform.ObsScriptOracle, platform.ObsAccessibility}, false)
	assert.InDelta(t, 1.0, agreed, 1e-9)

	mismatched := ComputeConfidence([]platform.ObservationKind{platform.ObsAccessibility}, true)
	assert.InDelta(t, 0.75, mismatched, 1e-9)

	assert.Equal(t, 0.60, ComputeConfidence(nil, false))
}
