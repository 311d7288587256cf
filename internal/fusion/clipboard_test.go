package fusion

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-runtime/contextfusion/internal/platform"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

func TestHub_ClipboardCopyCarriesKeydownContextAsSource(t *testing.T) {
	h, in, sink := newTestHub(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	defer h.Stop()

	in <- platform.Observation{Kind: platform.ObsAppActivate, PID: 1, Timestamp: time.Now(), App: &contextmodel.AppInfo{Name: "Source", BundleID: "com.source", PID: 1}}
	require.Eventually(t, func() bool {
		evs, _ := sink.snapshot()
		return len(evs) == 1
	}, time.Second, 5*time.Millisecond)

	now := time.Now()
	in <- platform.Observation{Kind: platform.ObsKeyDown, Timestamp: now, Modifiers: contextmodel.ModifierSet{Command: true}, KeyCode: platform.KeyCodeANSI_C}
	in <- platform.Observation{
		Kind:      platform.ObsClipboard,
		Timestamp: now.Add(10 * time.Millisecond),
		Clipboard: &contextmodel.ClipboardEvent{Content: "hello", ContentType: contextmodel.ClipboardText},
	}

	require.Eventually(t, func() bool {
		_, cbs := sink.snapshot()
		return len(cbs) == 1
	}, time.Second, 5*time.Millisecond)

	_, cbs := sink.snapshot()
	require.NotNil(t, cbs[0].SourceContext)
	assert.Equal(t, int32(1), cbs[0].SourceContext.App.PID)
	assert.NotEqual(t, cbs[0].SourceContext, cbs[0].DestContext)
}

func TestHub_ClipboardPasteCarriesKeydownContextAsDestNotSource(t *testing.T) {
	h, in, sink := newTestHub(DefaultConfig())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go h.Run(ctx)
	defer h.Stop()

	in <- platform.Observation{Kind: platform.ObsAppActivate, PID: 1, Timestamp: time.Now(), App: &contextmodel.AppInfo{Name: "Dest", BundleID: "com.dest", PID: 1}}
	require.Eventually(t, func() bool {
		evs, _ := sink.snapshot()
		return len(evs) == 1
	}, time.Second, 5*time.Millisecond)

	now := time.Now()
	in <- platform.Observation{Kind: platform.ObsKeyDown, Timestamp: now, Modifiers: contextmodel.ModifierSet{Command: true}, KeyCode: platform.KeyCodeANSI_V}
	in <- platform.Observation{
		Kind:      platform.ObsClipboard,
		Timestamp: now.Add(10 * time.Millisecond),
		Clipboard: &contextmodel.ClipboardEvent{Content: "hello", ContentType: contextmodel.ClipboardText},
	}

	require.Eventually(t, func() bool {
		_, cbs := sink.snapshot()
		return len(cbs) == 1
	}, time.Second, 5*time.Millisecond)

	_, cbs := sink.snapshot()
	assert.Equal(t, contextmodel.ClipboardPaste, cbs[0].Action)
	assert.Nil(t, cbs[0].SourceContext, "paste has no way to recover the copy site, so source must stay unset")
	require.NotNil(t, cbs[0].DestContext)
	assert.Equal(t, int32(1), cbs[0].DestContext.App.PID)
}
