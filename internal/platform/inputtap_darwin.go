//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework ApplicationServices

#include <ApplicationServices/ApplicationServices.h>

extern void goInputTapCallback(int kind, double x, double y, long long flags, long long keycode);

static CGEventRef inputTapCallback(CGEventTapProxy proxy, CGEventType type, CGEventRef event, void *refcon) {
    CGPoint loc = CGEventGetLocation(event);
    int64_t flags = CGEventGetFlags(event);
    int64_t keycode = CGEventGetIntegerValueField(event, kCGKeyboardEventKeycode);

    switch (type) {
    case kCGEventKeyDown:
        goInputTapCallback(0, loc.x, loc.y, flags, keycode);
        break;
    case kCGEventFlagsChanged:
        goInputTapCallback(1, loc.x, loc.y, flags, keycode);
        break;
    case kCGEventLeftMouseDown:
    case kCGEventRightMouseDown:
        goInputTapCallback(2, loc.x, loc.y, flags, keycode);
        break;
    case kCGEventScrollWheel:
        goInputTapCallback(3, loc.x, loc.y, flags, keycode);
        break;
    default:
        break;
    }
    return event;
}

static CFMachPortRef gInputTap = NULL;
static CFRunLoopSourceRef gInputTapSource = NULL;

static int createInputTap() {
    CGEventMask mask = CGEventMaskBit(kCGEventKeyDown) |
                        CGEventMaskBit(kCGEventFlagsChanged) |
                        CGEventMaskBit(kCGEventLeftMouseDown) |
                        CGEventMaskBit(kCGEventRightMouseDown) |
                        CGEventMaskBit(kCGEventScrollWheel);

    gInputTap = CGEventTapCreate(kCGSessionEventTap, kCGHeadInsertEventTap,
                                  kCGEventTapOptionListenOnly, mask,
                                  inputTapCallback, NULL);
    if (gInputTap == NULL) {
        return -1;
    }

    gInputTapSource = CFMachPortCreateRunLoopSource(kCFAllocatorDefault, gInputTap, 0);
    CFRunLoopAddSource(CFRunLoopGetCurrent(), gInputTapSource, kCFRunLoopDefaultMode);
    CGEventTapEnable(gInputTap, true);
    return 0;
}

static void destroyInputTap() {
    if (gInputTap != NULL) {
        CGEventTapEnable(gInputTap, false);
        CFRunLoopRemoveSource(CFRunLoopGetCurrent(), gInputTapSource, kCFRunLoopDefaultMode);
        CFRelease(gInputTapSource);
        CFRelease(gInputTap);
        gInputTap = NULL;
        gInputTapSource = NULL;
    }
}

static void runInputTapLoop() {
    CFRunLoopRunInMode(kCFRunLoopDefaultMode, 0.1, false);
}
*/
import "C"
import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/open-runtime/contextfusion/internal/logger"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// InputTapAdapter listens for global keystrokes, modifier changes, mouse
// clicks, and scroll via a listen-only CGEventTap (A.4). It must run on a
// goroutine pinned to one OS thread because the run loop it attaches to is
// thread-affine; scheduler.Scheduler owns that thread in production, this
// type just needs Start called from it.
type InputTapAdapter struct {
	mu          sync.Mutex
	out         chan Observation
	stopChan    chan struct{}
	loopDone    chan struct{}
	active      bool
}

var (
	activeInputTap   *InputTapAdapter
	inputTapMu       sync.Mutex
)

func NewInputTapAdapter() *InputTapAdapter { return &InputTapAdapter{} }

func (a *InputTapAdapter) Name() string { return AdapterInputTap }

func (a *InputTapAdapter) Start(ctx context.Context) (<-chan Observation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active {
		return nil, fmt.Errorf("input tap adapter already started")
	}

	if rc := C.createInputTap(); rc != 0 {
		return nil, fmt.Errorf("failed to create CGEventTap, accessibility permission likely missing")
	}

	inputTapMu.Lock()
	activeInputTap = a
	inputTapMu.Unlock()

	a.out = make(chan Observation, 256)
	a.stopChan = make(chan struct{})
	a.loopDone = make(chan struct{})
	a.active = true

	go a.runLoop()
	go func() {
		<-ctx.Done()
		_ = a.Stop()
	}()

	logger.Info("input tap adapter started", zap.String("component", "platform.inputtap"))
	return a.out, nil
}

func (a *InputTapAdapter) runLoop() {
	defer close(a.loopDone)
	for {
		select {
		case <-a.stopChan:
			return
		default:
			C.runInputTapLoop()
		}
	}
}

func (a *InputTapAdapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.active {
		return nil
	}

	close(a.stopChan)
	select {
	case <-a.loopDone:
	case <-time.After(2 * time.Second):
		logger.Warn("input tap run loop did not stop within timeout")
	}

	C.destroyInputTap()
	a.active = false
	close(a.out)

	inputTapMu.Lock()
	if activeInputTap == a {
		activeInputTap = nil
	}
	inputTapMu.Unlock()
	return nil
}

func (a *InputTapAdapter) deliver(kind ObservationKind, x, y float64, flags, keycode int64) {
	a.mu.Lock()
	out, active := a.out, a.active
	a.mu.Unlock()
	if !active {
		return
	}

	mods := contextmodel.ModifierSet{
		Command: flags&(1<<20) != 0,
		Shift:   flags&(1<<17) != 0,
		Control: flags&(1<<18) != 0,
		Option:  flags&(1<<19) != 0,
	}

	select {
	case out <- Observation{
		Kind:      kind,
		Timestamp: time.Now(),
		Point:     contextmodel.Point{X: x, Y: y},
		Modifiers: mods,
		KeyCode:   keycode,
	}:
	default:
		logger.Warn("input tap observation dropped, consumer too slow")
	}
}

//export goInputTapCallback
func goInputTapCallback(kind C.int, x, y C.double, flags, keycode C.longlong) {
	inputTapMu.Lock()
	adapter := activeInputTap
	inputTapMu.Unlock()
	if adapter == nil {
		return
	}

	var k ObservationKind
	switch int(kind) {
	case 0:
		k = ObsKeyDown
	case 1:
		k = ObsFlagsChanged
	case 2:
		k = ObsMouseClick
	case 3:
		k = ObsScroll
	default:
		return
	}

	go adapter.deliver(k, float64(x), float64(y), int64(flags), int64(keycode))
}
