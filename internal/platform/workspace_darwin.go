//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework ApplicationServices

#include <Cocoa/Cocoa.h>
#include <stdlib.h>

extern void goWorkspaceCallback(char* kind, char* name, char* bundleID, int pid, char* path);

static void emit(NSNotification *note, const char* kind) {
    NSRunningApplication *app = note.userInfo[NSWorkspaceApplicationKey];
    if (app == nil) {
        app = [NSWorkspace sharedWorkspace].frontmostApplication;
    }
    const char* name = "";
    const char* bundleID = "";
    const char* path = "";
    int pid = 0;
    if (app != nil) {
        name = [[app localizedName] UTF8String] ?: "";
        bundleID = [[app bundleIdentifier] UTF8String] ?: "";
        pid = [app processIdentifier];
        NSString *p = [[app bundleURL] path];
        path = [p UTF8String] ?: "";
    }
    goWorkspaceCallback((char*)kind, (char*)name, (char*)bundleID, pid, (char*)path);
}

static void onActivate(NSNotification *note)   { emit(note, "activate"); }
static void onDeactivate(NSNotification *note) { emit(note, "deactivate"); }
static void onLaunch(NSNotification *note)     { emit(note, "launch"); }
static void onTerminate(NSNotification *note)  { emit(note, "terminate"); }
static void onHide(NSNotification *note)       { emit(note, "hide"); }
static void onUnhide(NSNotification *note)     { emit(note, "unhide"); }
static void onSpaceChange(NSNotification *note) { emit(note, "space_change"); }
static void onWake(NSNotification *note)       { emit(note, "wake"); }
static void onSessionChange(NSNotification *note) { emit(note, "session_change"); }
static void onScreenChange(NSNotification *note)  { emit(note, "screen_change"); }

static void startWorkspaceObservers() {
    NSNotificationCenter *nc = [[NSWorkspace sharedWorkspace] notificationCenter];
    [nc addObserverForName:NSWorkspaceDidActivateApplicationNotification object:nil queue:nil usingBlock:^(NSNotification *n){ onActivate(n); }];
    [nc addObserverForName:NSWorkspaceDidDeactivateApplicationNotification object:nil queue:nil usingBlock:^(NSNotification *n){ onDeactivate(n); }];
    [nc addObserverForName:NSWorkspaceDidLaunchApplicationNotification object:nil queue:nil usingBlock:^(NSNotification *n){ onLaunch(n); }];
    [nc addObserverForName:NSWorkspaceDidTerminateApplicationNotification object:nil queue:nil usingBlock:^(NSNotification *n){ onTerminate(n); }];
    [nc addObserverForName:NSWorkspaceDidHideApplicationNotification object:nil queue:nil usingBlock:^(NSNotification *n){ onHide(n); }];
    [nc addObserverForName:NSWorkspaceDidUnhideApplicationNotification object:nil queue:nil usingBlock:^(NSNotification *n){ onUnhide(n); }];
    [nc addObserverForName:NSWorkspaceActiveSpaceDidChangeNotification object:nil queue:nil usingBlock:^(NSNotification *n){ onSpaceChange(n); }];
    [nc addObserverForName:NSWorkspaceDidWakeNotification object:nil queue:nil usingBlock:^(NSNotification *n){ onWake(n); }];
    [nc addObserverForName:NSWorkspaceSessionDidBecomeActiveNotification object:nil queue:nil usingBlock:^(NSNotification *n){ onSessionChange(n); }];
    [nc addObserverForName:NSWorkspaceSessionDidResignActiveNotification object:nil queue:nil usingBlock:^(NSNotification *n){ onSessionChange(n); }];

    // Screen-parameter change is delivered on the default notification
    // center, not NSWorkspace's own, so it is subscribed separately.
    [[NSNotificationCenter defaultCenter] addObserverForName:NSApplicationDidChangeScreenParametersNotification object:nil queue:nil usingBlock:^(NSNotification *n){ onScreenChange(n); }];
}

static void stopWorkspaceObservers() {
    [[[NSWorkspace sharedWorkspace] notificationCenter] removeObserver:[NSWorkspace sharedWorkspace]];
    [[NSNotificationCenter defaultCenter] removeObserver:[NSWorkspace sharedWorkspace]];
}

static char* frontmostAppName()     { NSRunningApplication *a = [NSWorkspace sharedWorkspace].frontmostApplication; return a ? strdup([[a localizedName] UTF8String] ?: "") : strdup(""); }
static char* frontmostAppBundleID() { NSRunningApplication *a = [NSWorkspace sharedWorkspace].frontmostApplication; return a ? strdup([[a bundleIdentifier] UTF8String] ?: "") : strdup(""); }
static char* frontmostAppPath()     { NSRunningApplication *a = [NSWorkspace sharedWorkspace].frontmostApplication; return a ? strdup([[[a bundleURL] path] UTF8String] ?: "") : strdup(""); }
static int frontmostAppPID()        { NSRunningApplication *a = [NSWorkspace sharedWorkspace].frontmostApplication; return a ? [a processIdentifier] : 0; }
*/
import "C"
import (
	"context"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"go.uber.org/zap"

	"github.com/open-runtime/contextfusion/internal/logger"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// FrontmostApp queries NSWorkspace for the current frontmost application,
// used to seed the State Store at startup (spec §4.G step 5) before any
// activation notification has fired.
func FrontmostApp() (*contextmodel.AppInfo, error) {
	nameC := C.frontmostAppName()
	defer C.free(unsafe.Pointer(nameC))
	bundleC := C.frontmostAppBundleID()
	defer C.free(unsafe.Pointer(bundleC))
	pathC := C.frontmostAppPath()
	defer C.free(unsafe.Pointer(pathC))

	return &contextmodel.AppInfo{
		Name:     C.GoString(nameC),
		BundleID: C.GoString(bundleC),
		PID:      int32(C.frontmostAppPID()),
		Path:     C.GoString(pathC),
	}, nil
}

// WorkspaceAdapter observes NSWorkspace activation lifecycle notifications
// (A.1): app activate/deactivate/launch/terminate/hide/unhide, active space
// changes, system wake, session become/resign active, and screen-parameter
// change (the last delivered on the default notification center rather than
// NSWorkspace's own, so it is subscribed separately). cgo callbacks cannot
// close over Go state, so a
// package-level singleton pointer under a mutex routes the C callback back
// to the active adapter instance, mirroring the teacher's app-switch monitor.
type WorkspaceAdapter struct {
	mu     sync.Mutex
	out    chan Observation
	active bool
}

var (
	activeWorkspaceAdapter *WorkspaceAdapter
	workspaceAdapterMu     sync.Mutex
)

func NewWorkspaceAdapter() *WorkspaceAdapter {
	return &WorkspaceAdapter{}
}

func (a *WorkspaceAdapter) Name() string { return AdapterWorkspace }

func (a *WorkspaceAdapter) Start(ctx context.Context) (<-chan Observation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active {
		return nil, fmt.Errorf("workspace adapter already started")
	}

	workspaceAdapterMu.Lock()
	activeWorkspaceAdapter = a
	workspaceAdapterMu.Unlock()

	a.out = make(chan Observation, 64)
	a.active = true

	C.startWorkspaceObservers()
	logger.Info("workspace adapter started", zap.String("component", "platform.workspace"))

	go func() {
		<-ctx.Done()
		_ = a.Stop()
	}()

	return a.out, nil
}

func (a *WorkspaceAdapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.active {
		return nil
	}
	C.stopWorkspaceObservers()
	a.active = false
	close(a.out)

	workspaceAdapterMu.Lock()
	if activeWorkspaceAdapter == a {
		activeWorkspaceAdapter = nil
	}
	workspaceAdapterMu.Unlock()
	return nil
}

func (a *WorkspaceAdapter) deliver(kind ObservationKind, name, bundleID string, pid int32, path string) {
	a.mu.Lock()
	out := a.out
	active := a.active
	a.mu.Unlock()
	if !active {
		return
	}

	obs := Observation{
		Kind:      kind,
		PID:       pid,
		Timestamp: time.Now(),
		App: &contextmodel.AppInfo{
			Name:     name,
			BundleID: bundleID,
			PID:      pid,
			Path:     path,
		},
	}

	select {
	case out <- obs:
	default:
		logger.Warn("workspace adapter observation dropped, consumer too slow")
	}
}

//export goWorkspaceCallback
func goWorkspaceCallback(kind, name, bundleID *C.char, pid C.int, path *C.char) {
	workspaceAdapterMu.Lock()
	adapter := activeWorkspaceAdapter
	workspaceAdapterMu.Unlock()
	if adapter == nil {
		return
	}

	var k ObservationKind
	switch C.GoString(kind) {
	case "activate":
		k = ObsAppActivate
	case "deactivate":
		k = ObsAppDeactivate
	case "launch":
		k = ObsAppLaunch
	case "terminate":
		k = ObsAppTerminate
	case "hide":
		k = ObsAppHide
	case "unhide":
		k = ObsAppUnhide
	case "space_change":
		k = ObsSpaceChange
	case "wake":
		k = ObsWake
	case "session_change":
		k = ObsSessionChange
	case "screen_change":
		k = ObsScreenChange
	default:
		return
	}

	go adapter.deliver(k, C.GoString(name), C.GoString(bundleID), int32(pid), C.GoString(path))
}
