//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework CoreGraphics

#include <Cocoa/Cocoa.h>
#include <stdlib.h>

// copyWindowListJSON snapshots CGWindowListCopyWindowInfo and serializes it
// to JSON via NSJSONSerialization so the Go side parses one flat string
// instead of walking CFDictionary/CFArray types field by field.
static char* copyWindowListJSON() {
    CFArrayRef info = CGWindowListCopyWindowInfo(
        kCGWindowListOptionOnScreenOnly | kCGWindowListExcludeDesktopElements,
        kCGNullWindowID);
    if (info == NULL) {
        return strdup("[]");
    }

    NSArray *windows = (__bridge NSArray*)info;
    NSMutableArray *out = [NSMutableArray arrayWithCapacity:windows.count];

    for (NSDictionary *w in windows) {
        NSMutableDictionary *row = [NSMutableDictionary dictionary];
        row[@"window_id"] = w[(id)kCGWindowNumber] ?: @0;
        row[@"owner_pid"] = w[(id)kCGWindowOwnerPID] ?: @0;
        row[@"title"] = w[(id)kCGWindowName] ?: @"";
        row[@"owner_name"] = w[(id)kCGWindowOwnerName] ?: @"";
        row[@"layer"] = w[(id)kCGWindowLayer] ?: @0;
        NSNumber *alpha = w[(id)kCGWindowAlpha];
        row[@"alpha"] = alpha ?: @1.0;
        row[@"on_screen"] = w[(id)kCGWindowIsOnscreen] ?: @YES;

        NSDictionary *bounds = w[(id)kCGWindowBounds];
        if (bounds != nil) {
            row[@"x"] = bounds[@"X"] ?: @0;
            row[@"y"] = bounds[@"Y"] ?: @0;
            row[@"w"] = bounds[@"Width"] ?: @0;
            row[@"h"] = bounds[@"Height"] ?: @0;
        }
        [out addObject:row];
    }

    NSError *err = nil;
    NSData *data = [NSJSONSerialization dataWithJSONObject:out options:0 error:&err];
    CFRelease(info);
    if (data == nil) {
        return strdup("[]");
    }
    NSString *json = [[NSString alloc] initWithData:data encoding:NSUTF8StringEncoding];
    return strdup([json UTF8String]);
}
*/
import "C"
import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"go.uber.org/zap"

	"github.com/open-runtime/contextfusion/internal/logger"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// Poll period bounds for the adaptive schedule of spec §4.A.2: the adapter
// starts at defaultPollPeriod and narrows toward minPollPeriod while the
// window set is churning, relaxing back toward maxPollPeriod once it's
// quiet again.
const (
	minPollPeriod     = 25 * time.Millisecond
	maxPollPeriod     = 200 * time.Millisecond
	defaultPollPeriod = 100 * time.Millisecond
)

// WindowListAdapter polls CGWindowListCopyWindowInfo, adaptively narrowing
// or widening its period within [minPollPeriod, maxPollPeriod] based on
// observed churn (A.2). Every poll is a full, independent snapshot; no
// window is mutated in place between polls (§3.1 WindowRecord lifecycle).
type WindowListAdapter struct {
	Period time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	out    chan Observation
	active bool

	prevIDs map[uint32]bool
}

type rawWindow struct {
	WindowID  uint32  `json:"window_id"`
	OwnerPID  int32   `json:"owner_pid"`
	Title     string  `json:"title"`
	OwnerName string  `json:"owner_name"`
	Layer     int     `json:"layer"`
	Alpha     float64 `json:"alpha"`
	OnScreen  bool    `json:"on_screen"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	W         float64 `json:"w"`
	H         float64 `json:"h"`
}

func NewWindowListAdapter() *WindowListAdapter {
	return &WindowListAdapter{Period: defaultPollPeriod}
}

func (a *WindowListAdapter) Name() string { return AdapterWindowList }

func (a *WindowListAdapter) Start(ctx context.Context) (<-chan Observation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active {
		return nil, fmt.Errorf("windowlist adapter already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.out = make(chan Observation, 16)
	a.active = true
	a.prevIDs = nil

	go a.pollLoop(runCtx)

	return a.out, nil
}

func (a *WindowListAdapter) pollLoop(ctx context.Context) {
	period := a.Period
	if period <= 0 {
		period = defaultPollPeriod
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	defer close(a.out)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			windows, err := a.snapshot()
			if err != nil {
				logger.Warn("windowlist snapshot failed", zap.Error(err))
				continue
			}
			select {
			case a.out <- Observation{Kind: ObsWindowList, Timestamp: time.Now(), Windows: windows}:
			default:
				logger.Warn("windowlist observation dropped, consumer too slow")
			}

			period = nextPollPeriod(period, a.churn(windows))
			ticker.Reset(period)
		}
	}
}

// churn reports how many windows were added or removed since the previous
// poll, identified by window ID. The first poll after Start has no prior
// snapshot to compare against and reports zero churn.
func (a *WindowListAdapter) churn(windows []contextmodel.WindowRecord) int {
	ids := make(map[uint32]bool, len(windows))
	for _, w := range windows {
		ids[w.WindowID] = true
	}

	churn := 0
	if a.prevIDs != nil {
		for id := range ids {
			if !a.prevIDs[id] {
				churn++
			}
		}
		for id := range a.prevIDs {
			if !ids[id] {
				churn++
			}
		}
	}
	a.prevIDs = ids
	return churn
}

// nextPollPeriod narrows toward minPollPeriod on observed churn and relaxes
// toward maxPollPeriod when the window set is stable, per spec §4.A.2's
// "adjusting adaptively (25-200ms) based on observed churn".
func nextPollPeriod(current time.Duration, churn int) time.Duration {
	var next time.Duration
	if churn > 0 {
		next = current / 2
	} else {
		next = current + current/4
	}

	switch {
	case next < minPollPeriod:
		next = minPollPeriod
	case next > maxPollPeriod:
		next = maxPollPeriod
	}
	return next
}

func (a *WindowListAdapter) snapshot() ([]contextmodel.WindowRecord, error) {
	cStr := C.copyWindowListJSON()
	defer C.free(unsafe.Pointer(cStr))
	raw := C.GoString(cStr)

	var rows []rawWindow
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, fmt.Errorf("parse window list json: %w", err)
	}

	windows := make([]contextmodel.WindowRecord, 0, len(rows))
	for _, r := range rows {
		windows = append(windows, contextmodel.WindowRecord{
			WindowID: r.WindowID,
			OwnerPID: r.OwnerPID,
			Title:    r.Title,
			Layer:    r.Layer,
			Alpha:    r.Alpha,
			OnScreen: r.OnScreen,
			Bounds: contextmodel.Bounds{
				X: r.X, Y: r.Y, W: r.W, H: r.H,
			},
		})
	}
	return windows, nil
}

func (a *WindowListAdapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.active {
		return nil
	}
	a.cancel()
	a.active = false
	return nil
}
