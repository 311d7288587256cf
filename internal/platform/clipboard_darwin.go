//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa

#include <Cocoa/Cocoa.h>
#include <stdlib.h>

static long long getClipboardChangeCount() {
    return (long long)[[NSPasteboard generalPasteboard] changeCount];
}

static char* getClipboardText() {
    NSPasteboard *pb = [NSPasteboard generalPasteboard];
    NSString *str = [pb stringForType:NSPasteboardTypeString];
    if (str == nil) {
        return strdup("");
    }
    return strdup([str UTF8String]);
}

static char* getClipboardTypesJSON() {
    NSPasteboard *pb = [NSPasteboard generalPasteboard];
    NSMutableArray *types = [NSMutableArray array];
    for (NSPasteboardType t in pb.types) {
        NSData *data = [pb dataForType:t];
        [types addObject:@{@"identifier": t, @"bytes": @(data.length)}];
    }
    NSError *err = nil;
    NSData *json = [NSJSONSerialization dataWithJSONObject:types options:0 error:&err];
    if (json == nil) {
        return strdup("[]");
    }
    NSString *s = [[NSString alloc] initWithData:json encoding:NSUTF8StringEncoding];
    return strdup([s UTF8String]);
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

// ClipboardAdapter polls NSPasteboard.changeCount (A.5). No notification API
// exists for pasteboard changes, so a short poll interval is the idiomatic
// approach; content is only read after changeCount actually moves.
type ClipboardAdapter struct {
	Interval time.Duration

	mu              sync.Mutex
	cancel          context.CancelFunc
	out             chan Observation
	active          bool
	lastChangeCount int64
}

func NewClipboardAdapter() *ClipboardAdapter {
	return &ClipboardAdapter{Interval: 500 * time.Millisecond}
}

func (a *ClipboardAdapter) Name() string { return AdapterClipboard }

func (a *ClipboardAdapter) Start(ctx context.Context) (<-chan Observation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active {
		return nil, fmt.Errorf("clipboard adapter already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.out = make(chan Observation, 16)
	a.active = true
	a.lastChangeCount = int64(C.getClipboardChangeCount())

	go a.pollLoop(runCtx)
	logger.Info("clipboard adapter started", zap.String("component", "platform.clipboard"))
	return a.out, nil
}

type rawFormat struct {
	Identifier string `json:"identifier"`
	Bytes      int    `json:"bytes"`
}

func (a *ClipboardAdapter) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(a.Interval)
	defer ticker.Stop()
	defer close(a.out)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.checkChange()
		}
	}
}

func (a *ClipboardAdapter) checkChange() {
	count := int64(C.getClipboardChangeCount())
	if count == a.lastChangeCount {
		return
	}
	a.lastChangeCount = count

	cStr := C.getClipboardText()
	content := C.GoString(cStr)
	C.free(unsafe.Pointer(cStr))

	typesStr := C.getClipboardTypesJSON()
	rawTypes := C.GoString(typesStr)
	C.free(unsafe.Pointer(typesStr))

	var rows []rawFormat
	_ = json.Unmarshal([]byte(rawTypes), &rows)

	formats := make([]contextmodel.ClipboardFormat, 0, len(rows))
	for _, r := range rows {
		formats = append(formats, contextmodel.ClipboardFormat{Identifier: r.Identifier, Bytes: r.Bytes})
	}

	ev := &contextmodel.ClipboardEvent{
		Action:      contextmodel.ClipboardCopy,
		Content:     content,
		ContentType: classifyClipboard(formats),
		Formats:     formats,
		TimestampMs: time.Now().UnixMilli(),
	}

	select {
	case a.out <- Observation{Kind: ObsClipboard, Timestamp: time.Now(), Clipboard: ev}:
	default:
		logger.Warn("clipboard observation dropped, consumer too slow")
	}
}

func classifyClipboard(formats []contextmodel.ClipboardFormat) contextmodel.ClipboardContentType {
	for _, f := range formats {
		switch f.Identifier {
		case "public.utf8-plain-text", "public.plain-text", "NSStringPboardType":
			return contextmodel.ClipboardText
		case "public.html":
			return contextmodel.ClipboardHTML
		case "public.rtf":
			return contextmodel.ClipboardRTF
		case "public.png", "public.tiff", "public.jpeg":
			return contextmodel.ClipboardImage
		case "public.file-url", "NSFilenamesPboardType":
			return contextmodel.ClipboardFiles
		}
	}
	return contextmodel.ClipboardOther
}

func (a *ClipboardAdapter) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.active {
		return nil
	}
	a.cancel()
	a.active = false
	return nil
}
