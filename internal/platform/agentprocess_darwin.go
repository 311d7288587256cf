//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa

#include <Cocoa/Cocoa.h>

static void setAccessoryActivationPolicy() {
    [NSApplication sharedApplication];
    [NSApp setActivationPolicy:NSApplicationActivationPolicyAccessory];
}
*/
import "C"

// SetAgentActivationPolicy configures the process as a background/agent
// app (spec §4.G step 2): no Dock icon, no menu bar, no app-switcher entry.
func SetAgentActivationPolicy() error {
	C.setAccessoryActivationPolicy()
	return nil
}
