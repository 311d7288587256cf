//go:build darwin

package platform

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework ApplicationServices

#include <ApplicationServices/ApplicationServices.h>

static int checkAccessibilityPermission() {
    return AXIsProcessTrusted();
}

static int requestAccessibilityPermission() {
    @autoreleasepool {
        NSDictionary *options = @{(__bridge id)kAXTrustedCheckOptionPrompt: @YES};
        BOOL trusted = AXIsProcessTrustedWithOptions((__bridge CFDictionaryRef)options);
        return trusted ? 0 : -1;
    }
}
*/
import "C"
import (
	"fmt"
	"os/exec"
)

// DarwinPermissionChecker queries Accessibility trust via AXIsProcessTrusted.
// Screen recording and file access are reserved for future sinks and report
// Unknown until wired to a concrete TCC check.
type DarwinPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &DarwinPermissionChecker{}
}

func (c *DarwinPermissionChecker) CheckPermission(permType PermissionType) PermissionStatus {
	switch permType {
	case PermissionAccessibility:
		if C.checkAccessibilityPermission() == 1 {
			return PermissionStatusGranted
		}
		return PermissionStatusDenied
	default:
		return PermissionStatusUnknown
	}
}

func (c *DarwinPermissionChecker) RequestPermission(permType PermissionType) error {
	if permType != PermissionAccessibility {
		return fmt.Errorf("requesting %s is not implemented", permType)
	}
	if C.requestAccessibilityPermission() != 0 {
		return fmt.Errorf("accessibility permission request was not granted")
	}
	return nil
}

func (c *DarwinPermissionChecker) OpenSystemSettings(permType PermissionType) error {
	var url string
	switch permType {
	case PermissionAccessibility:
		url = "x-apple.systempreferences:com.apple.preference.security?Privacy_Accessibility"
	case PermissionScreenCapture:
		url = "x-apple.systempreferences:com.apple.preference.security?Privacy_ScreenCapture"
	case PermissionFiles:
		url = "x-apple.systempreferences:com.apple.preference.security?Privacy_FilesAndFolders"
	default:
		return fmt.Errorf("unknown permission type: %v", permType)
	}

	cmd := exec.Command("open", url)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open system settings: %w", err)
	}
	return nil
}
