//go:build !darwin

package platform

import "fmt"

// StubPermissionChecker reports every permission as denied. With it,
// lifecycle.Controller.Start fails with ErrPermissionDenied, so a non-macOS
// build only starts the engine when a caller supplies a different checker.
type StubPermissionChecker struct{}

func NewPermissionChecker() PermissionChecker {
	return &StubPermissionChecker{}
}

func (c *StubPermissionChecker) CheckPermission(permType PermissionType) PermissionStatus {
	return PermissionStatusDenied
}

func (c *StubPermissionChecker) RequestPermission(permType PermissionType) error {
	return fmt.Errorf("%s permission requests are only available on macOS", permType)
}

func (c *StubPermissionChecker) OpenSystemSettings(permType PermissionType) error {
	return fmt.Errorf("system settings are only available on macOS")
}
