//go:build !darwin

package platform

// SetAgentActivationPolicy is a no-op on non-darwin builds: there is no
// Dock/menu-bar activation policy to set.
func SetAgentActivationPolicy() error { return nil }
