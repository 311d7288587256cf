//go:build !darwin

package platform

import (
	"context"
	"fmt"

	"github.com/open-runtime/contextfusion/internal/cferrors"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// WorkspaceAdapter is unavailable outside macOS; NSWorkspace has no
// cross-platform equivalent this engine can fall back to.
type WorkspaceAdapter struct{}

func NewWorkspaceAdapter() *WorkspaceAdapter { return &WorkspaceAdapter{} }

func (a *WorkspaceAdapter) Name() string { return AdapterWorkspace }

func (a *WorkspaceAdapter) Start(ctx context.Context) (<-chan Observation, error) {
	return nil, fmt.Errorf("%w: workspace adapter requires macOS", cferrors.ErrSourceUnavailable)
}

func (a *WorkspaceAdapter) Stop() error { return nil }

// FrontmostApp is unavailable outside macOS.
func FrontmostApp() (*contextmodel.AppInfo, error) {
	return nil, fmt.Errorf("%w: frontmost app query requires macOS", cferrors.ErrSourceUnavailable)
}
