//go:build !darwin

package platform

import (
	"context"
	"fmt"

	"github.com/open-runtime/contextfusion/internal/cferrors"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

type AccessibilityAdapter struct{}

func NewAccessibilityAdapter() *AccessibilityAdapter { return &AccessibilityAdapter{} }

func (a *AccessibilityAdapter) Name() string { return AdapterAccessibility }

func (a *AccessibilityAdapter) Start(ctx context.Context) (<-chan Observation, error) {
	return make(chan Observation), nil
}

func (a *AccessibilityAdapter) Stop() error { return nil }

func (a *AccessibilityAdapter) Query(ctx context.Context, pid int32) (*contextmodel.FocusedElement, []contextmodel.Breadcrumb, error) {
	return nil, nil, fmt.Errorf("%w: accessibility adapter requires macOS", cferrors.ErrSourceUnavailable)
}
