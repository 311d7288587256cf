//go:build !darwin

package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/open-runtime/contextfusion/internal/cferrors"
)

type WindowListAdapter struct {
	Period time.Duration
}

func NewWindowListAdapter() *WindowListAdapter {
	return &WindowListAdapter{Period: 100 * time.Millisecond}
}

func (a *WindowListAdapter) Name() string { return AdapterWindowList }

func (a *WindowListAdapter) Start(ctx context.Context) (<-chan Observation, error) {
	return nil, fmt.Errorf("%w: window list adapter requires macOS", cferrors.ErrSourceUnavailable)
}

func (a *WindowListAdapter) Stop() error { return nil }
