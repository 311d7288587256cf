//go:build !darwin

package platform

import (
	"context"
	"fmt"

	"github.com/open-runtime/contextfusion/internal/cferrors"
)

type ClipboardAdapter struct{}

func NewClipboardAdapter() *ClipboardAdapter { return &ClipboardAdapter{} }

func (a *ClipboardAdapter) Name() string { return AdapterClipboard }

func (a *ClipboardAdapter) Start(ctx context.Context) (<-chan Observation, error) {
	return nil, fmt.Errorf("%w: clipboard adapter requires macOS", cferrors.ErrSourceUnavailable)
}

func (a *ClipboardAdapter) Stop() error { return nil }
