//go:build !darwin

package platform

import (
	"context"
	"fmt"

	"github.com/open-runtime/contextfusion/internal/cferrors"
)

type InputTapAdapter struct{}

func NewInputTapAdapter() *InputTapAdapter { return &InputTapAdapter{} }

func (a *InputTapAdapter) Name() string { return AdapterInputTap }

func (a *InputTapAdapter) Start(ctx context.Context) (<-chan Observation, error) {
	return nil, fmt.Errorf("%w: input tap adapter requires macOS", cferrors.ErrSourceUnavailable)
}

func (a *InputTapAdapter) Stop() error { return nil }
