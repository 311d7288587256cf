// Package sink implements the Sink Fan-out (spec §4.F): ContextEvent and
// ClipboardEvent values are pushed to every registered sink synchronously,
// in registration order, with a soft per-sink processing budget.
package sink

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/open-runtime/contextfusion/internal/cferrors"
	"github.com/open-runtime/contextfusion/internal/logger"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// softBudget is the per-sink processing budget of spec §4.F: exceeding it
// only logs a warning, it never drops or delays the event.
const softBudget = 5 * time.Millisecond

// Sink is one event destination. Implementations must not block
// indefinitely; Deliver/DeliverClipboard run on the Fusion Hub's goroutine.
type Sink interface {
	Name() string
	Deliver(ctx context.Context, ev contextmodel.ContextEvent) error
	DeliverClipboard(ctx context.Context, ev contextmodel.ClipboardEvent) error
}

// Fanout pushes to every registered Sink in registration order. It
// implements fusion.Sink so the Hub can hold it without knowing how many
// real sinks sit behind it.
type Fanout struct {
	sinks []Sink
}

func New(sinks ...Sink) *Fanout {
	return &Fanout{sinks: sinks}
}

func (f *Fanout) Register(s Sink) {
	f.sinks = append(f.sinks, s)
}

// Deliver pushes ev to every sink in registration order, timing each and
// warning (not failing) when a sink exceeds its soft budget. The first
// delivery error is returned after every sink has been tried, so one
// failing sink never stops the rest from receiving the event.
func (f *Fanout) Deliver(ctx context.Context, ev contextmodel.ContextEvent) error {
	var firstErr error
	for _, s := range f.sinks {
		start := time.Now()
		err := s.Deliver(ctx, ev)
		if elapsed := time.Since(start); elapsed > softBudget {
			logger.Warn("sink exceeded soft processing budget",
				zap.String("sink", s.Name()),
				zap.Duration("elapsed", elapsed),
				zap.Error(cferrors.ErrSinkSlow))
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *Fanout) DeliverClipboard(ctx context.Context, ev contextmodel.ClipboardEvent) error {
	var firstErr error
	for _, s := range f.sinks {
		start := time.Now()
		err := s.DeliverClipboard(ctx, ev)
		if elapsed := time.Since(start); elapsed > softBudget {
			logger.Warn("sink exceeded soft processing budget",
				zap.String("sink", s.Name()),
				zap.Duration("elapsed", elapsed),
				zap.Error(cferrors.ErrSinkSlow))
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
