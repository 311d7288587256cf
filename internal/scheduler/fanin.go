package scheduler

import (
	"context"
	"sync"

	"github.com/open-runtime/contextfusion/internal/platform"
)

// FanIn merges every adapter's observation channel into the Scheduler's
// bounded Queue and returns a single channel the Fusion Hub drains (T-hub's
// input). The returned channel closes once every source channel has closed
// and the queue has drained.
type FanIn struct {
	queue *Queue
	out   chan platform.Observation

	wg sync.WaitGroup
}

func NewFanIn(capacity int) *FanIn {
	return &FanIn{
		queue: NewQueue(capacity),
		out:   make(chan platform.Observation, 1),
	}
}

// Attach registers an adapter's observation channel as a source. Must be
// called before Run.
func (f *FanIn) Attach(ctx context.Context, ch <-chan platform.Observation) {
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case obs, ok := <-ch:
				if !ok {
					return
				}
				f.queue.Push(obs)
			}
		}
	}()
}

// Run drains the queue into the output channel until every attached source
// has closed. Callers should run this in its own goroutine and then range
// over Out().
func (f *FanIn) Run() {
	go func() {
		f.wg.Wait()
		f.queue.Close()
	}()

	for {
		obs, ok := f.queue.Pop()
		if !ok {
			close(f.out)
			return
		}
		f.out <- obs
	}
}

// Out is the merged observation stream; the Fusion Hub reads from this.
func (f *FanIn) Out() <-chan platform.Observation {
	return f.out
}

// Dropped reports how many observations were evicted under queue pressure.
func (f *FanIn) Dropped() uint64 {
	return f.queue.Dropped()
}
