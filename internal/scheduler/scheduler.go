// Package scheduler implements the Scheduler (spec §4.E): a designated
// run-loop thread for OS facilities that require a single consistent
// thread of execution, plus ownership of the worker goroutines started
// through Go. Go has no notion of a Cocoa run loop, so the designated thread is
// modeled as a goroutine pinned with runtime.LockOSThread draining a
// closure queue — the same effect (all calls to it execute serialized on
// one OS thread) without the NSRunLoop machinery.
package scheduler

import (
	"context"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/open-runtime/contextfusion/internal/logger"
)

type syncJob struct {
	fn   func()
	done chan struct{}
}

// Scheduler owns the designated thread and every worker goroutine started
// through Go. The WindowList, Process Sampler and Clipboard adapters do not
// run through it: each Start launches its own polling goroutine.
type Scheduler struct {
	dispatchCh chan func()
	syncCh     chan syncJob

	ctx    context.Context
	cancel context.CancelFunc

	loopWG sync.WaitGroup
	workWG sync.WaitGroup

	mu      sync.Mutex
	running bool
}

func New() *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		dispatchCh: make(chan func(), 64),
		syncCh:     make(chan syncJob),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start spins up the designated thread (T-main-loop). Idempotent.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}
	s.running = true

	s.loopWG.Add(1)
	go s.runLoop()

	logger.Info("scheduler started")
}

func (s *Scheduler) runLoop() {
	defer s.loopWG.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	for {
		select {
		case <-s.ctx.Done():
			return
		case fn := <-s.dispatchCh:
			fn()
		case job := <-s.syncCh:
			job.fn()
			close(job.done)
		}
	}
}

// Dispatch queues fn for fire-and-forget execution on the designated
// thread. It returns immediately; if the scheduler has already stopped, fn
// is silently dropped.
func (s *Scheduler) Dispatch(fn func()) {
	select {
	case s.dispatchCh <- fn:
	case <-s.ctx.Done():
	}
}

// DispatchSync blocks the caller until fn has run on the designated thread.
// Used sparingly per spec §4.E: startup, and AX bind/unbind.
func (s *Scheduler) DispatchSync(fn func()) {
	done := make(chan struct{})
	select {
	case s.syncCh <- syncJob{fn: fn, done: done}:
	case <-s.ctx.Done():
		return
	}
	select {
	case <-done:
	case <-s.ctx.Done():
	}
}

// DispatchSyncValue runs fn on the designated thread and returns its
// result, for call sites that need a value back rather than just a
// side-effecting closure.
func DispatchSyncValue[T any](s *Scheduler, fn func() T) T {
	var result T
	s.DispatchSync(func() {
		result = fn()
	})
	return result
}

// Go runs fn as one of the Scheduler's worker goroutines. fn must select on
// the passed context and return when it is done, so Stop's sentinel
// cancellation can join it.
func (s *Scheduler) Go(name string, fn func(ctx context.Context)) {
	s.workWG.Add(1)
	go func() {
		defer s.workWG.Done()
		logger.Debug("scheduler worker started", zap.String("worker", name))
		fn(s.ctx)
		logger.Debug("scheduler worker stopped", zap.String("worker", name))
	}()
}

// Stop sets the cancellation sentinel, wakes every worker and the
// designated thread, and joins them with a per-call timeout. It logs
// (rather than blocks forever) if a worker fails to exit in time, per spec
// §5's 2-second per-thread join timeout.
func (s *Scheduler) Stop(timeout time.Duration) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.workWG.Wait()
		s.loopWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("scheduler stopped")
	case <-time.After(timeout):
		logger.Warn("scheduler stop timed out waiting for workers", zap.Duration("timeout", timeout))
	}
}
