package scheduler

import (
	"sync"

	"go.uber.org/zap"

	"github.com/open-runtime/contextfusion/internal/cferrors"
	"github.com/open-runtime/contextfusion/internal/logger"
	"github.com/open-runtime/contextfusion/internal/platform"
)

// DefaultQueueCapacity is the bounded observation queue size of spec §5.
const DefaultQueueCapacity = 1024

// Queue is the bounded, drop-oldest-non-app-switch observation queue T-hub
// drains. It is safe for concurrent Push from many adapter goroutines and a
// single Pop consumer.
type Queue struct {
	mu       sync.Mutex
	cond     *sync.Cond
	buf      []platform.Observation
	capacity int
	closed   bool
	dropped  uint64
}

func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	q := &Queue{capacity: capacity, buf: make([]platform.Observation, 0, capacity)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push enqueues obs, evicting the oldest non-app-switch observation first if
// the queue is full. If every queued observation is an app-switch, a
// non-app-switch obs is dropped instead, and an app-switch obs evicts the
// oldest queued app-switch.
func (q *Queue) Push(obs platform.Observation) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	if len(q.buf) >= q.capacity {
		if !q.evictOldestNonAppSwitchLocked() {
			if isAppSwitch(obs.Kind) {
				q.evictOldestLocked()
			} else {
				q.dropped++
				logger.Warn("observation queue full, dropping incoming observation", zap.Error(cferrors.ErrQueueOverflow))
				return
			}
		}
	}

	q.buf = append(q.buf, obs)
	q.cond.Signal()
}

func (q *Queue) evictOldestNonAppSwitchLocked() bool {
	for i, o := range q.buf {
		if !isAppSwitch(o.Kind) {
			q.buf = append(q.buf[:i], q.buf[i+1:]...)
			q.dropped++
			logger.Warn("observation queue full, evicted oldest observation", zap.String("kind", string(o.Kind)), zap.Error(cferrors.ErrQueueOverflow))
			return true
		}
	}
	return false
}

func (q *Queue) evictOldestLocked() {
	if len(q.buf) == 0 {
		return
	}
	q.dropped++
	q.buf = q.buf[1:]
}

func isAppSwitch(kind platform.ObservationKind) bool {
	return kind == platform.ObsAppActivate || kind == platform.ObsAppLaunch
}

// Pop blocks until an observation is available or the queue is closed and
// drained, returning ok=false in the latter case.
func (q *Queue) Pop() (platform.Observation, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.buf) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.buf) == 0 {
		return platform.Observation{}, false
	}

	obs := q.buf[0]
	q.buf = q.buf[1:]
	return obs, true
}

// Close unblocks any pending Pop once the queue drains.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.cond.Broadcast()
}

func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}
