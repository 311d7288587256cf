// Package store implements the State Store (spec §4.D): the one piece of
// shared mutable state in the engine, guarded by a single mutex with short
// critical sections and no OS calls taken under the lock.
package store

import (
	"container/ring"
	"sync"
	"time"

	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// historySize is N in "bounded deque of the last N=100 ContextSnapshot
// values" (spec §4.D).
const historySize = 100

// Store holds current/previous app identity, per-bundle activation counts,
// per-URL dwell accumulators, a bounded snapshot history, and the
// last-emitted snapshot per pid used for the secondary-event debounce
// equality check.
type Store struct {
	mu sync.Mutex

	current  *contextmodel.AppInfo
	previous *contextmodel.AppInfo

	activationCounts map[string]int
	dwell            map[string]*contextmodel.UrlDwellRecord
	activeURL        map[int32]urlSession

	history     *ring.Ring
	lastEmitted map[int32]contextmodel.ContextSnapshot
}

type urlSession struct {
	url   string
	since time.Time
}

func New() *Store {
	return &Store{
		activationCounts: make(map[string]int),
		dwell:            make(map[string]*contextmodel.UrlDwellRecord),
		activeURL:        make(map[int32]urlSession),
		history:          ring.New(historySize),
		lastEmitted:      make(map[int32]contextmodel.ContextSnapshot),
	}
}

// Activate records app as the new current app, returning whatever was
// current before (nil the first time). The bundle's activation counter is
// incremented.
func (s *Store) Activate(app contextmodel.AppInfo) *contextmodel.AppInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current
	s.previous = prev
	app.ActivationCount = s.activationCounts[app.BundleID] + 1
	s.activationCounts[app.BundleID] = app.ActivationCount
	s.current = &app
	return prev
}

func (s *Store) Current() *contextmodel.AppInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Store) Previous() *contextmodel.AppInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.previous
}

// RecordSnapshot appends to the bounded history ring and updates the
// last-emitted snapshot for pid, used by the Hub's Bound(p) -> Bound(p)
// debounce equality check.
func (s *Store) RecordSnapshot(pid int32, snap contextmodel.ContextSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastEmitted[pid] = snap
	s.history.Value = snap
	s.history = s.history.Next()
}

// LastSnapshot returns the last snapshot recorded for pid, or the zero
// value and false if none has been recorded.
func (s *Store) LastSnapshot(pid int32) (contextmodel.ContextSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.lastEmitted[pid]
	return snap, ok
}

// History returns up to historySize most recent snapshots, oldest first.
func (s *Store) History() []contextmodel.ContextSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]contextmodel.ContextSnapshot, 0, historySize)
	s.history.Do(func(v interface{}) {
		if v == nil {
			return
		}
		out = append(out, v.(contextmodel.ContextSnapshot))
	})
	return out
}

// ForgetPID drops the per-pid last-emitted snapshot when an app terminates,
// so a later pid reuse by the OS never resurrects a stale debounce baseline.
func (s *Store) ForgetPID(pid int32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lastEmitted, pid)
}
