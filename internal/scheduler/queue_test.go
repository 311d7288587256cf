package scheduler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-runtime/contextfusion/internal/platform"
)

func obsOf(kind platform.ObservationKind, pid int32) platform.Observation {
	return platform.Observation{Kind: kind, PID: pid, Timestamp: time.Now()}
}

func TestQueue_PushPopFIFO(t *testing.T) {
	q := NewQueue(10)
	q.Push(obsOf(platform.ObsMouseClick, 1))
	q.Push(obsOf(platform.ObsScroll, 1))

	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, platform.ObsMouseClick, first.Kind)

	second, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, platform.ObsScroll, second.Kind)
}

func TestQueue_OverflowEvictsOldestNonAppSwitch(t *testing.T) {
	q := NewQueue(2)
	q.Push(obsOf(platform.ObsMouseClick, 1))
	q.Push(obsOf(platform.ObsScroll, 1))
	q.Push(obsOf(platform.ObsKeyDown, 1))

	assert.Equal(t, uint64(1), q.Dropped())
	assert.Equal(t, 2, q.Len())

	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, platform.ObsScroll, first.Kind)
}

func TestQueue_AppSwitchNeverEvictedForIncomingNonAppSwitch(t *testing.T) {
	q := NewQueue(2)
	q.Push(obsOf(platform.ObsAppActivate, 1))
	q.Push(obsOf(platform.ObsAppLaunch, 2))
	q.Push(obsOf(platform.ObsMouseClick, 3))

	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, platform.ObsAppActivate, first.Kind)

	second, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, platform.ObsAppLaunch, second.Kind)
}

func TestQueue_AllAppSwitchesEvictsOldestAppSwitch(t *testing.T) {
	q := NewQueue(1)
	q.Push(obsOf(platform.ObsAppActivate, 1))
	q.Push(obsOf(platform.ObsAppActivate, 2))

	assert.Equal(t, uint64(1), q.Dropped())
	first, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, int32(2), first.PID)
}

func TestQueue_CloseUnblocksPop(t *testing.T) {
	q := NewQueue(10)
	done := make(chan struct{})
	go func() {
		_, ok := q.Pop()
		assert.False(t, ok)
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	q.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock after Close")
	}
}

func TestQueue_CloseDrainsBufferedItemsFirst(t *testing.T) {
	q := NewQueue(10)
	q.Push(obsOf(platform.ObsScroll, 1))
	q.Close()

	obs, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, platform.ObsScroll, obs.Kind)

	_, ok = q.Pop()
	assert.False(t, ok)
}
