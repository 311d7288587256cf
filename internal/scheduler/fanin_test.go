package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-runtime/contextfusion/internal/platform"
)

func TestFanIn_MergesMultipleSources(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := NewFanIn(16)

	chA := make(chan platform.Observation, 1)
	chB := make(chan platform.Observation, 1)
	f.Attach(ctx, chA)
	f.Attach(ctx, chB)

	go f.Run()

	chA <- obsOf(platform.ObsMouseClick, 1)
	chB <- obsOf(platform.ObsScroll, 2)
	close(chA)
	close(chB)

	seen := map[platform.ObservationKind]bool{}
	for i := 0; i < 2; i++ {
		select {
		case obs, ok := <-f.Out():
			require.True(t, ok)
			seen[obs.Kind] = true
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for merged observation")
		}
	}

	assert.True(t, seen[platform.ObsMouseClick])
	assert.True(t, seen[platform.ObsScroll])
}

func TestFanIn_ClosesOutputWhenAllSourcesClose(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	f := NewFanIn(16)
	ch := make(chan platform.Observation)
	f.Attach(ctx, ch)

	go f.Run()
	close(ch)

	select {
	case _, ok := <-f.Out():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("output channel did not close")
	}
}
