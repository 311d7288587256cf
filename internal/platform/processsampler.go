package platform

import (
	"context"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/open-runtime/contextfusion/internal/logger"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// ProcessSampler refreshes per-pid CPU% and RSS on a fixed cadence (A.7).
// It samples only pids the caller is tracking (typically the set of
// currently-running apps the State Store knows about); Track/Untrack let the
// owner keep that set current as apps launch and terminate without the
// sampler needing its own notion of app lifecycle.
type ProcessSampler struct {
	Interval time.Duration

	mu      sync.Mutex
	tracked map[int32]bool
	cancel  context.CancelFunc
	out     chan Observation
	active  bool
}

func NewProcessSampler() *ProcessSampler {
	return &ProcessSampler{Interval: 5 * time.Second, tracked: make(map[int32]bool)}
}

func (a *ProcessSampler) Name() string { return AdapterProcessSampler }

func (a *ProcessSampler) Track(pid int32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tracked[pid] = true
}

func (a *ProcessSampler) Untrack(pid int32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.tracked, pid)
}

func (a *ProcessSampler) Start(ctx context.Context) (<-chan Observation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.out = make(chan Observation, 64)
	a.active = true

	go a.pollLoop(runCtx)
	logger.Info("process sampler started", zap.Duration("interval", a.Interval))
	return a.out, nil
}

func (a *ProcessSampler) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(a.Interval)
	defer ticker.Stop()
	defer close(a.out)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.sampleAll()
		}
	}
}

func (a *ProcessSampler) sampleAll() {
	a.mu.Lock()
	pids := make([]int32, 0, len(a.tracked))
	for pid := range a.tracked {
		pids = append(pids, pid)
	}
	a.mu.Unlock()

	now := time.Now()
	for _, pid := range pids {
		proc, err := process.NewProcess(pid)
		if err != nil {
			// Process has exited since it was tracked; caller will Untrack
			// on the next terminate observation.
			continue
		}

		cpuPct, err := proc.CPUPercent()
		if err != nil {
			continue
		}
		memInfo, err := proc.MemoryInfo()
		if err != nil || memInfo == nil {
			continue
		}

		sample := &contextmodel.ProcessSample{
			PID:         pid,
			CPUPercent:  cpuPct,
			RSSBytes:    memInfo.RSS,
			TimestampMs: now.UnixMilli(),
		}

		a.deliver(sample, now)
	}
}

func (a *ProcessSampler) deliver(sample *contextmodel.ProcessSample, now time.Time) {
	a.mu.Lock()
	out, active := a.out, a.active
	a.mu.Unlock()
	if !active {
		return
	}

	select {
	case out <- Observation{Kind: ObsProcessSample, PID: sample.PID, Timestamp: now, Sample: sample}:
	default:
		logger.Warn("process sample dropped, consumer too slow")
	}
}

func (a *ProcessSampler) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.active {
		return nil
	}
	a.cancel()
	a.active = false
	return nil
}
