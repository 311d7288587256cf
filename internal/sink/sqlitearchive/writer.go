package sqlitearchive

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/open-runtime/contextfusion/internal/logger"
	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// BatchWriterConfig controls how often the archive flushes to disk.
type BatchWriterConfig struct {
	BatchSize     int
	FlushInterval time.Duration
	EventBuffer   int
}

func DefaultBatchWriterConfig() BatchWriterConfig {
	return BatchWriterConfig{
		BatchSize:     50,
		FlushInterval: 1 * time.Second,
		EventBuffer:   1000,
	}
}

type record struct {
	contextEvent   *contextmodel.ContextEvent
	clipboardEvent *contextmodel.ClipboardEvent
}

// batchWriter buffers events and flushes them to SQLite in batches,
// adapted from the teacher's storage.BatchWriter to the two event shapes
// this sink archives.
type batchWriter struct {
	repo   *repository
	config BatchWriterConfig

	eventChan chan record
	buffer    []record

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
}

func newBatchWriter(repo *repository, config BatchWriterConfig) *batchWriter {
	ctx, cancel := context.WithCancel(context.Background())
	return &batchWriter{
		repo:      repo,
		config:    config,
		eventChan: make(chan record, config.EventBuffer),
		buffer:    make([]record, 0, config.BatchSize),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (bw *batchWriter) Start() {
	bw.mu.Lock()
	defer bw.mu.Unlock()
	if bw.started {
		return
	}
	bw.started = true

	bw.wg.Add(2)
	go bw.processEvents()
	go bw.flushLoop()

	logger.Info("sqlite archive batch writer started",
		zap.Int("batch_size", bw.config.BatchSize),
		zap.Duration("flush_interval", bw.config.FlushInterval))
}

func (bw *batchWriter) Stop() {
	bw.mu.Lock()
	if !bw.started {
		bw.mu.Unlock()
		return
	}
	bw.started = false
	bw.mu.Unlock()

	close(bw.eventChan)
	bw.cancel()
	bw.wg.Wait()

	bw.mu.Lock()
	for r := range bw.eventChan {
		bw.buffer = append(bw.buffer, r)
	}
	bw.flush()
	bw.mu.Unlock()

	logger.Info("sqlite archive batch writer stopped")
}

// Write is non-blocking: a full buffer drops the event and logs a warning,
// matching the Sink Fan-out's never-block-the-Hub contract.
func (bw *batchWriter) Write(r record) bool {
	select {
	case bw.eventChan <- r:
		return true
	default:
		logger.Warn("sqlite archive buffer full, event dropped")
		return false
	}
}

func (bw *batchWriter) processEvents() {
	defer bw.wg.Done()
	for {
		select {
		case <-bw.ctx.Done():
			return
		case r, ok := <-bw.eventChan:
			if !ok {
				return
			}
			bw.mu.Lock()
			bw.buffer = append(bw.buffer, r)
			if len(bw.buffer) >= bw.config.BatchSize {
				bw.flush()
			}
			bw.mu.Unlock()
		}
	}
}

func (bw *batchWriter) flushLoop() {
	defer bw.wg.Done()
	ticker := time.NewTicker(bw.config.FlushInterval)
	defer ticker.Stop()
	for {
		select {
		case <-bw.ctx.Done():
			return
		case <-ticker.C:
			bw.mu.Lock()
			bw.flush()
			bw.mu.Unlock()
		}
	}
}

// flush must be called with bw.mu held.
func (bw *batchWriter) flush() {
	if len(bw.buffer) == 0 {
		return
	}

	start := time.Now()
	count := len(bw.buffer)

	if err := bw.repo.saveBatch(bw.buffer); err != nil {
		logger.Error("sqlite archive batch flush failed", zap.Int("count", count), zap.Error(err))
		bw.buffer = bw.buffer[:0]
		return
	}

	bw.buffer = bw.buffer[:0]
	logger.Debug("sqlite archive batch flushed", zap.Int("count", count), zap.Duration("duration", time.Since(start)))
}

func marshalSnapshot(snap *contextmodel.ContextSnapshot) ([]byte, error) {
	if snap == nil {
		return nil, nil
	}
	return json.Marshal(snap)
}
