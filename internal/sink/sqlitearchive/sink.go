package sqlitearchive

import (
	"context"
	"database/sql"

	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// Sink is the sqlitearchive sink.Sink implementation: it hands incoming
// events to a batchWriter and never blocks the Fusion Hub's goroutine.
type Sink struct {
	db *sql.DB
	bw *batchWriter
}

// New opens the archive database at cfg.Path, applies migrations, and
// starts the batch writer. Callers must call Close when done.
func New(cfg Config) (*Sink, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	bwCfg := DefaultBatchWriterConfig()
	if cfg.BatchSize > 0 {
		bwCfg.BatchSize = cfg.BatchSize
	}
	if cfg.FlushInterval > 0 {
		bwCfg.FlushInterval = cfg.FlushInterval
	}

	bw := newBatchWriter(newRepository(db), bwCfg)
	bw.Start()

	return &Sink{db: db, bw: bw}, nil
}

func (s *Sink) Name() string { return "sqlitearchive" }

func (s *Sink) Deliver(_ context.Context, ev contextmodel.ContextEvent) error {
	evCopy := ev
	s.bw.Write(record{contextEvent: &evCopy})
	return nil
}

func (s *Sink) DeliverClipboard(_ context.Context, ev contextmodel.ClipboardEvent) error {
	evCopy := ev
	s.bw.Write(record{clipboardEvent: &evCopy})
	return nil
}

// Close flushes any buffered events and closes the underlying database.
func (s *Sink) Close() error {
	s.bw.Stop()
	return s.db.Close()
}
