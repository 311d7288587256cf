package sqlitearchive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

func testConfig(t *testing.T) Config {
	return Config{
		Path:          t.TempDir() + "/archive.db",
		MaxOpenConns:  5,
		MaxIdleConns:  2,
		BatchSize:     50,
		FlushInterval: time.Second,
	}
}

func TestOpen_AppliesMigrations(t *testing.T) {
	db, err := Open(testConfig(t))
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"context_events", "clipboard_events", "url_dwell", "schema_migrations"} {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count, "table %s should exist", table)
	}

	var version int
	require.NoError(t, db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version))
	assert.Equal(t, 4, version)
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	cfg := testConfig(t)

	db1, err := Open(cfg)
	require.NoError(t, err)
	db1.Close()

	db2, err := Open(cfg)
	require.NoError(t, err)
	defer db2.Close()

	var count int
	require.NoError(t, db2.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Equal(t, 4, count)
}

func sampleEvent() contextmodel.ContextEvent {
	return contextmodel.ContextEvent{
		ID:          "evt-1",
		Kind:        contextmodel.EventAppSwitch,
		TimestampMs: 100,
		ToContext: contextmodel.ContextSnapshot{
			App: contextmodel.AppInfo{Name: "Xcode", BundleID: "com.apple.dt.Xcode", PID: 77},
		},
		Confidence: 0.9,
	}
}

func TestSink_DeliverPersistsOnFlush(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 1

	s, err := New(cfg)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Deliver(context.Background(), sampleEvent()))

	require.Eventually(t, func() bool {
		var count int
		_ = s.db.QueryRow("SELECT COUNT(*) FROM context_events").Scan(&count)
		return count == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSink_DeliverClipboardPersistsOnFlush(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 1

	s, err := New(cfg)
	require.NoError(t, err)
	defer s.Close()

	ev := contextmodel.ClipboardEvent{
		ID:          "clip-1",
		Action:      contextmodel.ClipboardCopy,
		ContentType: contextmodel.ClipboardText,
		TimestampMs: 200,
		Confidence:  0.6,
	}
	require.NoError(t, s.DeliverClipboard(context.Background(), ev))

	require.Eventually(t, func() bool {
		var count int
		_ = s.db.QueryRow("SELECT COUNT(*) FROM clipboard_events").Scan(&count)
		return count == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSink_CloseFlushesPendingBuffer(t *testing.T) {
	cfg := testConfig(t)
	cfg.BatchSize = 100
	cfg.FlushInterval = 10 * time.Second

	s, err := New(cfg)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		ev := sampleEvent()
		require.NoError(t, s.Deliver(context.Background(), ev))
	}

	require.NoError(t, s.Close())

	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM context_events").Scan(&count))
	assert.Equal(t, 5, count)
}

func TestBatchWriter_WriteReturnsFalseWhenBufferFull(t *testing.T) {
	cfg := testConfig(t)
	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	repo := newRepository(db)
	bwCfg := BatchWriterConfig{BatchSize: 10, FlushInterval: 10 * time.Second, EventBuffer: 2}
	bw := newBatchWriter(repo, bwCfg)
	bw.Start()
	defer bw.Stop()

	successCount := 0
	for i := 0; i < 10; i++ {
		ev := sampleEvent()
		if bw.Write(record{contextEvent: &ev}) {
			successCount++
		}
	}

	assert.Greater(t, successCount, 0)
	assert.Less(t, successCount, 10)
}

func TestRepository_SaveBatchMixedRecords(t *testing.T) {
	cfg := testConfig(t)
	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	repo := newRepository(db)
	ctxEv := sampleEvent()
	cbEv := contextmodel.ClipboardEvent{
		ID:          "clip-2",
		Action:      contextmodel.ClipboardPaste,
		ContentType: contextmodel.ClipboardText,
		TimestampMs: 300,
	}

	err = repo.saveBatch([]record{
		{contextEvent: &ctxEv},
		{clipboardEvent: &cbEv},
	})
	require.NoError(t, err)

	var ctxCount, cbCount int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM context_events").Scan(&ctxCount))
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM clipboard_events").Scan(&cbCount))
	assert.Equal(t, 1, ctxCount)
	assert.Equal(t, 1, cbCount)
}

func TestRepository_SaveBatchEmptyIsNoop(t *testing.T) {
	cfg := testConfig(t)
	db, err := Open(cfg)
	require.NoError(t, err)
	defer db.Close()

	repo := newRepository(db)
	require.NoError(t, repo.saveBatch(nil))
}
