// Package sqlitearchive is an optional durable sink (spec §4.F domain
// enrichment): it batches ContextEvent/ClipboardEvent values into SQLite.
// The core engine itself never persists (§1 Non-goals); this package is how
// a consumer opts into history beyond the in-memory ring the State Store
// keeps.
package sqlitearchive

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/open-runtime/contextfusion/internal/logger"
)

// Config configures the archive's SQLite connection pool.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	BatchSize       int
	FlushInterval   time.Duration
}

// Open opens (creating if necessary) the SQLite database at cfg.Path in
// WAL mode and applies the schema migrations.
func Open(cfg Config) (*sql.DB, error) {
	logger.Info("opening sqlite archive", zap.String("path", cfg.Path))

	dataSourceName := cfg.Path
	if cfg.Path == ":memory:" {
		dataSourceName = "file::memory:?mode=memory&cache=shared"
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("open sqlite archive: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.Path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
		if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set synchronous mode: %w", err)
		}
		if _, err := db.Exec("PRAGMA cache_size=10000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set cache size: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite archive: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite archive: %w", err)
	}

	logger.Info("sqlite archive ready")
	return db, nil
}
