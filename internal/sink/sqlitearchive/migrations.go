package sqlitearchive

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/open-runtime/contextfusion/internal/logger"
)

type migration struct {
	Version int
	Name    string
	SQL     string
}

var migrations = []migration{
	{
		Version: 1,
		Name:    "init_schema_migrations",
		SQL: `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version INTEGER PRIMARY KEY,
    applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`,
	},
	{
		Version: 2,
		Name:    "init_context_events_table",
		SQL: `
CREATE TABLE IF NOT EXISTS context_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid TEXT UNIQUE NOT NULL,
    event_type TEXT NOT NULL,
    timestamp_ms INTEGER NOT NULL,
    app_name TEXT,
    bundle_id TEXT,
    pid INTEGER,
    trigger TEXT,
    confidence REAL,
    to_context JSON NOT NULL,
    from_context JSON,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_context_events_timestamp ON context_events(timestamp_ms);
CREATE INDEX IF NOT EXISTS idx_context_events_type ON context_events(event_type);
CREATE INDEX IF NOT EXISTS idx_context_events_bundle ON context_events(bundle_id);
`,
	},
	{
		Version: 3,
		Name:    "init_clipboard_events_table",
		SQL: `
CREATE TABLE IF NOT EXISTS clipboard_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    uuid TEXT UNIQUE NOT NULL,
    action TEXT NOT NULL,
    content_type TEXT,
    timestamp_ms INTEGER NOT NULL,
    confidence REAL,
    source_app TEXT,
    dest_app TEXT,
    payload JSON NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_clipboard_events_timestamp ON clipboard_events(timestamp_ms);
`,
	},
	{
		Version: 4,
		Name:    "init_url_dwell_table",
		SQL: `
CREATE TABLE IF NOT EXISTS url_dwell (
    url TEXT PRIMARY KEY,
    total_duration_ms INTEGER NOT NULL,
    session_count INTEGER NOT NULL,
    first_seen DATETIME NOT NULL,
    last_seen DATETIME NOT NULL
);
`,
	},
}

func runMigrations(db *sql.DB) error {
	logger.Info("running sqlite archive migrations")

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin migration transaction: %w", err)
	}

	applied := make(map[int]bool)
	rows, _ := tx.Query("SELECT version FROM schema_migrations")
	if rows != nil {
		for rows.Next() {
			var version int
			if err := rows.Scan(&version); err != nil {
				rows.Close()
				tx.Rollback()
				return fmt.Errorf("scan migration version: %w", err)
			}
			applied[version] = true
		}
		rows.Close()
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		logger.Info("applying migration", zap.Int("version", m.Version), zap.String("name", m.Name))
		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration %s: %w", m.Name, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", m.Version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %s: %w", m.Name, err)
		}
	}

	return tx.Commit()
}
