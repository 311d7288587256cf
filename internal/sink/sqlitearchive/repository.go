package sqlitearchive

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/open-runtime/contextfusion/pkg/contextmodel"
)

// repository is the SQLite persistence layer, adapted from the teacher's
// SQLiteEventRepository to the ContextEvent/ClipboardEvent shapes.
type repository struct {
	db *sql.DB
}

func newRepository(db *sql.DB) *repository {
	return &repository{db: db}
}

func (r *repository) saveBatch(records []record) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	ctxStmt, err := tx.Prepare(`
		INSERT INTO context_events (uuid, event_type, timestamp_ms, app_name, bundle_id, pid, trigger, confidence, to_context, from_context)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare context_events insert: %w", err)
	}
	defer ctxStmt.Close()

	cbStmt, err := tx.Prepare(`
		INSERT INTO clipboard_events (uuid, action, content_type, timestamp_ms, confidence, source_app, dest_app, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare clipboard_events insert: %w", err)
	}
	defer cbStmt.Close()

	for _, rec := range records {
		switch {
		case rec.contextEvent != nil:
			if err := insertContextEvent(ctxStmt, rec.contextEvent); err != nil {
				return err
			}
		case rec.clipboardEvent != nil:
			if err := insertClipboardEvent(cbStmt, rec.clipboardEvent); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

func insertContextEvent(stmt *sql.Stmt, ev *contextmodel.ContextEvent) error {
	toJSON, err := marshalSnapshot(&ev.ToContext)
	if err != nil {
		return fmt.Errorf("marshal to_context: %w", err)
	}
	fromJSON, err := marshalSnapshot(ev.FromContext)
	if err != nil {
		return fmt.Errorf("marshal from_context: %w", err)
	}

	id := ev.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err = stmt.Exec(
		id, string(ev.Kind), ev.TimestampMs,
		ev.ToContext.App.Name, ev.ToContext.App.BundleID, ev.ToContext.App.PID,
		ev.Trigger, ev.Confidence, string(toJSON), nullableString(fromJSON),
	)
	if err != nil {
		return fmt.Errorf("insert context_event: %w", err)
	}
	return nil
}

func insertClipboardEvent(stmt *sql.Stmt, ev *contextmodel.ClipboardEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal clipboard payload: %w", err)
	}

	id := ev.ID
	if id == "" {
		id = uuid.NewString()
	}

	var sourceApp, destApp string
	if ev.SourceContext != nil {
		sourceApp = ev.SourceContext.App.Name
	}
	if ev.DestContext != nil {
		destApp = ev.DestContext.App.Name
	}

	_, err = stmt.Exec(id, string(ev.Action), string(ev.ContentType), ev.TimestampMs, ev.Confidence, sourceApp, destApp, string(payload))
	if err != nil {
		return fmt.Errorf("insert clipboard_event: %w", err)
	}
	return nil
}

func nullableString(b []byte) interface{} {
	if b == nil {
		return nil
	}
	return string(b)
}

// upsertDwell writes one URL's running dwell totals to the url_dwell table
// directly (not batched), overwriting any earlier totals for that URL.
// Nothing in this package calls it, so the sink does not write url_dwell.
func (r *repository) upsertDwell(rec contextmodel.UrlDwellRecord) error {
	_, err := r.db.Exec(`
		INSERT INTO url_dwell (url, total_duration_ms, session_count, first_seen, last_seen)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(url) DO UPDATE SET
			total_duration_ms = excluded.total_duration_ms,
			session_count = excluded.session_count,
			last_seen = excluded.last_seen
	`, rec.URL, rec.TotalDuration.Milliseconds(), rec.SessionCount, rec.FirstSeen, rec.LastSeen)
	if err != nil {
		return fmt.Errorf("upsert url_dwell: %w", err)
	}
	return nil
}
