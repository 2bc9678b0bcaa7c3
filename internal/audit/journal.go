package audit

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Journal persists audit events to SQLite so trails survive the process.
// The CLI's trail command reads it back after a run.
type Journal struct {
	db *sql.DB
}

const journalSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	ts         TEXT NOT NULL,
	task_id    TEXT NOT NULL,
	event_type TEXT NOT NULL,
	phase      TEXT NOT NULL DEFAULT '',
	driver     TEXT NOT NULL DEFAULT '',
	attempt    INTEGER NOT NULL DEFAULT 0,
	error      TEXT NOT NULL DEFAULT '',
	path       TEXT NOT NULL DEFAULT '',
	label      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_audit_events_task ON audit_events(task_id, id);
`

// OpenJournal opens (and if needed creates) the journal database.
func OpenJournal(path string) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// SQLite permits one writer; events from concurrent batch tasks must
	// queue rather than fail.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(journalSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Append writes one event.
func (j *Journal) Append(ev Event) error {
	_, err := j.db.Exec(
		`INSERT INTO audit_events (ts, task_id, event_type, phase, driver, attempt, error, path, label)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.Timestamp.UTC().Format(time.RFC3339Nano),
		ev.TaskID, string(ev.Type), ev.Phase, ev.Driver, ev.Attempt, ev.Error, ev.Path, ev.Label,
	)
	return err
}

// Trail reads back the ordered event list for a task. An unknown task yields
// an empty trail.
func (j *Journal) Trail(taskID string) (Trail, error) {
	rows, err := j.db.Query(
		`SELECT ts, task_id, event_type, phase, driver, attempt, error, path, label
		 FROM audit_events WHERE task_id = ? ORDER BY id`, taskID)
	if err != nil {
		return Trail{}, fmt.Errorf("query trail: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var ts, typ string
		if err := rows.Scan(&ts, &ev.TaskID, &typ, &ev.Phase, &ev.Driver, &ev.Attempt, &ev.Error, &ev.Path, &ev.Label); err != nil {
			return Trail{}, fmt.Errorf("scan event: %w", err)
		}
		ev.Type = EventType(typ)
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			ev.Timestamp = t
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return Trail{}, err
	}
	return Trail{TaskID: taskID, Events: events, Summary: Summarize(events)}, nil
}

// Tasks lists distinct task IDs in first-seen order.
func (j *Journal) Tasks() ([]string, error) {
	rows, err := j.db.Query(`SELECT task_id FROM audit_events GROUP BY task_id ORDER BY MIN(id)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
