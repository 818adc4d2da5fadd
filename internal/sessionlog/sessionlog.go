// Package sessionlog records session lifecycle transitions (C16, an
// append-only audit trail) to a SQLite database via modernc.org/sqlite, a
// pure-Go CGo-free driver, so operators can answer "why did session X
// never start playing" after the fact. Never read back by the streaming
// path itself.
package sessionlog

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL,
	event       TEXT NOT NULL,
	stream_path TEXT,
	at_unix     INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_events_session_id ON session_events(session_id);
`

// Log is an append-only store of SessionEvent rows.
type Log struct {
	db *sql.DB
}

// Open opens (creating if necessary) a SQLite database at path and ensures
// the schema exists. Pass ":memory:" for an ephemeral in-process log.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sessionlog: open %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sessionlog: create schema: %w", err)
	}
	return &Log{db: db}, nil
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	return l.db.Close()
}

// LogEvent appends one SessionEvent row. Satisfies
// internal/rtspbridge.EventLogger. Write failures are logged, not
// returned, so a sessionlog outage never blocks the streaming path it is
// merely observing.
func (l *Log) LogEvent(sessionID, event, streamPath string) {
	_, err := l.db.Exec(
		`INSERT INTO session_events (session_id, event, stream_path, at_unix) VALUES (?, ?, ?, ?)`,
		sessionID, event, streamPath, time.Now().Unix(),
	)
	if err != nil {
		log.Printf("sessionlog: insert session_id=%s event=%s: %v", sessionID, event, err)
	}
}

// Event is one row read back by History, for operator tooling.
type Event struct {
	SessionID  string
	Event      string
	StreamPath string
	At         time.Time
}

// History returns every recorded event for sessionID, oldest first.
func (l *Log) History(sessionID string) ([]Event, error) {
	rows, err := l.db.Query(
		`SELECT session_id, event, stream_path, at_unix FROM session_events WHERE session_id = ? ORDER BY id ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("sessionlog: query history for %s: %w", sessionID, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var streamPath sql.NullString
		var atUnix int64
		if err := rows.Scan(&e.SessionID, &e.Event, &streamPath, &atUnix); err != nil {
			return nil, fmt.Errorf("sessionlog: scan row: %w", err)
		}
		e.StreamPath = streamPath.String
		e.At = time.Unix(atUnix, 0)
		events = append(events, e)
	}
	return events, rows.Err()
}
