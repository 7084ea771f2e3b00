// internal/eventlog/eventlog.go
package eventlog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// Event is a single advisory record: a poll failure, a recovery, a lock
// timeout, or a configuration correction.
type Event struct {
	At     time.Time
	Kind   string
	Detail string
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    at TEXT NOT NULL,
    kind TEXT NOT NULL,
    detail TEXT
);`

// Log persists advisory events to a SQLite file. Recording never blocks the
// callers on disk I/O: events go through a buffered channel into a writer
// goroutine, and are dropped (with a log line) when the buffer is full.
type Log struct {
	db     *sql.DB
	events chan Event
	log    *slog.Logger
}

// Open creates or opens the event database.
func Open(path string, logger *slog.Logger) (*Log, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open event log: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create events table: %w", err)
	}

	return &Log{
		db:     db,
		events: make(chan Event, 64),
		log:    logger,
	}, nil
}

// Record queues an event. Safe for concurrent use; never blocks.
func (l *Log) Record(kind, detail string) {
	ev := Event{At: time.Now(), Kind: kind, Detail: detail}
	select {
	case l.events <- ev:
	default:
		l.log.Warn("event log buffer full, dropping event", "kind", kind)
	}
}

// Run drains the event channel into the database until the context is
// cancelled, then flushes whatever is still buffered.
func (l *Log) Run(ctx context.Context) {
	for {
		select {
		case ev := <-l.events:
			l.write(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-l.events:
					l.write(ev)
				default:
					return
				}
			}
		}
	}
}

func (l *Log) write(ev Event) {
	_, err := l.db.Exec(
		"INSERT INTO events(at, kind, detail) VALUES(?, ?, ?)",
		ev.At.UTC().Format("2006-01-02 15:04:05.000"), ev.Kind, ev.Detail,
	)
	if err != nil {
		l.log.Error("event log write failed", "error", err)
	}
}

// Recent returns the newest events, most recent first.
func (l *Log) Recent(limit int) ([]Event, error) {
	rows, err := l.db.Query(
		"SELECT at, kind, detail FROM events ORDER BY id DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var at string
		var ev Event
		if err := rows.Scan(&at, &ev.Kind, &ev.Detail); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.At, _ = time.Parse("2006-01-02 15:04:05.000", at)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Close closes the database. Call after Run has returned.
func (l *Log) Close() error {
	return l.db.Close()
}
