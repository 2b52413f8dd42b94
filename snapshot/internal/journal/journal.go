// CLAUDE:SUMMARY Async SQLite journal of captures per session for agent forensics.
// Package journal persists a per-capture audit trail to SQLite: which session
// captured, under which action label, how large the canonical text was, and
// whether it changed. Writes are asynchronous and drop on backpressure; the
// journal is an aid, never a bottleneck for the capture path.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Schema for the captures table.
const Schema = `
CREATE TABLE IF NOT EXISTS captures (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	label TEXT NOT NULL,
	bytes INTEGER NOT NULL,
	changed INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_captures_session ON captures(session_id, created_at);
`

// Production-safe pragmas, applied via EXEC so they work with any driver.
var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// Entry is one journal row. ID and CreatedAt are filled in by Record when
// empty.
type Entry struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	Seq       int    `json:"seq"`
	Label     string `json:"label"`
	Bytes     int    `json:"bytes"`
	Changed   bool   `json:"changed"`
	CreatedAt int64  `json:"created_at"` // epoch milliseconds
}

// Journal writes capture entries to SQLite asynchronously. One Journal is
// shared by all sessions of a daemon; it is safe for concurrent use.
type Journal struct {
	db     *sql.DB
	ch     chan *Entry
	done   chan struct{}
	once   sync.Once
	logger *slog.Logger
}

// Open opens (creating if needed) the journal database at path. The caller
// is expected to have imported an SQLite driver registered as "sqlite".
func Open(path string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal: %s: %w", p, err)
		}
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}

	j := &Journal{
		db:     db,
		ch:     make(chan *Entry, 1024),
		done:   make(chan struct{}),
		logger: logger,
	}
	go j.flushLoop()
	return j, nil
}

// Record queues an entry for persistence. Non-blocking; drops the entry if
// the buffer is full rather than stalling a capture.
func (j *Journal) Record(e *Entry) {
	if e.ID == "" {
		e.ID = uuid.Must(uuid.NewV7()).String()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().UnixMilli()
	}
	select {
	case j.ch <- e:
	default:
		j.logger.Warn("journal: buffer full, entry dropped", "session_id", e.SessionID)
	}
}

// Recent returns the most recent entries for a session, newest first.
func (j *Journal) Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, session_id, seq, label, bytes, changed, created_at
		 FROM captures WHERE session_id = ?
		 ORDER BY created_at DESC LIMIT ?`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var changed int
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Seq, &e.Label, &e.Bytes, &changed, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan: %w", err)
		}
		e.Changed = changed != 0
		out = append(out, e)
	}
	return out, rows.Err()
}

// Close drains pending entries and closes the database. Safe to call once.
func (j *Journal) Close() error {
	j.once.Do(func() {
		close(j.ch)
		<-j.done
	})
	return j.db.Close()
}

func (j *Journal) flushLoop() {
	defer close(j.done)

	for e := range j.ch {
		changed := 0
		if e.Changed {
			changed = 1
		}
		_, err := j.db.Exec(
			`INSERT INTO captures (id, session_id, seq, label, bytes, changed, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.SessionID, e.Seq, e.Label, e.Bytes, changed, e.CreatedAt)
		if err != nil {
			j.logger.Error("journal: insert failed", "error", err)
		}
	}
}
