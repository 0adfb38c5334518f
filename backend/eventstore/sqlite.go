package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the durable EventStore backend: a single events table
// keyed (stream_id, id), with id assigned by MAX(id)+1 inside a
// per-stream transaction so appends stay monotonic under concurrent
// writers to different streams, and a reader observing `completed` never
// sees a later append to that stream (status is updated in the same
// transaction family as the last append it follows).
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS events (
	stream_id TEXT NOT NULL,
	id INTEGER NOT NULL,
	kind TEXT NOT NULL,
	data TEXT NOT NULL,
	ts TIMESTAMP NOT NULL,
	PRIMARY KEY (stream_id, id)
);
CREATE TABLE IF NOT EXISTS stream_status (
	stream_id TEXT PRIMARY KEY,
	status TEXT NOT NULL
);
`)
	return err
}

func (s *SQLiteStore) Append(ctx context.Context, streamID string, kind Kind, data json.RawMessage) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM stream_status WHERE stream_id = ?`, streamID).Scan(&status)
	if err != nil && err != sql.ErrNoRows {
		return 0, err
	}
	if status == string(StatusCompleted) {
		return 0, fmt.Errorf("eventstore: append to completed stream %q", streamID)
	}

	var maxID sql.NullInt64
	if err := tx.QueryRowContext(ctx, `SELECT MAX(id) FROM events WHERE stream_id = ?`, streamID).Scan(&maxID); err != nil {
		return 0, err
	}
	id := maxID.Int64 + 1

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO events (stream_id, id, kind, data, ts) VALUES (?, ?, ?, ?, ?)`,
		streamID, id, string(kind), string(data), time.Now()); err != nil {
		return 0, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO stream_status (stream_id, status) VALUES (?, ?)
		 ON CONFLICT(stream_id) DO UPDATE SET status = excluded.status WHERE stream_status.status = ?`,
		streamID, string(StatusGenerating), string(StatusGenerating)); err != nil {
		return 0, err
	}

	return id, tx.Commit()
}

func (s *SQLiteStore) Read(ctx context.Context, streamID string, afterID int64) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, data, ts FROM events WHERE stream_id = ? AND id > ? ORDER BY id ASC`,
		streamID, afterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var e Event
		var kind, data string
		if err := rows.Scan(&e.ID, &kind, &data, &e.Ts); err != nil {
			return nil, err
		}
		e.StreamID = streamID
		e.Kind = Kind(kind)
		e.Data = json.RawMessage(data)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Status(ctx context.Context, streamID string) (Status, error) {
	var status string
	err := s.db.QueryRowContext(ctx, `SELECT status FROM stream_status WHERE stream_id = ?`, streamID).Scan(&status)
	if err == sql.ErrNoRows {
		return StatusAbsent, nil
	}
	if err != nil {
		return "", err
	}
	return Status(status), nil
}

func (s *SQLiteStore) setStatus(ctx context.Context, streamID string, status Status) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stream_status (stream_id, status) VALUES (?, ?)
		 ON CONFLICT(stream_id) DO UPDATE SET status = excluded.status`,
		streamID, string(status))
	return err
}

func (s *SQLiteStore) MarkCompleted(ctx context.Context, streamID string) error {
	return s.setStatus(ctx, streamID, StatusCompleted)
}

func (s *SQLiteStore) MarkFailed(ctx context.Context, streamID string) error {
	return s.setStatus(ctx, streamID, StatusFailed)
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
