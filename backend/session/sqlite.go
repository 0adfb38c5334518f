package session

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"

	"github.com/furisto/agentcore/backend/provider"
)

// SQLiteBackend is the default single-process, restart-surviving Backend,
// against the normative schema of spec.md §4.6:
//
//	sessions(session_id PK, created_at, updated_at)
//	messages(session_id FK, turn_index, role, content_json)  -- PK(session_id, turn_index)
//	usage(session_id FK, input, output, cache_creation, cache_read, updated_at)
type SQLiteBackend struct {
	db *sql.DB
}

// OpenSQLiteBackend opens dsn (a file path, or ":memory:") via
// modernc.org/sqlite and creates the schema if absent.
func OpenSQLiteBackend(dsn string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	_, err := b.db.Exec(`
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS messages (
	session_id TEXT NOT NULL,
	turn_index INTEGER NOT NULL,
	role TEXT NOT NULL,
	content_json TEXT NOT NULL,
	PRIMARY KEY (session_id, turn_index)
);
CREATE TABLE IF NOT EXISTS usage (
	session_id TEXT PRIMARY KEY,
	input INTEGER NOT NULL DEFAULT 0,
	output INTEGER NOT NULL DEFAULT 0,
	cache_creation INTEGER NOT NULL DEFAULT 0,
	cache_read INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL
);
`)
	return err
}

func (b *SQLiteBackend) ensureSession(ctx context.Context, tx *sql.Tx, sessionID string) error {
	now := time.Now()
	_, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (session_id, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET updated_at = excluded.updated_at`,
		sessionID, now, now)
	return err
}

func (b *SQLiteBackend) Load(ctx context.Context, sessionID string) ([]provider.Message, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT role, content_json FROM messages WHERE session_id = ? ORDER BY turn_index ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []provider.Message
	for rows.Next() {
		var role, contentJSON string
		if err := rows.Scan(&role, &contentJSON); err != nil {
			return nil, err
		}
		msg, err := provider.UnmarshalMessage([]byte(contentJSON))
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

func (b *SQLiteBackend) Save(ctx context.Context, sessionID string, messages []provider.Message) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := b.ensureSession(ctx, tx, sessionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	for i, m := range messages {
		data, err := provider.MarshalMessage(m)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (session_id, turn_index, role, content_json) VALUES (?, ?, ?, ?)`,
			sessionID, i, string(m.Role), string(data)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (b *SQLiteBackend) Reset(ctx context.Context, sessionID string) error {
	return b.Save(ctx, sessionID, nil)
}

func (b *SQLiteBackend) ListSessions(ctx context.Context) ([]Summary, error) {
	rows, err := b.db.QueryContext(ctx, `
SELECT s.session_id, s.created_at, s.updated_at, COUNT(m.turn_index)
FROM sessions s LEFT JOIN messages m ON m.session_id = s.session_id
GROUP BY s.session_id, s.created_at, s.updated_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt, &s.MessageCount); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete cascades across sessions, messages and usage in a single
// transaction, per spec.md §4.6.
func (b *SQLiteBackend) Delete(ctx context.Context, sessionID string) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return &NotFoundError{SessionID: sessionID}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM usage WHERE session_id = ?`, sessionID); err != nil {
		return err
	}
	return tx.Commit()
}

func (b *SQLiteBackend) LoadUsage(ctx context.Context, sessionID string) (Usage, error) {
	var u Usage
	err := b.db.QueryRowContext(ctx,
		`SELECT input, output, cache_creation, cache_read FROM usage WHERE session_id = ?`, sessionID).
		Scan(&u.InputTokens, &u.OutputTokens, &u.CacheWriteTokens, &u.CacheReadTokens)
	if err == sql.ErrNoRows {
		return Usage{}, nil
	}
	return u, err
}

func (b *SQLiteBackend) SaveUsage(ctx context.Context, sessionID string, usage Usage) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := b.ensureSession(ctx, tx, sessionID); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, `
INSERT INTO usage (session_id, input, output, cache_creation, cache_read, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(session_id) DO UPDATE SET
	input = excluded.input, output = excluded.output,
	cache_creation = excluded.cache_creation, cache_read = excluded.cache_read,
	updated_at = excluded.updated_at`,
		sessionID, usage.InputTokens, usage.OutputTokens, usage.CacheWriteTokens, usage.CacheReadTokens, time.Now())
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (b *SQLiteBackend) ResetUsage(ctx context.Context, sessionID string) error {
	return b.SaveUsage(ctx, sessionID, Usage{})
}

func (b *SQLiteBackend) Close() error { return b.db.Close() }
