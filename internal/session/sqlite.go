package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists sessions in a local SQLite file so logins survive a
// restart of a single-node deployment without Redis.
type SQLiteStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

func NewSQLiteStore(path string, ttl time.Duration) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open session database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to session database: %w", err)
	}

	const schema = `CREATE TABLE IF NOT EXISTS sessions (
		sid TEXT NOT NULL,
		key TEXT NOT NULL,
		value TEXT NOT NULL,
		expires_at INTEGER NOT NULL,
		PRIMARY KEY (sid, key)
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create sessions table: %w", err)
	}

	return &SQLiteStore{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, sid, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM sessions WHERE sid = ? AND key = ? AND (expires_at = 0 OR expires_at > ?)`,
		sid, key, s.now().Unix(),
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("select session value: %w", err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, sid, key, value string) error {
	var expiresAt int64
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl).Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (sid, key, value, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(sid, key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		sid, key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert session value: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, sid string, keys ...string) error {
	for _, k := range keys {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE sid = ? AND key = ?`, sid, k); err != nil {
			return fmt.Errorf("delete session value: %w", err)
		}
	}
	return nil
}

// Purge removes expired rows.
func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at != 0 AND expires_at <= ?`, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
