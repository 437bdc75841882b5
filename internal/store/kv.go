package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Session-scoped keys. Names follow the browser client's cookie/localStorage keys.
const (
	KeyToken     = "jwt_token"
	KeyRole      = "role"
	KeyUserID    = "user_id"
	KeyUserName  = "customer_name"
	KeyProjectID = "project_id"
	KeyJoinCode  = "join_code"

	// KeyResetPending marks a session that must replace its password first.
	KeyResetPending = "password_reset"
)

// KV is a small expiring key/value table in SQLite. A zero ttl means "no expiry".
type KV struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (creating if needed) the session database at path.
func Open(ctx context.Context, path string) (*KV, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("store: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL + busy_timeout: the TUI and one-off CLI commands may share the file.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS kv (
		k TEXT PRIMARY KEY,
		v TEXT NOT NULL,
		expires_at_unixms INTEGER NOT NULL
	);`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &KV{db: db, now: time.Now}, nil
}

func (s *KV) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SetClock overrides the time source (tests).
func (s *KV) SetClock(now func() time.Time) { s.now = now }

func (s *KV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	var exp int64
	if ttl > 0 {
		exp = s.now().Add(ttl).UnixMilli()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO kv(k, v, expires_at_unixms) VALUES(?, ?, ?)`,
		key, value, exp)
	return err
}

// Get returns the value for key. Expired rows read as absent and are removed.
func (s *KV) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	var exp int64
	err := s.db.QueryRowContext(ctx, `SELECT v, expires_at_unixms FROM kv WHERE k = ?`, key).Scan(&v, &exp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	if exp > 0 && s.now().UnixMilli() >= exp {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, key)
		return "", false, nil
	}
	return v, true, nil
}

func (s *KV) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?`, k); err != nil {
			return err
		}
	}
	return nil
}

func (s *KV) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv`)
	return err
}
