// Package sqlite implements db.Store on an embedded SQLite database (modernc.org/sqlite, no cgo).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/kailas-cloud/civica/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER
);
CREATE TABLE IF NOT EXISTS hash (
	key   TEXT NOT NULL,
	field TEXT NOT NULL,
	value TEXT NOT NULL,
	PRIMARY KEY (key, field)
);
`

// Config holds SQLite connection parameters.
type Config struct {
	// Path is the database file; ":memory:" keeps everything in process.
	Path string
}

// Store implements db.Store with two tables: kv for strings and counters, hash for hashes.
// expires_at holds unix milliseconds; NULL means no expiry.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// NewStore opens (or creates) the database and applies the schema.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	conn, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
	}
	// SQLite serializes writers; a single connection also keeps ":memory:" coherent.
	conn.SetMaxOpenConns(1)

	if _, err := conn.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sqlite pragma: %w", err)
	}
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	return &Store{db: conn, now: time.Now}, nil
}

// WithClock overrides the time source (tests).
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) nowMs() int64 { return s.now().UnixMilli() }

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() {
	_ = s.db.Close()
}

// WaitForReady pings once; an embedded database is ready as soon as it opens.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		return fmt.Errorf("sqlite not ready: %w", err)
	}
	return nil
}

// purge drops key from kv if it has expired.
func (s *Store) purge(ctx context.Context, q querier, key string) error {
	_, err := q.ExecContext(ctx,
		`DELETE FROM kv WHERE key = ? AND expires_at IS NOT NULL AND expires_at <= ?`, key, s.nowMs())
	return err
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isKV reports whether a live kv row exists for key.
func (s *Store) isKV(ctx context.Context, q querier, key string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM kv WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`,
		key, s.nowMs()).Scan(&n)
	return n > 0, err
}

// isHash reports whether key holds a hash.
func (s *Store) isHash(ctx context.Context, q querier, key string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM hash WHERE key = ?`, key).Scan(&n)
	return n > 0, err
}

// HSet sets hash fields.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	err := s.tx(ctx, func(tx *sql.Tx) error {
		if err := s.purge(ctx, tx, key); err != nil {
			return err
		}
		if kv, err := s.isKV(ctx, tx, key); err != nil {
			return err
		} else if kv {
			return db.ErrWrongType
		}
		for f, v := range fields {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO hash (key, field, value) VALUES (?, ?, ?)
				 ON CONFLICT (key, field) DO UPDATE SET value = excluded.value`, key, f, v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// HGetAll returns all fields of a hash. A missing key yields ErrKeyNotFound.
func (s *Store) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT field, value FROM hash WHERE key = ?`, key)
	if err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]string)
	for rows.Next() {
		var f, v string
		if err := rows.Scan(&f, &v); err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Err: err}
		}
		out[f] = v
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpHGetAll, Err: err}
	}
	if len(out) == 0 {
		kv, err := s.isKV(ctx, s.db, key)
		if err != nil {
			return nil, &db.Error{Op: db.OpHGetAll, Err: err}
		}
		if kv {
			return nil, &db.Error{Op: db.OpHGetAll, Err: db.ErrWrongType}
		}
		return nil, db.ErrKeyNotFound
	}
	return out, nil
}

// Del deletes a key of any kind.
func (s *Store) Del(ctx context.Context, key string) error {
	err := s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `DELETE FROM hash WHERE key = ?`, key)
		return err
	})
	if err != nil {
		return &db.Error{Op: db.OpDel, Err: err}
	}
	return nil
}

// Exists checks if a key exists.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	kv, err := s.isKV(ctx, s.db, key)
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	if kv {
		return true, nil
	}
	h, err := s.isHash(ctx, s.db, key)
	if err != nil {
		return false, &db.Error{Op: db.OpExists, Err: err}
	}
	return h, nil
}

// Scan returns the keys matching a glob pattern (SQLite GLOB syntax matches Redis MATCH for * ? and []).
func (s *Store) Scan(ctx context.Context, pattern string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM kv WHERE key GLOB ? AND (expires_at IS NULL OR expires_at > ?)
		UNION
		SELECT DISTINCT key FROM hash WHERE key GLOB ?
		ORDER BY key`, pattern, s.nowMs(), pattern)
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	defer func() { _ = rows.Close() }()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: err}
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: err}
	}
	return keys, nil
}

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`,
		key, s.nowMs()).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		h, herr := s.isHash(ctx, s.db, key)
		if herr != nil {
			return nil, &db.Error{Op: db.OpGet, Err: herr}
		}
		if h {
			return nil, &db.Error{Op: db.OpGet, Err: db.ErrWrongType}
		}
		return nil, db.ErrKeyNotFound
	}
	if err != nil {
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return value, nil
}

// Set stores a value at the given key and clears any TTL.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.put(ctx, key, value, sql.NullInt64{})
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.put(ctx, key, value, sql.NullInt64{Int64: s.now().Add(ttl).UnixMilli(), Valid: true})
}

func (s *Store) put(ctx context.Context, key string, value []byte, expiresAt sql.NullInt64) error {
	err := s.tx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM hash WHERE key = ?`, key); err != nil {
			return err
		}
		if value == nil {
			value = []byte{}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
			 ON CONFLICT (key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
			key, value, expiresAt)
		return err
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// IncrBy atomically increments a key by the given amount, keeping its TTL.
func (s *Store) IncrBy(ctx context.Context, key string, val int64) error {
	err := s.tx(ctx, func(tx *sql.Tx) error {
		if err := s.purge(ctx, tx, key); err != nil {
			return err
		}
		if h, err := s.isHash(ctx, tx, key); err != nil {
			return err
		} else if h {
			return db.ErrWrongType
		}

		var raw []byte
		err := tx.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&raw)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx, `INSERT INTO kv (key, value) VALUES (?, ?)`,
				key, []byte(strconv.FormatInt(val, 10)))
			return err
		case err != nil:
			return err
		}

		cur, perr := strconv.ParseInt(string(raw), 10, 64)
		if perr != nil {
			return db.ErrNotInteger
		}
		_, err = tx.ExecContext(ctx, `UPDATE kv SET value = ? WHERE key = ?`,
			[]byte(strconv.FormatInt(cur+val, 10)), key)
		return err
	})
	if err != nil {
		return &db.Error{Op: db.OpIncrBy, Err: err}
	}
	return nil
}

// Expire sets TTL on a string key. When nx=true, sets TTL only if the key has no expiry yet.
// Hash keys never expire in this driver.
func (s *Store) Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error {
	q := `UPDATE kv SET expires_at = ? WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`
	if nx {
		q = `UPDATE kv SET expires_at = ? WHERE key = ? AND expires_at IS NULL`
	}
	args := []any{s.now().Add(ttl).UnixMilli(), key}
	if !nx {
		args = append(args, s.nowMs())
	}
	if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	return nil
}

// TTL returns the remaining time to live of a key.
func (s *Store) TTL(ctx context.Context, key string) (time.Duration, error) {
	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT expires_at FROM kv WHERE key = ? AND (expires_at IS NULL OR expires_at > ?)`,
		key, s.nowMs()).Scan(&expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		h, herr := s.isHash(ctx, s.db, key)
		if herr != nil {
			return 0, &db.Error{Op: db.OpTTL, Err: herr}
		}
		if h {
			return db.NoExpiry, nil
		}
		return 0, db.ErrKeyNotFound
	}
	if err != nil {
		return 0, &db.Error{Op: db.OpTTL, Err: err}
	}
	if !expiresAt.Valid {
		return db.NoExpiry, nil
	}
	return time.Duration(expiresAt.Int64-s.nowMs()) * time.Millisecond, nil
}

func (s *Store) tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
