package cache

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLite stores entries in the cache_entries table. Expired rows read as
// misses and are deleted on access.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, now: time.Now}
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value     []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM cache_entries WHERE cache_key = ?`, key).
		Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if s.now().UnixNano() >= expiresAt {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE cache_key = ? AND expires_at = ?`, key, expiresAt); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return value, true, nil
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `INSERT INTO cache_entries (cache_key, value, expires_at) VALUES (?, ?, ?)
			  ON CONFLICT(cache_key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`
	_, err := s.db.ExecContext(ctx, query, key, value, s.now().Add(ttl).UnixNano())
	return err
}

// Purge deletes every expired entry and returns how many were removed.
func (s *SQLite) Purge(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= ?`, s.now().UnixNano())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
