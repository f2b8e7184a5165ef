package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"lyricfetch/internal/logger"
)

// SQLite keeps entries in a local database file.
type SQLite struct {
	db     *sql.DB
	logger *logger.Logger
	now    func() time.Time
}

// NewSQLite opens or creates the database at path and drops expired rows.
func NewSQLite(ctx context.Context, path string, log *logger.Logger) (*SQLite, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	// Single connection: writes are serialised.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS cache (
			key        TEXT PRIMARY KEY,
			value      BLOB NOT NULL,
			expires_at INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache table: %w", err)
	}

	s := &SQLite{db: db, logger: log, now: time.Now}
	if n, err := s.Prune(ctx); err != nil {
		log.Warn("prune failed: %v", err)
	} else if n > 0 {
		log.Debug("pruned %d expired entries", n)
	}
	log.Info("using sqlite cache at %s", path)
	return s, nil
}

func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM cache WHERE key = ? AND expires_at > ?",
		key, s.now().UnixMilli(),
	).Scan(&value)
	if err != nil {
		if err != sql.ErrNoRows {
			s.logger.Debug("get %s: %v", key, err)
		}
		return nil, false
	}
	return value, true
}

func (s *SQLite) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache (key, value, expires_at) VALUES (?, ?, ?)",
		key, value, s.now().Add(ttl).UnixMilli(),
	)
	if err != nil {
		s.logger.Debug("set %s: %v", key, err)
	}
}

// Prune deletes expired entries and reports how many were removed.
func (s *SQLite) Prune(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM cache WHERE expires_at <= ?", s.now().UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
