//go:build !mips64 && !mips64le && !ppc64 && !s390x

package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO required)
)

const schema = `
CREATE TABLE IF NOT EXISTS cookies (
    name TEXT NOT NULL,
    domain TEXT NOT NULL DEFAULT '',
    path TEXT NOT NULL DEFAULT '/',
    value TEXT NOT NULL,
    expires INTEGER NOT NULL DEFAULT 0,
    secure INTEGER NOT NULL DEFAULT 0,
    http_only INTEGER NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (name, domain, path)
);
`

// SQLiteStore implements Store using SQLite with WAL mode.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens or creates the cookie database at path.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Load returns every saved cookie.
func (s *SQLiteStore) Load() ([]Cookie, error) {
	rows, err := s.db.Query(`
		SELECT name, domain, path, value, expires, secure, http_only
		FROM cookies ORDER BY domain, path, name`)
	if err != nil {
		return nil, fmt.Errorf("query cookies: %w", err)
	}
	defer rows.Close()

	var out []Cookie
	for rows.Next() {
		var (
			c        Cookie
			expires  int64
			secure   int
			httpOnly int
		)
		if err := rows.Scan(&c.Name, &c.Domain, &c.Path, &c.Value, &expires, &secure, &httpOnly); err != nil {
			return nil, fmt.Errorf("scan cookie: %w", err)
		}
		if expires > 0 {
			c.Expires = time.Unix(expires, 0)
		}
		c.Secure = secure != 0
		c.HttpOnly = httpOnly != 0
		out = append(out, c)
	}
	return out, rows.Err()
}

// Save replaces the saved set in one transaction.
func (s *SQLiteStore) Save(cookies []Cookie) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cookies`); err != nil {
		return fmt.Errorf("clear cookies: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO cookies (name, domain, path, value, expires, secure, http_only, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, c := range cookies {
		var expires int64
		if !c.Expires.IsZero() {
			expires = c.Expires.Unix()
		}
		if _, err := stmt.Exec(c.Name, c.Domain, c.Path, c.Value, expires, boolToInt(c.Secure), boolToInt(c.HttpOnly), now); err != nil {
			return fmt.Errorf("insert cookie %s: %w", c.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("cookies saved", "count", len(cookies))
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
