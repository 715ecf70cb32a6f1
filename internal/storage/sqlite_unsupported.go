//go:build mips64 || mips64le || ppc64 || s390x

package storage

import (
	"errors"
	"log/slog"
)

// SQLiteStore implements Store using SQLite with WAL mode.
// This is a stub implementation for unsupported platforms.
type SQLiteStore struct{}

// NewSQLiteStore opens the cookie database at path.
// On unsupported platforms, this returns an error.
func NewSQLiteStore(path string, logger *slog.Logger) (*SQLiteStore, error) {
	return nil, errors.New("SQLite storage is not supported on this platform, use memory storage instead")
}

// Load returns every saved cookie.
func (s *SQLiteStore) Load() ([]Cookie, error) {
	return nil, errors.New("SQLite storage not available")
}

// Save replaces the saved set.
func (s *SQLiteStore) Save(cookies []Cookie) error {
	return errors.New("SQLite storage not available")
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return nil
}
