package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	"github.com/vytor/learncert/internal/db"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The pool is pinned to one connection so every query sees the same database.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.ApplyMigrations(context.Background(), sqlDB))
	return sqlDB
}

// MustClose closes a resource and fails the test on error.
func MustClose(t *testing.T, closer interface{ Close() error }) {
	require.NoError(t, closer.Close())
}

// SeedUser inserts a user row directly.
func SeedUser(t *testing.T, sqlDB *sql.DB, name, email string) {
	t.Helper()
	now := time.Now().UTC()
	_, err := sqlDB.Exec(`INSERT INTO users (email, name, created_at, last_login_at) VALUES (?, ?, ?, ?)`, email, name, now, now)
	require.NoError(t, err)
}
