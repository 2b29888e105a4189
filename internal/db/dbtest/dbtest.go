// Package dbtest opens throwaway in-memory SQLite databases for store tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mind-engage/elearn/internal/db"
)

// Open returns a fresh schema in a named in-memory database private to t.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=foreign_keys(1)", name)
	dbh, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = dbh.Close() })
	return dbh
}

// SeedUser inserts a user row with an empty password hash.
func SeedUser(t testing.TB, dbh *sql.DB, id, username, role string) {
	t.Helper()
	if _, err := dbh.Exec(
		`INSERT INTO users (id, username, role, created_at) VALUES ($1, $2, $3, $4)`,
		id, username, role, time.Now().Unix()); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}
