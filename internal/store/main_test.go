package store

import (
	"database/sql"
	"testing"

	"github.com/rutina-app/rutina/internal/database"
)

// setupTestDB opens a fresh in-memory database. The pool is pinned to one
// connection so every query sees the same in-memory file.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *sql.DB, email string) int64 {
	t.Helper()
	u, err := NewUserStore(db).Create(email, "Test User", "x")
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return u.ID
}
