// Package testutil provides shared test helpers for setting up databases and services.
package testutil

import (
	"os"
	"testing"
	"time"

	"github.com/starford/hashnotes/internal/noteservice"
	"github.com/starford/hashnotes/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "hashnotes-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// FixedClock returns a clock that always reports t.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// TestService creates a service over a fresh temporary database. The clock is
// pinned to 2024-03-05.
func TestService(t *testing.T, opts ...noteservice.Option) (*noteservice.Service, *store.DB) {
	t.Helper()
	db := TestDB(t)
	opts = append([]noteservice.Option{
		noteservice.WithClock(FixedClock(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC))),
	}, opts...)
	return noteservice.NewService(db, opts...), db
}
