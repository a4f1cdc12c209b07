package store

import (
	"context"

	"github.com/starford/hashnotes/internal/models"
)

// Reader is the read side of the note collection.
type Reader interface {
	Get(ctx context.Context, id int64) (models.Note, error)
	GetAll(ctx context.Context) ([]models.Note, error)
	ScanTitleIndex(ctx context.Context, fn ScanFunc) error
	ScanTagIndex(ctx context.Context, tags []string, fn ScanFunc) error
}

// NoteStore defines the full set of collection operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with fakes.
type NoteStore interface {
	Reader
	Put(ctx context.Context, n models.Note) (models.Note, error)
	Update(ctx context.Context, id int64, mutate MutateFunc) (models.Note, error)
	Delete(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
	Close() error
}

// Verify *DB satisfies NoteStore at compile time.
var _ NoteStore = (*DB)(nil)
