package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/hashnotes/internal/models"
)

// ScanFunc is called once per cursor position. Returning an error stops the
// scan and aborts the surrounding read transaction.
type ScanFunc func(n models.Note) error

// ScanTitleIndex walks the title index in index order (title, then id).
func (db *DB) ScanTitleIndex(ctx context.Context, fn ScanFunc) error {
	return db.readTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT `+noteColumns+`
			FROM notes n
			ORDER BY n.title, n.id
		`)
		if err != nil {
			return fmt.Errorf("store: scan title index: %w", err)
		}
		return eachNote(rows, fn)
	})
}

// ScanTagIndex opens one cursor per requested tag over the exact matches in
// the tag index, in id order. All cursors share a single read transaction.
func (db *DB) ScanTagIndex(ctx context.Context, tags []string, fn ScanFunc) error {
	return db.readTx(ctx, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			SELECT `+noteColumns+`
			FROM note_tags t
			JOIN notes n ON n.id = t.note_id
			WHERE t.tag = ?
			ORDER BY t.note_id
		`)
		if err != nil {
			return fmt.Errorf("store: prepare tag scan: %w", err)
		}
		defer stmt.Close()

		for _, tag := range tags {
			rows, err := stmt.QueryContext(ctx, tag)
			if err != nil {
				return fmt.Errorf("store: scan tag %q: %w", tag, err)
			}
			if err := eachNote(rows, fn); err != nil {
				return err
			}
		}
		return nil
	})
}
