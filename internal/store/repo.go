package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/hashnotes/internal/apperr"
	"github.com/starford/hashnotes/internal/models"
)

const noteColumns = `n.id, n.title, n.description, n.tags, n.date`

// MutateFunc receives the stored note, or nil when id is absent, and returns
// the note to write back.
type MutateFunc func(current *models.Note) (models.Note, error)

// Put inserts or replaces a note by id and rewrites its tag index entries in
// the same transaction. A zero ID asks the store to assign a fresh one.
func (db *DB) Put(ctx context.Context, n models.Note) (models.Note, error) {
	var out models.Note
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		out, err = putTx(ctx, tx, n)
		return err
	})
	return out, err
}

// Update runs a read-modify-write of note id inside one transaction. The
// stored id always wins over whatever mutate sets.
func (db *DB) Update(ctx context.Context, id int64, mutate MutateFunc) (models.Note, error) {
	var out models.Note
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		cur, err := getTx(ctx, tx, id)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return err
		}
		next, err := mutate(cur)
		if err != nil {
			return err
		}
		next.ID = id
		out, err = putTx(ctx, tx, next)
		return err
	})
	return out, err
}

// Get returns the note with the given id or apperr.ErrNotFound.
func (db *DB) Get(ctx context.Context, id int64) (models.Note, error) {
	n, err := getTx(ctx, db.conn, id)
	if err != nil {
		return models.Note{}, err
	}
	return *n, nil
}

// Delete removes a note and its tag index entries. Deleting an absent id is
// not an error.
func (db *DB) Delete(ctx context.Context, id int64) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, id); err != nil {
			return fmt.Errorf("store: delete tags: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
			return fmt.Errorf("store: delete note: %w", err)
		}
		return nil
	})
}

// GetAll returns every note in primary-key order, which is creation order.
func (db *DB) GetAll(ctx context.Context) ([]models.Note, error) {
	out := []models.Note{}
	err := db.readTx(ctx, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `SELECT `+noteColumns+` FROM notes n ORDER BY n.id`)
		if err != nil {
			return fmt.Errorf("store: get all: %w", err)
		}
		return eachNote(rows, func(n models.Note) error {
			out = append(out, n)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getTx(ctx context.Context, q querier, id int64) (*models.Note, error) {
	row := q.QueryRowContext(ctx, `SELECT `+noteColumns+` FROM notes n WHERE n.id = ?`, id)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get %d: %w", id, err)
	}
	return &n, nil
}

func putTx(ctx context.Context, tx *sql.Tx, n models.Note) (models.Note, error) {
	if n.Tags == nil {
		n.Tags = []string{}
	}
	tagsJSON, err := json.Marshal(n.Tags)
	if err != nil {
		return models.Note{}, fmt.Errorf("store: encode tags: %w", err)
	}

	if n.ID == 0 {
		res, err := tx.ExecContext(ctx,
			`INSERT INTO notes (title, description, tags, date) VALUES (?, ?, ?, ?)`,
			n.Title, n.Description, string(tagsJSON), n.Date)
		if err != nil {
			return models.Note{}, fmt.Errorf("store: insert note: %w", err)
		}
		if n.ID, err = res.LastInsertId(); err != nil {
			return models.Note{}, fmt.Errorf("store: last insert id: %w", err)
		}
	} else {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO notes (id, title, description, tags, date)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				title       = excluded.title,
				description = excluded.description,
				tags        = excluded.tags,
				date        = excluded.date
		`, n.ID, n.Title, n.Description, string(tagsJSON), n.Date)
		if err != nil {
			return models.Note{}, fmt.Errorf("store: upsert note: %w", err)
		}
	}

	// Multi-entry index: one row per distinct tag of the note.
	if _, err := tx.ExecContext(ctx, `DELETE FROM note_tags WHERE note_id = ?`, n.ID); err != nil {
		return models.Note{}, fmt.Errorf("store: clear tags: %w", err)
	}
	if len(n.Tags) > 0 {
		stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO note_tags (tag, note_id) VALUES (?, ?)`)
		if err != nil {
			return models.Note{}, fmt.Errorf("store: prepare tag insert: %w", err)
		}
		defer stmt.Close()
		for _, tag := range n.Tags {
			if _, err := stmt.ExecContext(ctx, tag, n.ID); err != nil {
				return models.Note{}, fmt.Errorf("store: insert tag: %w", err)
			}
		}
	}
	return n, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanNote(s scanner) (models.Note, error) {
	var (
		n        models.Note
		tagsJSON string
	)
	if err := s.Scan(&n.ID, &n.Title, &n.Description, &tagsJSON, &n.Date); err != nil {
		return models.Note{}, err
	}
	if err := json.Unmarshal([]byte(tagsJSON), &n.Tags); err != nil {
		return models.Note{}, fmt.Errorf("decode tags of note %d: %w", n.ID, err)
	}
	if n.Tags == nil {
		n.Tags = []string{}
	}
	return n, nil
}

func eachNote(rows *sql.Rows, fn func(models.Note) error) error {
	defer rows.Close()
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return fmt.Errorf("store: scan note: %w", err)
		}
		if err := fn(n); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func (db *DB) readTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return fmt.Errorf("store: begin read tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // read-only, nothing to commit

	return fn(tx)
}
