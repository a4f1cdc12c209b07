// Package query serves filtered views of the note collection from the store's
// indexes.
package query

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/starford/hashnotes/internal/apperr"
	"github.com/starford/hashnotes/internal/models"
	"github.com/starford/hashnotes/internal/store"
)

// Request selects which view to compute. Tags take precedence over Title; an
// empty request selects every note.
type Request struct {
	Title string   `json:"title"`
	Tags  []string `json:"tags"`
}

// Option configures an Engine.
type Option func(*Engine)

// WithDedupe controls whether tag searches collapse notes matched by several
// requested tags into a single result. Enabled by default.
func WithDedupe(on bool) Option {
	return func(e *Engine) {
		e.dedupe = on
	}
}

// Engine runs read queries against a store.Reader.
type Engine struct {
	r      store.Reader
	dedupe bool
}

// New creates an Engine reading from r.
func New(r store.Reader, opts ...Option) *Engine {
	e := &Engine{r: r, dedupe: true}
	for _, o := range opts {
		o(e)
	}
	return e
}

// FetchAll returns every note in creation order.
func (e *Engine) FetchAll(ctx context.Context) ([]models.Note, error) {
	notes, err := e.r.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch all: %w", apperr.ErrQueryFailed, err)
	}
	return notes, nil
}

// SearchByTitle returns notes whose title contains term, case-insensitively,
// in title index order.
func (e *Engine) SearchByTitle(ctx context.Context, term string) ([]models.Note, error) {
	needle := strings.ToLower(term)
	out := []models.Note{}
	err := e.r.ScanTitleIndex(ctx, func(n models.Note) error {
		if strings.Contains(strings.ToLower(n.Title), needle) {
			out = append(out, n)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: title search: %w", apperr.ErrQueryFailed, err)
	}
	return out, nil
}

// SearchByTags returns notes carrying any of tags, grouped by requested tag
// and in id order within a group.
func (e *Engine) SearchByTags(ctx context.Context, tags []string) ([]models.Note, error) {
	out := []models.Note{}
	err := e.r.ScanTagIndex(ctx, tags, func(n models.Note) error {
		out = append(out, n)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: tag search: %w", apperr.ErrQueryFailed, err)
	}
	if e.dedupe {
		out = lo.UniqBy(out, func(n models.Note) int64 { return n.ID })
	}
	return out, nil
}

// Run dispatches req: non-empty tags search the tag index, otherwise a
// non-blank title searches the title index, otherwise every note is returned.
func (e *Engine) Run(ctx context.Context, req Request) ([]models.Note, error) {
	if len(req.Tags) > 0 {
		return e.SearchByTags(ctx, req.Tags)
	}
	if !IsBlank(req.Title) {
		return e.SearchByTitle(ctx, strings.TrimSpace(req.Title))
	}
	return e.FetchAll(ctx)
}

// IsBlank reports whether a title term selects nothing.
func IsBlank(term string) bool {
	return strings.TrimSpace(term) == ""
}
