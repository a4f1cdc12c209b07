// Package noteservice coordinates note mutations and reads on top of the
// store and the query engine.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/hashnotes/internal/apperr"
	"github.com/starford/hashnotes/internal/checksum"
	"github.com/starford/hashnotes/internal/models"
	"github.com/starford/hashnotes/internal/parser"
	"github.com/starford/hashnotes/internal/query"
	"github.com/starford/hashnotes/internal/store"
	"github.com/starford/hashnotes/internal/tagset"
)

// NoteDetail is the full representation of a single note.
type NoteDetail struct {
	models.Note
	Checksum            string `json:"checksum"`
	EditableDescription string `json:"editable_description"`
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used to stamp creation dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithLogger sets the logger used for mutation events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithDedupeTagMatches toggles collapsing of notes matched by several tags.
func WithDedupeTagMatches(on bool) Option {
	return func(s *Service) {
		s.dedupe = on
	}
}

// Service coordinates store writes and query reads.
type Service struct {
	store  store.NoteStore
	query  *query.Engine
	now    func() time.Time
	logger *slog.Logger
	dedupe bool
}

// NewService creates a service operating on st.
func NewService(st store.NoteStore, opts ...Option) *Service {
	s := &Service{
		store:  st,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		dedupe: true,
	}
	for _, o := range opts {
		o(s)
	}
	s.query = query.New(st, query.WithDedupe(s.dedupe))
	return s
}

// Create parses raw into a description and tags, stamps today's date and
// stores the note under a freshly assigned id.
func (s *Service) Create(ctx context.Context, title, raw string) (models.Note, error) {
	n, err := s.prepare(title, raw)
	if err != nil {
		return models.Note{}, err
	}
	n.Date = FormatDate(s.now())

	out, err := s.store.Put(ctx, n)
	if err != nil {
		return models.Note{}, fmt.Errorf("%w: create: %w", apperr.ErrMutationFailed, err)
	}
	s.logger.Info("note created", slog.Int64("id", out.ID), slog.Int("tags", len(out.Tags)))
	return out, nil
}

// Update rewrites title, description and tags of note id. The stored id and
// date are kept; a note that vanished in the meantime is recreated with
// today's date. A non-empty ifMatch must equal the stored note's checksum.
func (s *Service) Update(ctx context.Context, id int64, title, raw, ifMatch string) (models.Note, error) {
	n, err := s.prepare(title, raw)
	if err != nil {
		return models.Note{}, err
	}

	out, err := s.store.Update(ctx, id, func(cur *models.Note) (models.Note, error) {
		if ifMatch != "" && (cur == nil || checksum.Note(*cur) != ifMatch) {
			return models.Note{}, apperr.ErrConflict
		}
		if cur != nil {
			n.Date = cur.Date
		} else {
			n.Date = FormatDate(s.now())
		}
		return n, nil
	})
	if errors.Is(err, apperr.ErrConflict) {
		return models.Note{}, err
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("%w: update %d: %w", apperr.ErrMutationFailed, id, err)
	}
	s.logger.Info("note updated", slog.Int64("id", out.ID), slog.Int("tags", len(out.Tags)))
	return out, nil
}

// Delete removes note id and returns it. Deleting an absent id succeeds.
func (s *Service) Delete(ctx context.Context, id int64) (int64, error) {
	if err := s.store.Delete(ctx, id); err != nil {
		return 0, fmt.Errorf("%w: delete %d: %w", apperr.ErrMutationFailed, id, err)
	}
	s.logger.Info("note deleted", slog.Int64("id", id))
	return id, nil
}

// Get returns note id or apperr.ErrNotFound.
func (s *Service) Get(ctx context.Context, id int64) (models.Note, error) {
	n, err := s.store.Get(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return models.Note{}, err
	}
	if err != nil {
		return models.Note{}, fmt.Errorf("%w: get %d: %w", apperr.ErrQueryFailed, id, err)
	}
	return n, nil
}

// Detail returns note id together with its checksum and editable form.
func (s *Service) Detail(ctx context.Context, id int64) (*NoteDetail, error) {
	n, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return NewDetail(n), nil
}

// NewDetail builds the detail view of n.
func NewDetail(n models.Note) *NoteDetail {
	return &NoteDetail{
		Note:                n,
		Checksum:            checksum.Note(n),
		EditableDescription: parser.EditableDescription(n.Description, n.Tags),
	}
}

// FetchAll returns every note in creation order.
func (s *Service) FetchAll(ctx context.Context) ([]models.Note, error) {
	return s.query.FetchAll(ctx)
}

// SearchByTitle returns notes whose title contains term, ignoring case.
func (s *Service) SearchByTitle(ctx context.Context, term string) ([]models.Note, error) {
	return s.query.SearchByTitle(ctx, term)
}

// SearchByTags returns notes carrying any of tags.
func (s *Service) SearchByTags(ctx context.Context, tags []string) ([]models.Note, error) {
	return s.query.SearchByTags(ctx, tags)
}

// Run dispatches req to the matching search.
func (s *Service) Run(ctx context.Context, req query.Request) ([]models.Note, error) {
	return s.query.Run(ctx, req)
}

// Tags returns the tag universe of the whole collection.
func (s *Service) Tags(ctx context.Context) ([]string, error) {
	notes, err := s.query.FetchAll(ctx)
	if err != nil {
		return nil, err
	}
	return tagset.Aggregate(notes), nil
}

// Ping reports whether the store is reachable.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// FormatDate renders t as YYYY-M-D without zero padding.
func FormatDate(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%d-%d-%d", y, int(m), d)
}

func (s *Service) prepare(title, raw string) (models.Note, error) {
	title = strings.TrimSpace(title)
	res := parser.Parse(raw)

	err := validation.Errors{
		"title":       validation.Validate(title, validation.Required),
		"description": validation.Validate(res.Description, validation.Required),
	}.Filter()
	if err != nil {
		return models.Note{}, fmt.Errorf("%w: %w", apperr.ErrValidationFailed, err)
	}
	return models.Note{
		Title:       title,
		Description: res.Description,
		Tags:        res.Tags,
	}, nil
}
