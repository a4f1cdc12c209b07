package api

import (
	"github.com/starford/hashnotes/internal/models"
	"github.com/starford/hashnotes/internal/noteservice"
	"github.com/starford/hashnotes/internal/view"
)

// CreateNoteRequest is the request body for creating a note. Description is
// the raw text; hashtags inside it become the note's tags.
type CreateNoteRequest struct {
	Title       string `json:"title" example:"Groceries" validate:"required"`
	Description string `json:"description" example:"Buy milk #shopping" validate:"required"`
}

// UpdateNoteRequest is the request body for updating a note.
type UpdateNoteRequest struct {
	Title       string `json:"title" example:"Groceries" validate:"required"`
	Description string `json:"description" example:"Buy oat milk #shopping #urgent" validate:"required"`
}

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []models.Note `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// DeleteNoteResponse echoes the id of a deleted note.
type DeleteNoteResponse struct {
	ID int64 `json:"id" example:"7" validate:"required"`
}

// TagsResponse wraps the tag universe.
type TagsResponse struct {
	Tags []string `json:"tags" validate:"required"`
}

// ViewQueryRequest is the request body for a sequenced view query.
type ViewQueryRequest struct {
	Title string   `json:"title" example:"milk"`
	Tags  []string `json:"tags" example:"shopping"`
}

// ViewQueryResponse is the visible snapshot after a view query, and whether
// this query's result is the one now visible.
type ViewQueryResponse struct {
	view.Snapshot
	Applied bool `json:"applied"`
}
