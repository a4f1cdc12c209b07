package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/hashnotes/internal/noteservice"
	"github.com/starford/hashnotes/internal/query"
	"github.com/starford/hashnotes/internal/sse"
	"github.com/starford/hashnotes/internal/view"
)

// Handler holds API route handlers.
type Handler struct {
	svc     *noteservice.Service
	tracker *view.Tracker
	broker  *sse.Broker
	logger  *slog.Logger
}

// NewHandler creates a new Handler. broker may be nil; a nil logger falls
// back to slog.Default.
func NewHandler(svc *noteservice.Service, tracker *view.Tracker, broker *sse.Broker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, tracker: tracker, broker: broker, logger: logger}
}

// noteID extracts the numeric note id from the URL.
func noteID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes, optionally filtered by title or tags
//	@Tags			notes
//	@Produce		json
//	@Param			title	query		string		false	"Case-insensitive title substring"
//	@Param			tag		query		[]string	false	"Exact tag; repeat for several"
//	@Success		200		{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := query.Request{
		Title: q.Get("title"),
		Tags:  nonEmpty(q["tag"]),
	}

	notes, err := h.svc.Run(r.Context(), req)
	if err != nil {
		h.writeError(w, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: notes, Total: len(notes)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note by id
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody(codeBadRequest, "invalid note id"))
		return
	}
	note, err := h.svc.Detail(r.Context(), id)
	if err != nil {
		h.writeError(w, "get note", err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(note.Checksum))
	writeJSON(w, http.StatusOK, note)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateNoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(codeBadRequest, "invalid JSON body"))
		return
	}

	note, err := h.svc.Create(r.Context(), req.Title, req.Description)
	if err != nil {
		h.writeError(w, "create note", err)
		return
	}
	h.afterMutation(r.Context(), sse.NoteCreated, note.ID)

	detail := noteservice.NewDetail(note)
	w.Header().Set("ETag", strconv.Quote(detail.Checksum))
	writeJSON(w, http.StatusCreated, detail)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path	int					true	"Note id"
//	@Param			If-Match	header	string				false	"Checksum from a previous read"
//	@Param			body		body	UpdateNoteRequest	true	"Updated note"
//	@Success		200		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody(codeBadRequest, "invalid note id"))
		return
	}

	var req UpdateNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(codeBadRequest, "invalid JSON body"))
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	note, err := h.svc.Update(r.Context(), id, req.Title, req.Description, ifMatch)
	if err != nil {
		h.writeError(w, "update note", err)
		return
	}
	h.afterMutation(r.Context(), sse.NoteUpdated, note.ID)

	detail := noteservice.NewDetail(note)
	w.Header().Set("ETag", strconv.Quote(detail.Checksum))
	writeJSON(w, http.StatusOK, detail)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	DeleteNoteResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody(codeBadRequest, "invalid note id"))
		return
	}
	deleted, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		h.writeError(w, "delete note", err)
		return
	}
	h.afterMutation(r.Context(), sse.NoteDeleted, deleted)
	writeJSON(w, http.StatusOK, DeleteNoteResponse{ID: deleted})
}

// ListTags handles GET /api/tags.
//
//	@Summary		Distinct tags across all notes, in first-seen order
//	@Tags			tags
//	@Produce		json
//	@Success		200	{object}	TagsResponse
//	@Security		BearerAuth
//	@Router			/tags [get]
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.Tags(r.Context())
	if err != nil {
		h.writeError(w, "list tags", err)
		return
	}
	writeJSON(w, http.StatusOK, TagsResponse{Tags: tags})
}

// GetView handles GET /api/view.
//
//	@Summary		Currently visible view snapshot
//	@Tags			view
//	@Produce		json
//	@Success		200	{object}	view.Snapshot
//	@Security		BearerAuth
//	@Router			/view [get]
func (h *Handler) GetView(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.tracker.Snapshot())
}

// QueryView handles POST /api/view/query.
//
// A query whose result arrives after a newer query was issued is not applied;
// the response then carries the newer visible snapshot with applied=false.
// Query failures are reported through the snapshot status.
//
//	@Summary		Issue a sequenced view query
//	@Tags			view
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ViewQueryRequest	true	"Filter"
//	@Success		200		{object}	ViewQueryResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/view/query [post]
func (h *Handler) QueryView(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req ViewQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(codeBadRequest, "invalid JSON body"))
		return
	}

	snap, applied, err := h.tracker.Query(r.Context(), query.Request{Title: req.Title, Tags: nonEmpty(req.Tags)})
	if err != nil {
		h.logger.Warn("view query failed", slog.String("error", err.Error()))
	}
	writeJSON(w, http.StatusOK, ViewQueryResponse{Snapshot: snap, Applied: applied})
}

// afterMutation announces a mutation and refreshes the visible view, which
// recomputes the tag universe.
func (h *Handler) afterMutation(ctx context.Context, kind sse.NoteKind, id int64) {
	if h.broker != nil {
		h.broker.PublishNoteEvent(kind, id)
	}
	if h.tracker == nil {
		return
	}
	if _, _, err := h.tracker.Refresh(context.WithoutCancel(ctx)); err != nil {
		h.logger.Warn("view refresh failed", slog.Int64("id", id), slog.String("error", err.Error()))
	}
}

func nonEmpty(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
