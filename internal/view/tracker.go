// Package view holds the currently visible query result and guarantees that
// only the most recently issued query can replace it.
package view

import (
	"context"
	"sync"

	"github.com/starford/hashnotes/internal/models"
	"github.com/starford/hashnotes/internal/query"
	"github.com/starford/hashnotes/internal/tagset"
)

// Status describes the lifecycle of the visible query.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusLoading   Status = "loading"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Snapshot is the visible state.
type Snapshot struct {
	Seq     uint64        `json:"seq"`
	Request query.Request `json:"request"`
	Notes   []models.Note `json:"notes"`
	Tags    []string      `json:"tags"`
	Status  Status        `json:"status"`
	Error   string        `json:"error,omitempty"`
}

// Runner executes queries and computes the tag universe.
type Runner interface {
	Run(ctx context.Context, req query.Request) ([]models.Note, error)
	Tags(ctx context.Context) ([]string, error)
}

// Tracker sequences queries against a Runner. Every query gets a number when
// issued; its result is applied only if no later query was issued meanwhile.
type Tracker struct {
	runner Runner

	mu     sync.Mutex
	issued uint64
	snap   Snapshot
	// tagsDirty is set when a Refresh is issued and cleared only once an
	// applied run has recomputed the tag universe.
	tagsDirty bool
	observers []func(Snapshot)
}

// NewTracker creates an idle tracker.
func NewTracker(r Runner) *Tracker {
	return &Tracker{
		runner: r,
		snap: Snapshot{
			Notes:  []models.Note{},
			Tags:   []string{},
			Status: StatusIdle,
		},
	}
}

// OnChange registers fn to be called with every applied snapshot.
func (t *Tracker) OnChange(fn func(Snapshot)) {
	t.mu.Lock()
	t.observers = append(t.observers, fn)
	t.mu.Unlock()
}

// Snapshot returns the visible state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snap
}

// Query runs req and makes its result visible unless a newer query was issued
// before it finished. The returned bool reports whether the result was applied;
// the returned snapshot is the visible state either way.
func (t *Tracker) Query(ctx context.Context, req query.Request) (Snapshot, bool, error) {
	return t.run(ctx, req, false)
}

// Refresh re-runs the visible request and recomputes the tag universe. It is
// meant to be called after every mutation of the collection. If a newer query
// supersedes it, that query recomputes the tag universe instead.
func (t *Tracker) Refresh(ctx context.Context) (Snapshot, bool, error) {
	t.mu.Lock()
	req := t.snap.Request
	t.mu.Unlock()
	return t.run(ctx, req, true)
}

func (t *Tracker) run(ctx context.Context, req query.Request, withTags bool) (Snapshot, bool, error) {
	t.mu.Lock()
	t.issued++
	seq := t.issued
	if withTags {
		t.tagsDirty = true
	}
	needTags := t.tagsDirty
	t.snap.Seq = seq
	t.snap.Request = req
	t.snap.Status = StatusLoading
	t.snap.Error = ""
	t.mu.Unlock()

	notes, err := t.runner.Run(ctx, req)

	var (
		tags      []string
		tagsFresh bool
	)
	if err == nil {
		switch {
		case isFetchAll(req):
			tags, tagsFresh = tagset.Aggregate(notes), true
		case needTags:
			tags, err = t.runner.Tags(ctx)
			tagsFresh = err == nil
		}
	}

	t.mu.Lock()
	if seq != t.issued {
		snap := t.snap
		t.mu.Unlock()
		return snap, false, err
	}
	if err != nil {
		t.snap.Notes = []models.Note{}
		t.snap.Status = StatusFailed
		t.snap.Error = err.Error()
	} else {
		t.snap.Notes = notes
		t.snap.Status = StatusSucceeded
		if tagsFresh {
			if tags == nil {
				tags = []string{}
			}
			t.snap.Tags = tags
			t.tagsDirty = false
		}
	}
	snap := t.snap
	observers := append([]func(Snapshot){}, t.observers...)
	t.mu.Unlock()

	for _, fn := range observers {
		fn(snap)
	}
	return snap, true, err
}

func isFetchAll(req query.Request) bool {
	return len(req.Tags) == 0 && query.IsBlank(req.Title)
}
