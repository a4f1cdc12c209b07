package query_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/hashnotes/internal/apperr"
	"github.com/starford/hashnotes/internal/models"
	"github.com/starford/hashnotes/internal/query"
	"github.com/starford/hashnotes/internal/store"
	"github.com/starford/hashnotes/internal/testutil"
)

func seed(t *testing.T, db *store.DB, notes ...models.Note) []models.Note {
	t.Helper()
	out := make([]models.Note, 0, len(notes))
	for _, n := range notes {
		if n.Date == "" {
			n.Date = "2024-1-1"
		}
		if n.Description == "" {
			n.Description = "d"
		}
		saved, err := db.Put(context.Background(), n)
		require.NoError(t, err)
		out = append(out, saved)
	}
	return out
}

func titles(notes []models.Note) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.Title)
	}
	return out
}

func ids(notes []models.Note) []int64 {
	out := make([]int64, 0, len(notes))
	for _, n := range notes {
		out = append(out, n.ID)
	}
	return out
}

func TestFetchAll(t *testing.T) {
	db := testutil.TestDB(t)
	seed(t, db, models.Note{Title: "b"}, models.Note{Title: "a"})

	notes, err := query.New(db).FetchAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, titles(notes))
}

func TestFetchAll_Empty(t *testing.T) {
	notes, err := query.New(testutil.TestDB(t)).FetchAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, notes)
	assert.Empty(t, notes)
}

func TestSearchByTitle_CaseInsensitiveSubstring(t *testing.T) {
	db := testutil.TestDB(t)
	seed(t, db,
		models.Note{Title: "Weekly Groceries"},
		models.Note{Title: "groceries list"},
		models.Note{Title: "Reading"},
	)

	notes, err := query.New(db).SearchByTitle(context.Background(), "GROC")
	require.NoError(t, err)
	// title index order: uppercase sorts before lowercase
	assert.Equal(t, []string{"Weekly Groceries", "groceries list"}, titles(notes))
}

func TestSearchByTitle_Cyrillic(t *testing.T) {
	db := testutil.TestDB(t)
	seed(t, db, models.Note{Title: "Список Покупок"}, models.Note{Title: "other"})

	notes, err := query.New(db).SearchByTitle(context.Background(), "покуп")
	require.NoError(t, err)
	assert.Equal(t, []string{"Список Покупок"}, titles(notes))
}

func TestSearchByTitle_NoMatch(t *testing.T) {
	db := testutil.TestDB(t)
	seed(t, db, models.Note{Title: "alpha"})

	notes, err := query.New(db).SearchByTitle(context.Background(), "zzz")
	require.NoError(t, err)
	assert.NotNil(t, notes)
	assert.Empty(t, notes)
}

func TestSearchByTags_DedupeByDefault(t *testing.T) {
	db := testutil.TestDB(t)
	s := seed(t, db,
		models.Note{Title: "both", Tags: []string{"work", "urgent"}},
		models.Note{Title: "work only", Tags: []string{"work"}},
		models.Note{Title: "urgent only", Tags: []string{"urgent"}},
		models.Note{Title: "none"},
	)

	notes, err := query.New(db).SearchByTags(context.Background(), []string{"urgent", "work"})
	require.NoError(t, err)
	assert.Equal(t, []int64{s[0].ID, s[2].ID, s[1].ID}, ids(notes))
}

func TestSearchByTags_WithoutDedupe(t *testing.T) {
	db := testutil.TestDB(t)
	s := seed(t, db,
		models.Note{Title: "both", Tags: []string{"work", "urgent"}},
		models.Note{Title: "work only", Tags: []string{"work"}},
	)

	notes, err := query.New(db, query.WithDedupe(false)).SearchByTags(context.Background(), []string{"work", "urgent"})
	require.NoError(t, err)
	assert.Equal(t, []int64{s[0].ID, s[1].ID, s[0].ID}, ids(notes))
}

func TestSearchByTags_ExactMatchOnly(t *testing.T) {
	db := testutil.TestDB(t)
	seed(t, db, models.Note{Title: "t", Tags: []string{"golang"}})

	notes, err := query.New(db).SearchByTags(context.Background(), []string{"go"})
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestRun_Dispatch(t *testing.T) {
	db := testutil.TestDB(t)
	seed(t, db,
		models.Note{Title: "tagged", Tags: []string{"x"}},
		models.Note{Title: "plain"},
	)
	e := query.New(db)
	ctx := context.Background()

	got, err := e.Run(ctx, query.Request{Title: "plain", Tags: []string{"x"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"tagged"}, titles(got), "tags take precedence")

	got, err = e.Run(ctx, query.Request{Title: "  plai  "})
	require.NoError(t, err)
	assert.Equal(t, []string{"plain"}, titles(got))

	got, err = e.Run(ctx, query.Request{Title: "   "})
	require.NoError(t, err)
	assert.Len(t, got, 2, "blank title fetches all")
}

func TestQueryFailed(t *testing.T) {
	db := testutil.TestDB(t)
	e := query.New(db)
	db.Close()
	ctx := context.Background()

	notes, err := e.FetchAll(ctx)
	assert.ErrorIs(t, err, apperr.ErrQueryFailed)
	assert.Nil(t, notes)

	notes, err = e.SearchByTitle(ctx, "a")
	assert.ErrorIs(t, err, apperr.ErrQueryFailed)
	assert.Nil(t, notes)

	notes, err = e.SearchByTags(ctx, []string{"a"})
	assert.ErrorIs(t, err, apperr.ErrQueryFailed)
	assert.Nil(t, notes)
}
