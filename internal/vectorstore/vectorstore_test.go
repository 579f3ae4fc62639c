package vectorstore

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libraria.app/recommender/internal/core"
)

// stubEmbedder maps known texts to fixed vectors so similarity ordering is
// deterministic.
type stubEmbedder struct {
	vectors map[string][]float32
	err     error
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestStore(t *testing.T, embedder Embedder) *Store {
	t.Helper()
	s, err := New(newTestDB(t), embedder, zerolog.Nop())
	require.NoError(t, err)
	return s
}

func TestSearchOrdersBySimilarity(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{
		"space opera": {1, 0, 0},
		"exact match": {1, 0, 0},
		"close match": {0.9, 0.1, 0},
		"poor match":  {0, 1, 0},
	}}
	s := newTestStore(t, embedder)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, core.BookMeta{Title: "Poor"}, "poor match"))
	require.NoError(t, s.Upsert(ctx, core.BookMeta{Title: "Exact"}, "exact match"))
	require.NoError(t, s.Upsert(ctx, core.BookMeta{Title: "Close"}, "close match"))

	got, err := s.Search(ctx, "space opera", 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Exact", got[0].Meta.Title)
	assert.Equal(t, 0, got[0].Rank)
	assert.Equal(t, "Close", got[1].Meta.Title)
	assert.Equal(t, 1, got[1].Rank)
	assert.Equal(t, "Poor", got[2].Meta.Title)
}

func TestSearchRespectsTopK(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	s := newTestStore(t, embedder)
	ctx := context.Background()
	for _, title := range []string{"A", "B", "C", "D"} {
		require.NoError(t, s.Upsert(ctx, core.BookMeta{Title: title}, title))
	}

	got, err := s.Search(ctx, "q", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearchEmbedderFailure(t *testing.T) {
	s := newTestStore(t, &stubEmbedder{vectors: map[string][]float32{}})
	s.embedder = &stubEmbedder{err: errors.New("quota exceeded")}

	_, err := s.Search(context.Background(), "q", 5)
	assert.Error(t, err)
}

func TestUpdateImageURLRoundTrip(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	s := newTestStore(t, embedder)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, core.BookMeta{Title: "Dune", Genre: "Science Fiction"}, "spice"))

	require.NoError(t, s.UpdateImageURL(ctx, "Dune", "http://img/dune.png"))

	got, err := s.Search(ctx, "spice", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "http://img/dune.png", got[0].Meta.ImageURL)
}

func TestUpdateImageURLUnknownTitle(t *testing.T) {
	s := newTestStore(t, &stubEmbedder{vectors: map[string][]float32{}})
	err := s.UpdateImageURL(context.Background(), "Ghost", "http://img/x.png")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestUpsertPreservesImageURL(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	s := newTestStore(t, embedder)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, core.BookMeta{Title: "Dune"}, "spice"))
	require.NoError(t, s.UpdateImageURL(ctx, "Dune", "http://img/dune.png"))

	// Re-ingesting the same title must not clear the cached image.
	require.NoError(t, s.Upsert(ctx, core.BookMeta{Title: "Dune", Genre: "Science Fiction"}, "spice and sand"))

	got, err := s.Search(ctx, "spice", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "http://img/dune.png", got[0].Meta.ImageURL)
}

func TestPersistenceAcrossReload(t *testing.T) {
	db := newTestDB(t)
	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	s, err := New(db, embedder, zerolog.Nop())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, core.BookMeta{Title: "Emma", Author: "Jane Austen"}, "matchmaking"))
	require.NoError(t, s.UpdateImageURL(ctx, "Emma", "http://img/emma.png"))

	reloaded, err := New(db, embedder, zerolog.Nop())
	require.NoError(t, err)
	got, err := reloaded.Search(ctx, "matchmaking", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Emma", got[0].Meta.Title)
	assert.Equal(t, "Jane Austen", got[0].Meta.Author)
	assert.Equal(t, "http://img/emma.png", got[0].Meta.ImageURL)
}

func TestSearchTitles(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	s := newTestStore(t, embedder)
	ctx := context.Background()
	for _, title := range []string{"The Hobbit", "The Hound", "Dune", "Hound of Love"} {
		require.NoError(t, s.Upsert(ctx, core.BookMeta{Title: title}, title))
	}

	got, err := s.SearchTitles(ctx, "hound", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Hound of Love", "The Hound"}, got)

	// Pagination.
	got, err = s.SearchTitles(ctx, "hound", 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"The Hound"}, got)

	got, err = s.SearchTitles(ctx, "zzz", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}
