// Package vectorstore keeps book embeddings in SQLite and serves similarity
// searches from an in-memory copy loaded at startup.
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"libraria.app/recommender/internal/core"
)

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type entry struct {
	meta      core.BookMeta
	embedding []float32
}

// Store is the book embedding index. Reads are served from memory; the
// image-url write-back updates both memory and the SQLite row. Concurrent
// write-backs for the same title are a benign race: both writes carry a valid
// URL and the upsert is idempotent, so last-writer-wins is an acceptable end
// state.
type Store struct {
	db       *sql.DB
	embedder Embedder
	logger   zerolog.Logger

	mu      sync.RWMutex
	entries []entry
}

func New(db *sql.DB, embedder Embedder, logger zerolog.Logger) (*Store, error) {
	schema := `
    CREATE TABLE IF NOT EXISTS book_vectors (
        title TEXT PRIMARY KEY,
        genre TEXT,
        author TEXT,
        image_url TEXT,
        embedding_json TEXT NOT NULL
    );
    `
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to initialize vector schema: %w", err)
	}

	s := &Store{db: db, embedder: embedder, logger: logger.With().Str("component", "vectorstore").Logger()}
	if err := s.load(); err != nil {
		return nil, err
	}
	if len(s.entries) == 0 {
		s.logger.Warn().Msg("vector store is empty, run ingestion before serving recommendations")
	} else {
		s.logger.Info().Int("books", len(s.entries)).Msg("vector store loaded")
	}
	return s, nil
}

func (s *Store) load() error {
	rows, err := s.db.Query("SELECT title, COALESCE(genre, ''), COALESCE(author, ''), COALESCE(image_url, ''), embedding_json FROM book_vectors")
	if err != nil {
		return fmt.Errorf("failed to query book vectors: %w", err)
	}
	defer rows.Close()

	var entries []entry
	for rows.Next() {
		var e entry
		var embeddingJSON string
		if err := rows.Scan(&e.meta.Title, &e.meta.Genre, &e.meta.Author, &e.meta.ImageURL, &embeddingJSON); err != nil {
			return fmt.Errorf("failed to scan book vector: %w", err)
		}
		if err := json.Unmarshal([]byte(embeddingJSON), &e.embedding); err != nil {
			s.logger.Warn().Str("title", e.meta.Title).Err(err).Msg("unreadable embedding, entry will be unsearchable")
			e.embedding = nil
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate book vectors: %w", err)
	}
	s.entries = entries
	return nil
}

// Upsert embeds text and stores it with the book's metadata, replacing any
// previous entry for the title. Titles are matched exactly here; the catalog
// layer owns case-insensitive matching.
func (s *Store) Upsert(ctx context.Context, meta core.BookMeta, text string) error {
	embedding, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to embed %q: %w", meta.Title, err)
	}
	embeddingJSON, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding for %q: %w", meta.Title, err)
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO book_vectors (title, genre, author, image_url, embedding_json) VALUES (?, ?, ?, ?, ?)
        ON CONFLICT(title) DO UPDATE SET genre = excluded.genre, author = excluded.author, embedding_json = excluded.embedding_json`,
		meta.Title, meta.Genre, meta.Author, meta.ImageURL, string(embeddingJSON))
	if err != nil {
		return fmt.Errorf("failed to store vector for %q: %w", meta.Title, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].meta.Title == meta.Title {
			existingURL := s.entries[i].meta.ImageURL
			s.entries[i] = entry{meta: meta, embedding: embedding}
			if meta.ImageURL == "" {
				s.entries[i].meta.ImageURL = existingURL
			}
			return nil
		}
	}
	s.entries = append(s.entries, entry{meta: meta, embedding: embedding})
	return nil
}

// Search embeds the query and returns the topK most similar books, best
// first. Ties keep insertion order, so results are deterministic.
func (s *Store) Search(ctx context.Context, query string, topK int) ([]core.Candidate, error) {
	queryEmbedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	type scored struct {
		meta  core.BookMeta
		score float32
	}
	results := make([]scored, 0, len(s.entries))
	for _, e := range s.entries {
		if len(e.embedding) == 0 {
			continue
		}
		score, err := cosineSimilarity(queryEmbedding, e.embedding)
		if err != nil {
			s.logger.Warn().Str("title", e.meta.Title).Err(err).Msg("skipping entry with incompatible embedding")
			continue
		}
		results = append(results, scored{meta: e.meta, score: score})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})
	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}

	candidates := make([]core.Candidate, len(results))
	for i, r := range results {
		candidates[i] = core.Candidate{Rank: i, Meta: r.meta}
	}
	return candidates, nil
}

// UpdateImageURL persists a generated image URL into the book's metadata so
// later searches reuse it instead of regenerating.
func (s *Store) UpdateImageURL(ctx context.Context, title, url string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE book_vectors SET image_url = ? WHERE title = ?", url, title)
	if err != nil {
		return fmt.Errorf("failed to update image url for %q: %w", title, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("book %q: %w", title, core.ErrNotFound)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.entries {
		if s.entries[i].meta.Title == title {
			s.entries[i].meta.ImageURL = url
			break
		}
	}
	return nil
}

// SearchTitles does a case-insensitive substring search over catalog titles
// with offset pagination, for autocomplete-style lookups.
func (s *Store) SearchTitles(ctx context.Context, q string, limit, offset int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToLower(q)
	var matches []string
	for _, e := range s.entries {
		if needle == "" || strings.Contains(strings.ToLower(e.meta.Title), needle) {
			matches = append(matches, e.meta.Title)
		}
	}
	sort.Strings(matches)

	if offset >= len(matches) {
		return []string{}, nil
	}
	matches = matches[offset:]
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Len reports how many books are indexed.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
