// Package core implements the recommendation pipeline: reader-profile
// screening, taste matching against a user's read history, and the selector
// that walks similarity-search results until one candidate survives every
// check. External systems (vector search, catalog, language models) are
// injected behind narrow interfaces so the pipeline stays deterministic under
// test.
package core

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// searchTopK is the over-fetch applied to the vector search so filtering has
// candidates to burn through.
const searchTopK = 10

// Searcher runs a semantic similarity search over the book catalog and
// returns candidates most-similar first.
type Searcher interface {
	Search(ctx context.Context, query string, topK int) ([]Candidate, error)
}

// SummaryLookup resolves a book summary by title. A missing title yields the
// SummaryNotFound sentinel, not an error; errors mean malformed storage.
type SummaryLookup interface {
	SummaryByTitle(ctx context.Context, title string) (string, error)
}

// HistoryStore reads a user's read-book records, joined with catalog fields.
type HistoryStore interface {
	ReadBooks(ctx context.Context, username string) ([]ReadRecord, error)
}

// ProfileInferrer guesses the intended reader profile from a free-text query.
// The returned tag is matched case-insensitively against the known profiles;
// anything else is treated as unknown.
type ProfileInferrer interface {
	InferProfile(ctx context.Context, query string) (string, error)
}

// Translator translates text into the target language ("english" or
// "romanian").
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// ImageGenerator produces an illustrative image for a book and returns its
// URL.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, title, prompt string) (string, error)
}

// ImageURLWriter persists a generated image URL into the book's metadata
// record. The write is an idempotent upsert keyed by title.
type ImageURLWriter interface {
	UpdateImageURL(ctx context.Context, title, url string) error
}

const (
	LanguageEnglish  = "english"
	LanguageRomanian = "romanian"
)

// Request is one recommendation call. Role and Username are optional;
// unauthenticated callers simply get no history personalization.
type Request struct {
	Query    string
	Role     string
	Language string
	Username string
}

// Result is the structured outcome of a recommendation. Exactly one of the
// three shapes applies: a book, a clarification request, or no match.
// Neither of the two non-book shapes is an error.
type Result struct {
	Title    string
	Summary  string
	ImageURL string

	NeedsClarification bool
	NoMatch            bool
	Message            string
}

// Deps bundles the collaborators a Service needs.
type Deps struct {
	Search    Searcher
	Summaries SummaryLookup
	History   HistoryStore
	Profiles  ProfileInferrer
	Translate Translator
	Images    ImageGenerator
	ImageURLs ImageURLWriter
}

// Service selects a single book for a request. It is stateless between calls;
// the only mutation it performs is the image-URL write-back cache. Two
// concurrent requests that miss the cache for the same title may both
// generate an image and both write it back; the race is benign because the
// writes are idempotent upserts and either URL is valid.
type Service struct {
	deps   Deps
	logger zerolog.Logger
}

func NewService(deps Deps, logger zerolog.Logger) *Service {
	return &Service{deps: deps, logger: logger.With().Str("component", "recommender").Logger()}
}

// Recommend runs the full pipeline for one request: resolve the reader
// profile, fetch history, search, filter, and pick the first candidate with a
// usable, appropriate summary. Search and connectivity failures propagate;
// missing history and image-generation failures degrade.
func (s *Service) Recommend(ctx context.Context, req Request) (*Result, error) {
	language := req.Language
	if language != LanguageRomanian {
		language = LanguageEnglish
	}

	role, clarify := s.resolveRole(ctx, req)
	if clarify != nil {
		return clarify, nil
	}

	readTitles, highRated, err := s.fetchHistory(ctx, req.Username)
	if err != nil {
		return nil, err
	}

	searchText := strings.TrimSpace(req.Query)
	if searchText == "" {
		searchText = string(role)
	}
	raw, err := s.deps.Search.Search(ctx, searchText, searchTopK)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	candidates := filterByHistory(ctx, raw, readTitles, highRated, s.deps.Summaries)

	for _, c := range candidates {
		summary, err := s.resolveSummary(ctx, c.Meta)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(summary) == "" || summary == SummaryNotFound {
			continue
		}
		if !IsAppropriate(summary, role) {
			s.logger.Debug().Str("title", c.Meta.Title).Str("role", string(role)).
				Msg("candidate rejected by appropriateness filter")
			continue
		}

		imageURL := s.ensureImage(ctx, c.Meta, summary, role, language)
		return &Result{Title: c.Meta.Title, Summary: summary, ImageURL: imageURL}, nil
	}

	message := "No suitable book found."
	if language == LanguageRomanian {
		message = "Nu am găsit nicio carte potrivită."
	}
	return &Result{NoMatch: true, Message: message}, nil
}

// resolveRole picks the reader profile: the explicit role if valid, an
// inferred one otherwise, and adult as the fallback. When inference fails and
// the query is blank there is nothing to go on, so the caller is asked to
// clarify; that response is terminal for the request.
func (s *Service) resolveRole(ctx context.Context, req Request) (ReaderProfile, *Result) {
	if role, ok := ParseProfile(req.Role); ok {
		return role, nil
	}

	if s.deps.Profiles != nil {
		inferred, err := s.deps.Profiles.InferProfile(ctx, req.Query)
		if err == nil {
			if role, ok := ParseProfile(inferred); ok {
				return role, nil
			}
		} else {
			s.logger.Warn().Err(err).Msg("profile inference failed")
		}
	}

	if strings.TrimSpace(req.Query) == "" {
		prompt := "Who is the book for? (child, teen, adult, technical): "
		if req.Language == LanguageRomanian {
			prompt = "Pentru cine este cartea? (child, teen, adult, technical): "
		}
		return "", &Result{NeedsClarification: true, Message: prompt}
	}
	return ProfileAdult, nil
}

// fetchHistory loads the personalization inputs. A missing or malformed
// history degrades to no personalization; a connectivity failure from the
// store propagates, so a dead database is not silently mistaken for a new
// user.
func (s *Service) fetchHistory(ctx context.Context, username string) (map[string]struct{}, []HighRated, error) {
	if username == "" || s.deps.History == nil {
		return nil, nil, nil
	}
	records, err := s.deps.History.ReadBooks(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrMalformedRecord) {
			s.logger.Warn().Err(err).Str("username", username).
				Msg("history unavailable, continuing without personalization")
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("fetch read history: %w", err)
	}
	return readTitleSet(records), projectHighRated(records), nil
}

// resolveSummary takes the summary from the search metadata when present,
// otherwise from the summary lookup. Lookup errors mean malformed storage and
// propagate.
func (s *Service) resolveSummary(ctx context.Context, meta BookMeta) (string, error) {
	if meta.Summary != "" {
		return meta.Summary, nil
	}
	summary, err := s.deps.Summaries.SummaryByTitle(ctx, meta.Title)
	if err != nil {
		return "", fmt.Errorf("summary lookup for %q: %w", meta.Title, err)
	}
	return summary, nil
}

// ensureImage returns the cached image URL or lazily generates one. The
// prompt is always built in English, so non-English titles and summaries are
// translated first. Generation failures degrade to an empty URL; the book is
// still recommended.
func (s *Service) ensureImage(ctx context.Context, meta BookMeta, summary string, role ReaderProfile, language string) string {
	if meta.ImageURL != "" {
		return meta.ImageURL
	}
	if s.deps.Images == nil {
		return ""
	}

	title, promptSummary := meta.Title, summary
	if language != LanguageEnglish && s.deps.Translate != nil {
		if translated, err := s.deps.Translate.Translate(ctx, title, LanguageEnglish); err == nil {
			title = translated
		} else {
			s.logger.Warn().Err(err).Str("title", meta.Title).Msg("title translation failed, using original")
		}
		if translated, err := s.deps.Translate.Translate(ctx, summary, LanguageEnglish); err == nil {
			promptSummary = translated
		} else {
			s.logger.Warn().Err(err).Str("title", meta.Title).Msg("summary translation failed, using original")
		}
	}

	prompt := sanitizeForImagePrompt(promptSummary) + promptStyleSuffix(role)
	url, err := s.deps.Images.GenerateImage(ctx, title, prompt)
	if err != nil || url == "" {
		s.logger.Warn().Err(err).Str("title", meta.Title).Msg("image generation failed, returning book without image")
		return ""
	}

	if s.deps.ImageURLs != nil {
		if err := s.deps.ImageURLs.UpdateImageURL(ctx, meta.Title, url); err != nil {
			s.logger.Warn().Err(err).Str("title", meta.Title).Msg("image url write-back failed")
		}
	}
	return url
}
