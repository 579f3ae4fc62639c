package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"libraria.app/recommender/internal/api"
	"libraria.app/recommender/internal/config"
	"libraria.app/recommender/internal/core"
	"libraria.app/recommender/internal/llm"
	"libraria.app/recommender/internal/store"
	"libraria.app/recommender/internal/vectorstore"
	"libraria.app/recommender/pkg/openai"
)

func main() {
	ingestPath := flag.String("ingest", "", "path to a JSON catalog file to ingest, then exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg)

	if err := run(cfg, logger, *ingestPath); err != nil {
		logger.Fatal().Err(err).Msg("server exited")
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	if cfg.Environment == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
	return logger
}

func run(cfg *config.Config, logger zerolog.Logger, ingestPath string) error {
	ctx := context.Background()

	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()

	gemini, err := llm.NewService(ctx, cfg.GeminiAPIKey)
	if err != nil {
		return fmt.Errorf("failed to create language model client: %w", err)
	}
	defer gemini.Close()

	vectors, err := vectorstore.New(db.DB(), gemini, logger)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}

	if ingestPath != "" {
		return ingestCatalog(ctx, logger, ingestPath, db, vectors)
	}

	images := openai.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey)

	recommender := core.NewService(core.Deps{
		Search:    vectors,
		Summaries: db,
		History:   db,
		Profiles:  gemini,
		Translate: gemini,
		Images:    images,
		ImageURLs: vectors,
	}, logger)

	handler := api.NewAPIHandler(recommender, gemini, images, vectors, db, []byte(cfg.JWTSecret), logger)
	router := api.NewRouter(handler, logger)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

type catalogEntry struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	Genre   string `json:"genre"`
	Author  string `json:"author"`
}

// ingestCatalog loads a JSON array of books into the catalog and the vector
// store. Entries without a title are skipped; embedding failures abort so a
// partial ingest is visible.
func ingestCatalog(ctx context.Context, logger zerolog.Logger, path string, db *store.SQLiteStore, vectors *vectorstore.Store) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read catalog file: %w", err)
	}

	var entries []catalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse catalog file: %w", err)
	}

	ingested := 0
	for _, e := range entries {
		if e.Title == "" {
			logger.Warn().Msg("skipping catalog entry without a title")
			continue
		}
		if err := db.UpsertBook(ctx, store.Book{Title: e.Title, Summary: e.Summary, Genre: e.Genre, Author: e.Author}); err != nil {
			return err
		}
		text := e.Title + "\n" + e.Summary
		if err := vectors.Upsert(ctx, core.BookMeta{Title: e.Title, Genre: e.Genre, Author: e.Author}, text); err != nil {
			return err
		}
		ingested++
	}

	logger.Info().Int("ingested", ingested).Int("total", len(entries)).Msg("catalog ingest complete")
	return nil
}
