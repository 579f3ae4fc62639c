// Package api exposes the recommendation backend over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"libraria.app/recommender/internal/auth"
	"libraria.app/recommender/internal/core"
	"libraria.app/recommender/internal/store"
)

// Recommender runs the recommendation pipeline for one request.
type Recommender interface {
	Recommend(ctx context.Context, req core.Request) (*core.Result, error)
}

// Translator translates text into "english" or "romanian".
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Transcriber converts an uploaded audio file to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename, language string) (string, error)
}

// TitleSearcher does substring lookup over catalog titles, for autocomplete.
type TitleSearcher interface {
	SearchTitles(ctx context.Context, q string, limit, offset int) ([]string, error)
}

// UserStore is the account and read-history persistence the handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, u store.User) (*store.User, error)
	UserByUsername(ctx context.Context, username string) (*store.User, error)
	UpdateUser(ctx context.Context, username string, update store.UserUpdate) error
	DeleteUser(ctx context.Context, username string) error
	AddReadBook(ctx context.Context, username, title string, rating *int) error
	ReadBooks(ctx context.Context, username string) ([]core.ReadRecord, error)
}

type APIHandler struct {
	recommender Recommender
	translator  Translator
	transcriber Transcriber
	titles      TitleSearcher
	users       UserStore
	jwtSecret   []byte
	logger      zerolog.Logger
}

func NewAPIHandler(recommender Recommender, translator Translator, transcriber Transcriber, titles TitleSearcher, users UserStore, jwtSecret []byte, logger zerolog.Logger) *APIHandler {
	return &APIHandler{
		recommender: recommender,
		translator:  translator,
		transcriber: transcriber,
		titles:      titles,
		users:       users,
		jwtSecret:   jwtSecret,
		logger:      logger.With().Str("component", "api").Logger(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// storeErrorStatus maps store sentinels onto HTTP statuses.
func storeErrorStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *APIHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type registerRequest struct {
	Username     string `json:"username"`
	Password     string `json:"password"`
	Email        string `json:"email"`
	Language     string `json:"language"`
	Profile      string `json:"profile"`
	VoiceEnabled bool   `json:"voice_enabled"`
}

func (h *APIHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	if req.Language == "" {
		req.Language = core.LanguageEnglish
	}
	if req.Profile == "" {
		req.Profile = string(core.ProfileAdult)
	} else if _, ok := core.ParseProfile(req.Profile); !ok {
		writeError(w, http.StatusBadRequest, "profile must be one of child, teen, adult, technical")
		return
	}

	if _, err := h.users.UserByUsername(r.Context(), req.Username); err == nil {
		writeError(w, http.StatusConflict, "username already taken")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to hash password")
		writeError(w, http.StatusInternalServerError, "failed to register user")
		return
	}

	user, err := h.users.CreateUser(r.Context(), store.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Language:     strings.ToLower(req.Language),
		Profile:      strings.ToLower(req.Profile),
		VoiceEnabled: req.VoiceEnabled,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("username", req.Username).Msg("failed to create user")
		writeError(w, storeErrorStatus(err), "failed to register user")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.users.UserByUsername(r.Context(), req.Username)
	if err != nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	token, err := auth.GenerateJWT(h.jwtSecret, user.Username)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to generate token")
		writeError(w, http.StatusInternalServerError, "failed to log in")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

type recommendRequest struct {
	Query    string `json:"query"`
	Role     string `json:"role"`
	Language string `json:"language"`
}

func (h *APIHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := usernameFromContext(r.Context())
	language := strings.ToLower(req.Language)
	if username != "" {
		if user, err := h.users.UserByUsername(r.Context(), username); err == nil {
			if language == "" {
				language = user.Language
			}
			if req.Role == "" {
				req.Role = user.Profile
			}
		}
	}

	result, err := h.recommender.Recommend(r.Context(), core.Request{
		Query:    req.Query,
		Role:     req.Role,
		Language: language,
		Username: username,
	})
	if err != nil {
		h.logger.Error().Err(err).Str("username", username).Msg("recommendation failed")
		writeError(w, http.StatusInternalServerError, "recommendation failed")
		return
	}

	switch {
	case result.NeedsClarification:
		writeJSON(w, http.StatusOK, map[string]any{"clarify_role": true, "prompt": result.Message})
	case result.NoMatch:
		writeJSON(w, http.StatusOK, map[string]any{"no_match": true, "message": result.Message})
	default:
		writeJSON(w, http.StatusOK, map[string]string{
			"title":     result.Title,
			"summary":   result.Summary,
			"image_url": result.ImageURL,
		})
	}
}

type translateRequest struct {
	Text       string `json:"text"`
	TargetLang string `json:"target_lang"`
}

func (h *APIHandler) Translate(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeJSON(w, http.StatusOK, map[string]string{"translated": ""})
		return
	}
	target := strings.ToLower(req.TargetLang)
	if target != core.LanguageEnglish && target != core.LanguageRomanian {
		writeError(w, http.StatusBadRequest, "target_lang must be english or romanian")
		return
	}

	translated, err := h.translator.Translate(r.Context(), req.Text, target)
	if err != nil {
		h.logger.Warn().Err(err).Msg("translation failed, returning original text")
		writeJSON(w, http.StatusOK, map[string]string{"translated": req.Text, "error": "translation unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"translated": translated})
}

const maxAudioUploadBytes = 25 << 20

func (h *APIHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxAudioUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form with an audio file")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing audio file")
		return
	}
	defer file.Close()

	language := ""
	switch strings.ToLower(r.FormValue("language")) {
	case core.LanguageEnglish:
		language = "en"
	case core.LanguageRomanian:
		language = "ro"
	}

	text, err := h.transcriber.Transcribe(r.Context(), file, header.Filename, language)
	if err != nil {
		h.logger.Error().Err(err).Msg("transcription failed")
		writeError(w, http.StatusBadGateway, "transcription failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (h *APIHandler) SearchTitles(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	limit := parseQueryInt(r, "limit", 20)
	offset := parseQueryInt(r, "offset", 0)
	if limit < 1 || limit > 100 || offset < 0 {
		writeError(w, http.StatusBadRequest, "limit must be 1-100 and offset non-negative")
		return
	}

	titles, err := h.titles.SearchTitles(r.Context(), q, limit, offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("title search failed")
		writeError(w, http.StatusInternalServerError, "title search failed")
		return
	}
	if titles == nil {
		titles = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"titles": titles})
}

func parseQueryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}

type updateUserRequest struct {
	Email        *string `json:"email"`
	Language     *string `json:"language"`
	Profile      *string `json:"profile"`
	VoiceEnabled *bool   `json:"voice_enabled"`
	Password     *string `json:"password"`
}

func (h *APIHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	username := usernameFromContext(r.Context())

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Profile != nil {
		if _, ok := core.ParseProfile(*req.Profile); !ok {
			writeError(w, http.StatusBadRequest, "profile must be one of child, teen, adult, technical")
			return
		}
		lowered := strings.ToLower(*req.Profile)
		req.Profile = &lowered
	}
	if req.Language != nil {
		lowered := strings.ToLower(*req.Language)
		if lowered != core.LanguageEnglish && lowered != core.LanguageRomanian {
			writeError(w, http.StatusBadRequest, "language must be english or romanian")
			return
		}
		req.Language = &lowered
	}

	update := store.UserUpdate{
		Email:        req.Email,
		Language:     req.Language,
		Profile:      req.Profile,
		VoiceEnabled: req.VoiceEnabled,
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to hash password")
			writeError(w, http.StatusInternalServerError, "failed to update user")
			return
		}
		update.PasswordHash = &hash
	}

	if err := h.users.UpdateUser(r.Context(), username, update); err != nil {
		writeError(w, storeErrorStatus(err), "failed to update user")
		return
	}

	user, err := h.users.UserByUsername(r.Context(), username)
	if err != nil {
		writeError(w, storeErrorStatus(err), "failed to load updated user")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *APIHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	username := usernameFromContext(r.Context())
	if err := h.users.DeleteUser(r.Context(), username); err != nil {
		writeError(w, storeErrorStatus(err), "failed to delete user")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type addReadBookRequest struct {
	Title  string `json:"title"`
	Rating *int   `json:"rating"`
}

func (h *APIHandler) AddReadBook(w http.ResponseWriter, r *http.Request) {
	username := usernameFromContext(r.Context())

	var req addReadBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		writeError(w, http.StatusBadRequest, "rating must be between 1 and 5")
		return
	}

	if err := h.users.AddReadBook(r.Context(), username, req.Title, req.Rating); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			writeError(w, http.StatusNotFound, "book is not in the catalog")
			return
		}
		h.logger.Error().Err(err).Str("username", username).Msg("failed to record read book")
		writeError(w, http.StatusInternalServerError, "failed to record read book")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

type readBookResponse struct {
	Title    string `json:"title"`
	Rating   *int   `json:"rating,omitempty"`
	ReadDate string `json:"read_date,omitempty"`
	Genre    string `json:"genre,omitempty"`
	Author   string `json:"author,omitempty"`
}

func (h *APIHandler) ReadBooks(w http.ResponseWriter, r *http.Request) {
	username := usernameFromContext(r.Context())

	records, err := h.users.ReadBooks(r.Context(), username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) || errors.Is(err, core.ErrMalformedRecord) {
			writeJSON(w, http.StatusOK, map[string]any{"books": []readBookResponse{}})
			return
		}
		h.logger.Error().Err(err).Str("username", username).Msg("failed to load read books")
		writeError(w, http.StatusInternalServerError, "failed to load read books")
		return
	}

	books := make([]readBookResponse, 0, len(records))
	for _, rec := range records {
		b := readBookResponse{Title: rec.Title, Rating: rec.Rating, Genre: rec.Genre, Author: rec.Author}
		if rec.ReadDate != nil {
			b.ReadDate = rec.ReadDate.UTC().Format("2006-01-02T15:04:05Z")
		}
		books = append(books, b)
	}
	writeJSON(w, http.StatusOK, map[string]any{"books": books})
}
