// Package store persists user accounts, the book catalog, and per-user read
// records in SQLite.
package store

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	"libraria.app/recommender/internal/core"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dataSourceName string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err = store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle so other stores can share the connection.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS users (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        username TEXT UNIQUE NOT NULL,
        email TEXT NOT NULL DEFAULT '',
        password_hash TEXT NOT NULL,
        language TEXT NOT NULL DEFAULT 'english',
        profile TEXT NOT NULL DEFAULT 'adult',
        voice_enabled BOOLEAN NOT NULL DEFAULT FALSE,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS books (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        title TEXT NOT NULL UNIQUE COLLATE NOCASE,
        summary TEXT,
        genre TEXT,
        author TEXT
    );

    CREATE TABLE IF NOT EXISTS user_read_books (
        user_id INTEGER NOT NULL,
        book_id INTEGER NOT NULL,
        rating INTEGER,
        read_date DATETIME DEFAULT CURRENT_TIMESTAMP,
        PRIMARY KEY (user_id, book_id),
        FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE,
        FOREIGN KEY (book_id) REFERENCES books (id)
    );
    `
	_, err := s.db.Exec(schema)
	return err
}

// User methods

func (s *SQLiteStore) CreateUser(ctx context.Context, u User) (*User, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, language, profile, voice_enabled) VALUES (?, ?, ?, ?, ?, ?)",
		u.Username, u.Email, u.PasswordHash, u.Language, u.Profile, u.VoiceEnabled)
	if err != nil {
		return nil, fmt.Errorf("failed to insert user %q: %w", u.Username, err)
	}
	id, _ := res.LastInsertId()
	return s.userByID(ctx, id)
}

func (s *SQLiteStore) UserByUsername(ctx context.Context, username string) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, language, profile, voice_enabled, created_at FROM users WHERE username = ?",
		username))
}

func (s *SQLiteStore) userByID(ctx context.Context, id int64) (*User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		"SELECT id, username, email, password_hash, language, profile, voice_enabled, created_at FROM users WHERE id = ?",
		id))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Language, &u.Profile, &u.VoiceEnabled, &u.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

func (s *SQLiteStore) UpdateUser(ctx context.Context, username string, update UserUpdate) error {
	set := ""
	var args []any
	appendField := func(column string, value any) {
		if set != "" {
			set += ", "
		}
		set += column + " = ?"
		args = append(args, value)
	}
	if update.Email != nil {
		appendField("email", *update.Email)
	}
	if update.Language != nil {
		appendField("language", *update.Language)
	}
	if update.Profile != nil {
		appendField("profile", *update.Profile)
	}
	if update.VoiceEnabled != nil {
		appendField("voice_enabled", *update.VoiceEnabled)
	}
	if update.PasswordHash != nil {
		appendField("password_hash", *update.PasswordHash)
	}
	if set == "" {
		return fmt.Errorf("no fields to update: %w", core.ErrInvalidInput)
	}
	args = append(args, username)

	res, err := s.db.ExecContext(ctx, "UPDATE users SET "+set+" WHERE username = ?", args...)
	if err != nil {
		return fmt.Errorf("failed to update user %q: %w", username, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("user %q: %w", username, core.ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) DeleteUser(ctx context.Context, username string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE username = ?", username)
	if err != nil {
		return fmt.Errorf("failed to delete user %q: %w", username, err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return fmt.Errorf("user %q: %w", username, core.ErrNotFound)
	}
	return nil
}

// Book methods

// UpsertBook inserts a catalog entry or refreshes its fields by title.
func (s *SQLiteStore) UpsertBook(ctx context.Context, b Book) error {
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO books (title, summary, genre, author) VALUES (?, ?, ?, ?)
        ON CONFLICT(title) DO UPDATE SET summary = excluded.summary, genre = excluded.genre, author = excluded.author`,
		b.Title, b.Summary, b.Genre, b.Author)
	if err != nil {
		return fmt.Errorf("failed to upsert book %q: %w", b.Title, err)
	}
	return nil
}

// SummaryByTitle resolves a summary case-insensitively. Missing titles and
// empty summaries yield the sentinel, not an error.
func (s *SQLiteStore) SummaryByTitle(ctx context.Context, title string) (string, error) {
	var summary sql.NullString
	err := s.db.QueryRowContext(ctx, "SELECT summary FROM books WHERE title = ?", title).Scan(&summary)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.SummaryNotFound, nil
		}
		return "", fmt.Errorf("failed to query summary for %q: %w", title, err)
	}
	if !summary.Valid || summary.String == "" {
		return core.SummaryNotFound, nil
	}
	return summary.String, nil
}

// Read-history methods

// AddReadBook upserts a (user, book) read record. The book must already be in
// the catalog; unknown titles are rejected so the history stays joinable.
func (s *SQLiteStore) AddReadBook(ctx context.Context, username, title string, rating *int) error {
	var userID int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM users WHERE username = ?", username).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("user %q: %w", username, core.ErrNotFound)
		}
		return fmt.Errorf("failed to look up user %q: %w", username, err)
	}

	var bookID int64
	err = s.db.QueryRowContext(ctx, "SELECT id FROM books WHERE title = ?", title).Scan(&bookID)
	if err != nil {
		if err == sql.ErrNoRows {
			return fmt.Errorf("book %q is not in the catalog: %w", title, core.ErrNotFound)
		}
		return fmt.Errorf("failed to look up book %q: %w", title, err)
	}

	_, err = s.db.ExecContext(ctx, `
        INSERT INTO user_read_books (user_id, book_id, rating, read_date) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT(user_id, book_id) DO UPDATE SET rating = excluded.rating, read_date = excluded.read_date`,
		userID, bookID, rating)
	if err != nil {
		return fmt.Errorf("failed to upsert read record: %w", err)
	}
	return nil
}

// ReadBooks returns the user's read records joined with catalog fields,
// newest first. It implements the recommendation pipeline's HistoryStore.
func (s *SQLiteStore) ReadBooks(ctx context.Context, username string) ([]core.ReadRecord, error) {
	var userID int64
	err := s.db.QueryRowContext(ctx, "SELECT id FROM users WHERE username = ?", username).Scan(&userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("user %q: %w", username, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to look up user %q: %w", username, err)
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT b.title, ur.rating, ur.read_date, COALESCE(b.genre, ''), COALESCE(b.author, ''), COALESCE(b.summary, '')
        FROM user_read_books ur
        JOIN books b ON ur.book_id = b.id
        WHERE ur.user_id = ?
        ORDER BY ur.read_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query read books: %w", err)
	}
	defer rows.Close()

	var records []core.ReadRecord
	for rows.Next() {
		var r core.ReadRecord
		var rating sql.NullInt64
		var readDate sql.NullTime
		if err := rows.Scan(&r.Title, &rating, &readDate, &r.Genre, &r.Author, &r.Summary); err != nil {
			return nil, fmt.Errorf("read record for %q: %w", username, core.ErrMalformedRecord)
		}
		if rating.Valid {
			v := int(rating.Int64)
			r.Rating = &v
		}
		if readDate.Valid {
			t := readDate.Time
			r.ReadDate = &t
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate read books: %w", err)
	}
	return records, nil
}
