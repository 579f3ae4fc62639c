package store

import "time"

// User is an account row. PasswordHash is never serialized.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Language     string    `json:"language"`
	Profile      string    `json:"profile"`
	VoiceEnabled bool      `json:"voice_enabled"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserUpdate carries the fields an update may change; nil means unchanged.
type UserUpdate struct {
	Email        *string
	Language     *string
	Profile      *string
	VoiceEnabled *bool
	PasswordHash *string
}

// Book is a catalog row. Title is unique and matched case-insensitively.
type Book struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Summary string `json:"summary,omitempty"`
	Genre   string `json:"genre,omitempty"`
	Author  string `json:"author,omitempty"`
}
