package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrHandleTaken is returned when registering a handle that exists.
	ErrHandleTaken = errors.New("handle already registered")
	// ErrHistoryConflict is returned when a profile being saved holds fewer
	// turns than are already stored. Turns are append-only.
	ErrHistoryConflict = errors.New("conversation history is behind stored history")
)

// Credential links a login handle to a profile.
type Credential struct {
	Handle       string
	PasswordHash string
	ProfileID    string
	CreatedAt    time.Time
}

// ProfileRef is a lightweight listing entry.
type ProfileRef struct {
	ID        string
	Name      string
	UpdatedAt time.Time
}
