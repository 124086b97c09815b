package store

import (
	"context"
	"time"
)

// Message is an archived chat message. IDs restart at zero on every server
// run, so RunID scopes them.
type Message struct {
	RunID     string
	ID        int64
	User      string
	Body      string
	CreatedAt time.Time
}

// MessageStore handles the transcript archive.
type MessageStore interface {
	// SaveMessage persists a message to storage.
	SaveMessage(ctx context.Context, msg *Message) error

	// ListMessages returns up to limit of the newest archived messages,
	// oldest first. An empty runID lists across all runs.
	ListMessages(ctx context.Context, runID string, limit int) ([]*Message, error)
}

// Store is the full storage interface.
type Store interface {
	MessageStore

	// Close releases the underlying database.
	Close() error
}
