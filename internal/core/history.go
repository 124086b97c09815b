package core

import (
	"context"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultHistoryCapacity bounds how many messages History retains.
	DefaultHistoryCapacity = 1000
	// DefaultHistoryWindow is the number of recent messages replayed on join.
	DefaultHistoryWindow = 50
)

// History is the append-only message log. It owns the ID counter and keeps
// at most capacity messages; IDs keep increasing after older messages are
// evicted.
type History struct {
	mu       sync.RWMutex
	messages []Message
	nextID   int64
	capacity int
	// notify is closed and replaced on every append to wake Wait callers.
	notify chan struct{}
	now    func() time.Time
}

// NewHistory creates an empty history retaining up to capacity messages.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistoryCapacity
	}
	return &History{
		messages: make([]Message, 0, min(capacity, 64)),
		capacity: capacity,
		notify:   make(chan struct{}),
		now:      time.Now,
	}
}

// Append validates and stores a new message, assigning it the next ID.
// Blank text is rejected with ErrEmptyMessage and consumes no ID.
func (h *History) Append(user, text string) (Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Message{}, ErrEmptyMessage
	}
	user = normalizeUser(user)

	h.mu.Lock()
	defer h.mu.Unlock()

	msg := Message{
		ID:        h.nextID,
		User:      user,
		Text:      text,
		CreatedAt: h.now(),
	}
	h.nextID++

	if len(h.messages) >= h.capacity {
		n := copy(h.messages, h.messages[1:])
		h.messages = h.messages[:n]
	}
	h.messages = append(h.messages, msg)

	close(h.notify)
	h.notify = make(chan struct{})

	return msg, nil
}

// Snapshot returns retained messages with ID greater than afterID, oldest first.
// An afterID of -1 returns everything retained.
func (h *History) Snapshot(afterID int64) []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.after(afterID)
}

// Recent returns up to n of the newest retained messages, oldest first.
func (h *History) Recent(n int) []Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || len(h.messages) == 0 {
		return []Message{}
	}
	start := max(len(h.messages)-n, 0)
	out := make([]Message, len(h.messages)-start)
	copy(out, h.messages[start:])
	return out
}

// Wait blocks until a message newer than afterID exists, the timeout
// elapses, or ctx is done. On timeout it returns an empty slice and no error.
func (h *History) Wait(ctx context.Context, afterID int64, timeout time.Duration) ([]Message, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		h.mu.RLock()
		msgs := h.after(afterID)
		notify := h.notify
		h.mu.RUnlock()

		if len(msgs) > 0 {
			return msgs, nil
		}

		select {
		case <-notify:
		case <-timer.C:
			return []Message{}, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len reports how many messages are currently retained.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.messages)
}

// NextID reports the ID the next accepted message will receive, which is
// also the total number of messages accepted so far.
func (h *History) NextID() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.nextID
}

// after must be called with h.mu held.
func (h *History) after(afterID int64) []Message {
	if len(h.messages) == 0 || afterID >= h.nextID-1 {
		return []Message{}
	}

	// Retained IDs are contiguous, so the offset is computed directly.
	start := afterID + 1 - h.messages[0].ID
	if start < 0 {
		start = 0
	}
	out := make([]Message, int64(len(h.messages))-start)
	copy(out, h.messages[start:])
	return out
}

func normalizeUser(user string) string {
	user = strings.TrimSpace(user)
	if user == "" {
		return DefaultUser
	}
	return user
}
