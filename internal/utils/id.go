package utils

import "github.com/google/uuid"

// NewID returns a random identifier for sessions, requests and server runs.
func NewID() string {
	return uuid.NewString()
}
