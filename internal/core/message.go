package core

import "time"

const (
	// DefaultUser is the display name used when a submission carries none.
	DefaultUser = "Anonymous"

	// TimeLayout and DateLayout are the display formats of the acceptance time.
	TimeLayout = "15:04:05"
	DateLayout = "2006-01-02"
)

// Message is the domain model for a chat message.
// Messages are never mutated after History assigns their ID.
type Message struct {
	ID        int64
	User      string
	Text      string
	CreatedAt time.Time
}

// Time returns the wall-clock acceptance time as HH:MM:SS.
func (m Message) Time() string {
	return m.CreatedAt.Format(TimeLayout)
}

// Date returns the acceptance date as YYYY-MM-DD.
func (m Message) Date() string {
	return m.CreatedAt.Format(DateLayout)
}
