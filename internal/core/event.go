package core

// EventKind is a notification the core emits to sessions.
type EventKind int

const (
	// EventMessage carries one newly accepted message.
	EventMessage EventKind = iota
	// EventHistory replays the recall window to a session that just joined.
	EventHistory
	// EventError reports a rejected submission back to its sender only.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventMessage:
		return "message"
	case EventHistory:
		return "history"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is queued to a session to describe what happened in the system.
type Event struct {
	Kind     EventKind
	Message  Message
	Messages []Message // For EventHistory
	Error    *CoreError
}
