package proto

const (
	InboundTypeMessage = "message"

	OutboundTypeMessage = "message"
	OutboundTypeHistory = "history"
	OutboundTypeError   = "error"
)

// Inbound is a frame coming from a WebSocket client.
// Text is a pointer so a missing field can be told apart from an empty one.
type Inbound struct {
	Type string  `json:"type"`
	User string  `json:"user,omitempty"`
	Text *string `json:"text"`
}

// Outbound is the envelope for frames sent to WebSocket clients.
type Outbound struct {
	Type  string `json:"type"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// Message is the wire form of a chat message, shared by push and poll.
type Message struct {
	ID   int64  `json:"id"`
	User string `json:"user"`
	Text string `json:"text"`
	Time string `json:"time"`
	Date string `json:"date"`
}

// SendRequest is the body of POST /send.
type SendRequest struct {
	User string  `json:"user"`
	Text *string `json:"text"`
}

// SendResponse acknowledges an accepted POST /send.
type SendResponse struct {
	Status string `json:"status"`
	ID     int64  `json:"id"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
