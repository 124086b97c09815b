package core

import "errors"

// Error codes for domain errors surfaced to a single client.
const (
	ErrCodeEmptyMessage = "empty_message"
	ErrCodeBadRequest   = "bad_request"
	ErrCodeRateLimited  = "rate_limited"
	ErrCodeUnknownType  = "unknown_type"
	ErrCodeInternal     = "internal"
)

var (
	// ErrEmptyMessage is returned when the submitted text is blank after trimming.
	ErrEmptyMessage = errors.New("empty message")
	// ErrMalformedSubmission is returned when an inbound payload cannot be parsed or lacks a required field.
	ErrMalformedSubmission = errors.New("malformed submission")
	// ErrUnknownType is returned for inbound frames of a type the server does not handle.
	ErrUnknownType = errors.New("unknown message type")
	// ErrRateLimited is returned when a session submits faster than allowed.
	ErrRateLimited = errors.New("rate limited")
	// ErrDeliveryFailed marks a session whose outbound queue could not accept a message.
	ErrDeliveryFailed = errors.New("session delivery failed")
	// ErrTransportClosed wraps read/write failures on a peer connection.
	ErrTransportClosed = errors.New("transport closed")
	// ErrHubClosed is returned by operations attempted after shutdown.
	ErrHubClosed = errors.New("hub closed")
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// ErrorFor maps a recoverable domain error to the CoreError reported to the submitter.
func ErrorFor(err error) *CoreError {
	var ce *CoreError
	switch {
	case errors.As(err, &ce):
		return ce
	case errors.Is(err, ErrEmptyMessage):
		return coreError(ErrCodeEmptyMessage, "message text is empty")
	case errors.Is(err, ErrMalformedSubmission):
		return coreError(ErrCodeBadRequest, err.Error())
	case errors.Is(err, ErrUnknownType):
		return coreError(ErrCodeUnknownType, err.Error())
	case errors.Is(err, ErrRateLimited):
		return coreError(ErrCodeRateLimited, "too many messages, slow down")
	default:
		return coreError(ErrCodeInternal, "internal error")
	}
}
