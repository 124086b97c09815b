package core

import (
	"sync"
	"sync/atomic"
)

// DefaultSendBuffer is the outbound queue size of a session.
const DefaultSendBuffer = 64

// Session is a connected peer as seen by the core layer.
type Session struct {
	ID   string
	Name string

	events    chan *Event
	done      chan struct{}
	closeOnce sync.Once

	// lastDelivered is the highest message ID written to the peer.
	lastDelivered atomic.Int64
}

// NewSession constructs a session with an outbound queue of the given size.
func NewSession(id, name string, buffer int) *Session {
	if buffer <= 0 {
		buffer = DefaultSendBuffer
	}
	s := &Session{
		ID:     id,
		Name:   normalizeUser(name),
		events: make(chan *Event, buffer),
		done:   make(chan struct{}),
	}
	s.lastDelivered.Store(-1)
	return s
}

// Events is the outbound queue drained by the transport.
func (s *Session) Events() <-chan *Event {
	return s.events
}

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close marks the session closed. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// LastDelivered returns the watermark, -1 if nothing was delivered yet.
func (s *Session) LastDelivered() int64 {
	return s.lastDelivered.Load()
}

// MarkDelivered advances the watermark to id. It returns false when id is
// not newer than the current watermark, i.e. the message was already sent.
func (s *Session) MarkDelivered(id int64) bool {
	for {
		cur := s.lastDelivered.Load()
		if id <= cur {
			return false
		}
		if s.lastDelivered.CompareAndSwap(cur, id) {
			return true
		}
	}
}

// Reject queues an error event for this session only. It is dropped if the
// queue is full.
func (s *Session) Reject(err error) {
	_ = s.deliver(&Event{Kind: EventError, Error: ErrorFor(err)})
}

// deliver enqueues without blocking. Closed sessions are skipped silently;
// a full queue yields ErrDeliveryFailed.
func (s *Session) deliver(ev *Event) error {
	select {
	case <-s.done:
		return nil
	default:
	}

	select {
	case s.events <- ev:
		return nil
	default:
		return ErrDeliveryFailed
	}
}
