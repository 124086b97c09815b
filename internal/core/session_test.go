package core

import (
	"errors"
	"testing"
)

func TestSessionDeliverReportsFullQueue(t *testing.T) {
	s := NewSession("s1", "ann", 1)

	if err := s.deliver(&Event{Kind: EventMessage}); err != nil {
		t.Fatalf("first deliver: %v", err)
	}
	if err := s.deliver(&Event{Kind: EventMessage}); !errors.Is(err, ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
}

func TestSessionDeliverSkipsClosedSession(t *testing.T) {
	s := NewSession("s1", "ann", 1)
	s.Close()
	s.Close()

	if !s.Closed() {
		t.Fatal("expected session to be closed")
	}
	for range 3 {
		if err := s.deliver(&Event{Kind: EventMessage}); err != nil {
			t.Fatalf("deliver to closed session: %v", err)
		}
	}
	if len(s.Events()) != 0 {
		t.Fatalf("closed session queued %d events", len(s.Events()))
	}
}

func TestSessionWatermark(t *testing.T) {
	s := NewSession("s1", "", 1)
	if s.Name != DefaultUser {
		t.Fatalf("expected default name, got %q", s.Name)
	}
	if s.LastDelivered() != -1 {
		t.Fatalf("expected initial watermark -1, got %d", s.LastDelivered())
	}

	if !s.MarkDelivered(0) || !s.MarkDelivered(3) {
		t.Fatal("expected watermark to advance")
	}
	if s.MarkDelivered(2) || s.MarkDelivered(3) {
		t.Fatal("watermark moved backwards or accepted a duplicate")
	}
	if s.LastDelivered() != 3 {
		t.Fatalf("expected watermark 3, got %d", s.LastDelivered())
	}
}

func TestSessionRejectQueuesError(t *testing.T) {
	s := NewSession("s1", "ann", 2)
	s.Reject(ErrEmptyMessage)

	ev := mustEvent(t, s.Events(), EventError)
	if ev.Error == nil || ev.Error.Code != ErrCodeEmptyMessage {
		t.Fatalf("unexpected error event: %+v", ev)
	}
}
