package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/vovakirdan/lanchat-server/internal/store"
)

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

func mustNoEvent(t *testing.T, ch <-chan *Event, wait time.Duration) {
	t.Helper()

	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(wait):
	}
}

func startHub(t *testing.T, opts Options) *Broadcaster {
	t.Helper()

	hub := NewBroadcaster(opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub
}

// joinSession joins a fresh session and consumes its history replay.
func joinSession(t *testing.T, hub *Broadcaster, id, name string) (*Session, []Message) {
	t.Helper()

	s := NewSession(id, name, 16)
	hub.Join(s)
	ev := mustEvent(t, s.Events(), EventHistory)
	return s, ev.Messages
}

type memoryArchive struct {
	mu       sync.Mutex
	messages []*store.Message
}

func (a *memoryArchive) SaveMessage(_ context.Context, msg *store.Message) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, msg)
	return nil
}

func (a *memoryArchive) ListMessages(_ context.Context, runID string, limit int) ([]*store.Message, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var out []*store.Message
	for _, m := range a.messages {
		if runID == "" || m.RunID == runID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (a *memoryArchive) len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.messages)
}
