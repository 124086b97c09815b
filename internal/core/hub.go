package core

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/lanchat-server/internal/store"
)

const (
	archiveBuffer  = 256
	archiveTimeout = 5 * time.Second
)

// Hub is the chat core as seen by transports.
type Hub interface {
	// Run drives background work until ctx is done, then closes all sessions.
	Run(ctx context.Context)
	// Join registers a session and queues the recent history to it.
	Join(s *Session)
	// Leave unregisters and closes a session.
	Leave(s *Session)
	// Submit accepts a message and fans it out to every joined session.
	Submit(ctx context.Context, user, text string) (Message, error)
	// Snapshot returns retained messages newer than afterID.
	Snapshot(afterID int64) []Message
	// Wait blocks until a message newer than afterID exists or timeout elapses.
	Wait(ctx context.Context, afterID int64, timeout time.Duration) ([]Message, error)
	// Stats reports current counters.
	Stats() Stats
}

// Stats is a point-in-time view of the hub.
type Stats struct {
	Sessions int   `json:"sessions"`
	Messages int   `json:"messages"`
	NextID   int64 `json:"next_id"`
}

// Options configure a Broadcaster. Zero values fall back to defaults.
type Options struct {
	Window   int
	Capacity int
	// Archive, when set, receives every accepted message in the background.
	Archive store.MessageStore
	RunID   string
	Logger  *zerolog.Logger
}

// Broadcaster appends accepted messages to History and pushes them to every
// session in the Registry.
type Broadcaster struct {
	history  *History
	registry *Registry
	window   int

	// mu orders append+fan-out and join so that every session sees
	// messages in append order.
	mu sync.Mutex

	archive   store.MessageStore
	archiveCh chan Message
	runID     string

	life context.Context
	stop context.CancelFunc

	log *zerolog.Logger
}

var _ Hub = (*Broadcaster)(nil)

// NewBroadcaster creates a new chat hub instance.
func NewBroadcaster(opts Options) *Broadcaster {
	window := opts.Window
	if window <= 0 {
		window = DefaultHistoryWindow
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	life, stop := context.WithCancel(context.Background())
	b := &Broadcaster{
		history:  NewHistory(opts.Capacity),
		registry: NewRegistry(),
		window:   window,
		runID:    opts.RunID,
		life:     life,
		stop:     stop,
		log:      logger,
	}
	if opts.Archive != nil {
		b.archive = opts.Archive
		b.archiveCh = make(chan Message, archiveBuffer)
	}
	return b
}

// Run archives accepted messages until ctx is done. On return every session
// is closed and pending Wait calls are released.
func (b *Broadcaster) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			b.shutdown()
			b.drainArchive()
			return
		case msg := <-b.archiveCh:
			b.archiveMessage(msg)
		}
	}
}

// Join registers s and queues the recall window as its first event.
func (b *Broadcaster) Join(s *Session) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.life.Err() != nil {
		s.Close()
		return
	}

	if replaced := b.registry.Register(s); replaced != nil {
		replaced.Close()
		b.log.Info().Str("session_id", s.ID).Msg("replaced session with duplicate id")
	}

	recent := b.history.Recent(b.window)
	if err := s.deliver(&Event{Kind: EventHistory, Messages: recent}); err != nil {
		b.log.Warn().Err(err).Str("session_id", s.ID).Msg("history replay dropped")
	}

	b.log.Info().
		Str("session_id", s.ID).
		Str("user", s.Name).
		Int("replayed", len(recent)).
		Int("sessions", b.registry.Len()).
		Msg("session joined")
}

// Leave unregisters and closes s. Calling it for an unknown session is a no-op.
func (b *Broadcaster) Leave(s *Session) {
	removed := b.registry.Unregister(s)
	s.Close()
	if removed {
		b.log.Info().
			Str("session_id", s.ID).
			Int("sessions", b.registry.Len()).
			Msg("session left")
	}
}

// Submit appends a message and delivers it to every joined session. A
// session whose queue is full is dropped without affecting the others.
func (b *Broadcaster) Submit(ctx context.Context, user, text string) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}

	b.mu.Lock()
	if b.life.Err() != nil {
		b.mu.Unlock()
		return Message{}, ErrHubClosed
	}
	msg, err := b.history.Append(user, text)
	if err != nil {
		b.mu.Unlock()
		return Message{}, err
	}
	failed := b.fanOut(&Event{Kind: EventMessage, Message: msg})
	b.enqueueArchive(msg)
	b.mu.Unlock()

	for _, s := range failed {
		b.log.Warn().
			Err(ErrDeliveryFailed).
			Str("session_id", s.ID).
			Int64("msg_id", msg.ID).
			Msg("dropping slow session")
		b.Leave(s)
	}

	b.log.Debug().Int64("msg_id", msg.ID).Str("user", msg.User).Msg("message accepted")
	return msg, nil
}

// Snapshot returns retained messages newer than afterID.
func (b *Broadcaster) Snapshot(afterID int64) []Message {
	return b.history.Snapshot(afterID)
}

// Wait blocks until a message newer than afterID exists, the timeout elapses
// or ctx is done. Shutdown of the hub ends the wait with an empty result.
func (b *Broadcaster) Wait(ctx context.Context, afterID int64, timeout time.Duration) ([]Message, error) {
	waitCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	release := context.AfterFunc(b.life, cancel)
	defer release()

	msgs, err := b.history.Wait(waitCtx, afterID, timeout)
	if err != nil && ctx.Err() == nil && b.life.Err() != nil {
		return []Message{}, nil
	}
	return msgs, err
}

// Stats reports current counters.
func (b *Broadcaster) Stats() Stats {
	return Stats{
		Sessions: b.registry.Len(),
		Messages: b.history.Len(),
		NextID:   b.history.NextID(),
	}
}

// fanOut must be called with b.mu held. It returns sessions that could not
// accept the event.
func (b *Broadcaster) fanOut(ev *Event) []*Session {
	var failed []*Session
	for _, s := range b.registry.Active() {
		if err := s.deliver(ev); err != nil {
			failed = append(failed, s)
		}
	}
	return failed
}

func (b *Broadcaster) enqueueArchive(msg Message) {
	if b.archiveCh == nil {
		return
	}
	select {
	case b.archiveCh <- msg:
	default:
		b.log.Warn().Int64("msg_id", msg.ID).Msg("archive queue full, message not archived")
	}
}

func (b *Broadcaster) drainArchive() {
	for {
		select {
		case msg := <-b.archiveCh:
			b.archiveMessage(msg)
		default:
			return
		}
	}
}

func (b *Broadcaster) archiveMessage(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	err := b.archive.SaveMessage(ctx, &store.Message{
		RunID:     b.runID,
		ID:        msg.ID,
		User:      msg.User,
		Body:      msg.Text,
		CreatedAt: msg.CreatedAt,
	})
	if err != nil {
		b.log.Error().Err(err).Int64("msg_id", msg.ID).Msg("failed to archive message")
	}
}

func (b *Broadcaster) shutdown() {
	b.mu.Lock()
	b.stop()
	sessions := b.registry.Active()
	for _, s := range sessions {
		b.registry.Unregister(s)
		s.Close()
	}
	b.mu.Unlock()

	b.log.Info().Int("sessions", len(sessions)).Msg("hub stopped")
}
