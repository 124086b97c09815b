package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/lanchat-server/internal/config"
	"github.com/vovakirdan/lanchat-server/internal/core"
	"github.com/vovakirdan/lanchat-server/internal/utils"
)

var errSessionClosed = errors.New("session closed by hub")

// WSHandler upgrades HTTP connections and bridges them to core.Session.
type WSHandler struct {
	hub             core.Hub
	maxMessageBytes int64
	sendBuffer      int
	rateLimit       int
	log             *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub core.Hub, cfg *config.Config, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{
		hub:             hub,
		maxMessageBytes: cfg.MaxMessageBytes,
		sendBuffer:      cfg.Session.SendBuffer,
		rateLimit:       cfg.RateLimitPerMinute,
		log:             logger,
	}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Str("remote", r.RemoteAddr).Msg("ws accept error")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "internal error")
	conn.SetReadLimit(h.maxMessageBytes)

	session := core.NewSession(utils.NewID(), r.URL.Query().Get("user"), h.sendBuffer)
	log := h.log.With().
		Str("session_id", session.ID).
		Str("user", session.Name).
		Str("remote", r.RemoteAddr).
		Logger()
	log.Info().Msg("ws upgraded")

	h.hub.Join(session)
	defer h.hub.Leave(session)

	limiter := newRateLimiter(h.rateLimit, time.Minute)
	stopLimiter := make(chan struct{})
	limiter.startReset(stopLimiter)
	defer close(stopLimiter)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, session, limiter, &log)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, session, &log)
	}()

	err = <-errCh
	if errors.Is(err, errSessionClosed) {
		// Hub shutdown or slow consumer. The close frame has to go out
		// before cancel, which would tear down the pending read.
		log.Debug().Int64("last_delivered", session.LastDelivered()).Msg("ws session closed by hub")
		conn.Close(websocket.StatusGoingAway, "session closed")
		cancel()
		<-errCh
		return
	}
	cancel() // stop the other goroutine
	<-errCh

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != -1 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = "connection error"
			log.Warn().Err(err).Msg("ws connection closed with error")
		}
	}

	log.Debug().Int64("last_delivered", session.LastDelivered()).Msg("ws session closing")
	conn.Close(status, reason)
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, session *core.Session, limiter *rateLimiter, log *zerolog.Logger) error {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("%w: read: %w", core.ErrTransportClosed, err)
		}

		sub, err := decodeInbound(data)
		if err != nil {
			log.Debug().Err(err).Msg("rejected inbound frame")
			session.Reject(err)
			continue
		}
		if !limiter.allow() {
			log.Debug().Msg("submission rate limited")
			session.Reject(core.ErrRateLimited)
			continue
		}

		user := sub.User
		if user == "" {
			user = session.Name
		}
		if _, err := h.hub.Submit(ctx, user, sub.Text); err != nil {
			if errors.Is(err, core.ErrEmptyMessage) {
				session.Reject(err)
				continue
			}
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, session *core.Session, log *zerolog.Logger) error {
	for {
		select {
		case event := <-session.Events():
			if event.Kind == core.EventMessage && !session.MarkDelivered(event.Message.ID) {
				continue
			}
			if err := wsjson.Write(ctx, conn, outboundFromEvent(event)); err != nil {
				log.Error().Err(err).Msg("write ws event")
				return fmt.Errorf("%w: write: %w", core.ErrTransportClosed, err)
			}
			if event.Kind == core.EventHistory && len(event.Messages) > 0 {
				session.MarkDelivered(event.Messages[len(event.Messages)-1].ID)
			}
		case <-session.Done():
			return errSessionClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
