package http

import (
	"errors"
	stdhttp "net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/lanchat-server/internal/core"
	"github.com/vovakirdan/lanchat-server/internal/proto"
)

// PollHandlers serve the stateless request/response fallback transport.
type PollHandlers struct {
	hub     core.Hub
	timeout time.Duration
	log     *zerolog.Logger
}

// NewPollHandlers creates handlers whose long-poll waits at most timeout.
func NewPollHandlers(hub core.Hub, timeout time.Duration, logger *zerolog.Logger) *PollHandlers {
	return &PollHandlers{
		hub:     hub,
		timeout: timeout,
		log:     logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Messages returns the retained history.
// GET /messages
func (h *PollHandlers) Messages(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, messagesToProto(h.hub.Snapshot(-1)))
}

// Poll blocks until messages newer than last_id exist or the timeout elapses.
// GET /poll?last_id=N
func (h *PollHandlers) Poll(c *gin.Context) {
	lastID := int64(-1)
	if raw := c.Query("last_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: "last_id must be an integer"})
			return
		}
		lastID = parsed
	}

	msgs, err := h.hub.Wait(c.Request.Context(), lastID, h.timeout)
	if err != nil {
		// The client went away; nobody is left to answer.
		h.log.Debug().Err(err).Int64("last_id", lastID).Msg("poll abandoned")
		c.Status(stdhttp.StatusNoContent)
		return
	}

	c.JSON(stdhttp.StatusOK, messagesToProto(msgs))
}

// Send accepts a message submitted over plain HTTP.
// POST /send
func (h *PollHandlers) Send(c *gin.Context) {
	var req proto.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid send request")
		c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Text == nil {
		c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: "text is required"})
		return
	}

	msg, err := h.hub.Submit(c.Request.Context(), req.User, *req.Text)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrEmptyMessage):
			c.JSON(stdhttp.StatusBadRequest, ErrorResponse{Error: "empty message"})
		case errors.Is(err, core.ErrHubClosed):
			c.JSON(stdhttp.StatusServiceUnavailable, ErrorResponse{Error: "server shutting down"})
		default:
			h.log.Error().Err(err).Msg("failed to submit message")
			c.JSON(stdhttp.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	c.JSON(stdhttp.StatusOK, proto.SendResponse{Status: "ok", ID: msg.ID})
}
