package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-widget/internal/core"
	"github.com/vovakirdan/wirechat-widget/internal/proto"
	"github.com/vovakirdan/wirechat-widget/internal/store"
)

// bodyOverhead is the room left for JSON framing around a maximal message.
const bodyOverhead = 1 << 10

// RelayHandlers serves the visitor endpoints the widget polls.
type RelayHandlers struct {
	hub      *core.Hub
	store    store.MessageStore
	presence store.PresenceStore
	limiter  *rateLimiter
	maxBytes int64
	log      *zerolog.Logger
}

// NewRelayHandlers creates the visitor endpoint handlers.
func NewRelayHandlers(
	hub *core.Hub,
	st store.MessageStore,
	presence store.PresenceStore,
	limiter *rateLimiter,
	maxBytes int64,
	logger *zerolog.Logger,
) *RelayHandlers {
	return &RelayHandlers{
		hub:      hub,
		store:    st,
		presence: presence,
		limiter:  limiter,
		maxBytes: maxBytes,
		log:      logger,
	}
}

// Send queues a visitor message and notifies connected operators.
// POST /send
func (h *RelayHandlers) Send(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*h.maxBytes+bodyOverhead)
	}

	var req proto.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, "message too long")
			return
		}
		h.log.Debug().Err(err).Msg("invalid send request")
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	text := strings.TrimSpace(req.Message)
	sessionID := strings.TrimSpace(req.SessionID)
	switch {
	case text == "":
		respondError(c, http.StatusBadRequest, "message is required")
		return
	case sessionID == "":
		respondError(c, http.StatusBadRequest, "sessionId is required")
		return
	case h.maxBytes > 0 && int64(len(text)) > h.maxBytes:
		respondError(c, http.StatusRequestEntityTooLarge, "message too long")
		return
	}

	if !h.limiter.allow(sessionID) {
		h.log.Warn().Str("session_id", sessionID).Msg("send rate limited")
		respondError(c, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	msg := &store.Message{
		SessionID: sessionID,
		Direction: store.DirectionVisitor,
		Body:      text,
	}
	if err := h.store.SaveMessage(c.Request.Context(), msg); err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to save visitor message")
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	h.hub.Publish(core.FromStore(msg))
	h.log.Debug().Str("session_id", sessionID).Int64("message_id", msg.ID).Msg("visitor message queued")
	c.JSON(http.StatusAccepted, proto.SendResponse{Status: proto.SendStatusQueued})
}

// Poll hands out operator replies not yet delivered to the session.
// GET /poll?sessionId=
func (h *RelayHandlers) Poll(c *gin.Context) {
	sessionID := strings.TrimSpace(c.Query(proto.QuerySessionID))
	if sessionID == "" {
		respondError(c, http.StatusBadRequest, "sessionId is required")
		return
	}

	msgs, err := h.store.TakeReplies(c.Request.Context(), sessionID)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to take replies")
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	c.JSON(http.StatusOK, toPollResponse(msgs))
}

// Status reports whether an operator is reachable: connected over the websocket
// or announced present through the API.
// GET /status
func (h *RelayHandlers) Status(c *gin.Context) {
	online := h.hub.OnlineOperators() > 0
	if !online && h.presence != nil {
		present, err := h.presence.Presence(c.Request.Context())
		if err != nil {
			h.log.Warn().Err(err).Msg("failed to read operator presence")
		}
		online = present
	}
	c.JSON(http.StatusOK, proto.StatusResponse{Online: online})
}

// Probe answers the widget's language probe. Edge proxies add the country header.
// HEAD /
func (h *RelayHandlers) Probe(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
