package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-widget/internal/auth"
	"github.com/vovakirdan/wirechat-widget/internal/core"
	"github.com/vovakirdan/wirechat-widget/internal/store"
)

// APIHandlers provides HTTP handlers for the operator REST API.
type APIHandlers struct {
	authService *auth.Service
	hub         *core.Hub
	store       store.MessageStore
	presence    store.PresenceStore
	presenceTTL time.Duration
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(
	authService *auth.Service,
	hub *core.Hub,
	st store.MessageStore,
	presence store.PresenceStore,
	presenceTTL time.Duration,
	logger *zerolog.Logger,
) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		hub:         hub,
		store:       st,
		presence:    presence,
		presenceTTL: presenceTTL,
		log:         logger,
	}
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token string `json:"token"`
}

// ReplyRequest represents an operator reply body.
type ReplyRequest struct {
	Text string `json:"text" binding:"required"`
}

// PresenceRequest toggles the operator presence flag.
type PresenceRequest struct {
	Online *bool `json:"online" binding:"required"`
}

// PresenceResponse echoes the stored presence flag.
type PresenceResponse struct {
	Online bool   `json:"online"`
	TTL    string `json:"ttl,omitempty"`
}

// Login exchanges the operator password for a token.
// POST /api/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			h.log.Warn().Str("client_ip", c.ClientIP()).Msg("operator login failed")
			respondError(c, http.StatusUnauthorized, "invalid credentials")
		case errors.Is(err, auth.ErrLoginDisabled):
			respondError(c, http.StatusForbidden, "operator login disabled")
		default:
			h.log.Error().Err(err).Msg("failed to login operator")
			respondError(c, http.StatusInternalServerError, "internal server error")
		}
		return
	}

	h.log.Info().Msg("operator logged in")
	c.JSON(http.StatusOK, AuthResponse{Token: token})
}

// ListSessions returns visitor sessions, most recently active first.
// GET /api/sessions
func (h *APIHandlers) ListSessions(c *gin.Context) {
	sessions, err := h.store.ListSessions(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list sessions")
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	resp := make([]SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		resp = append(resp, toSessionResponse(s))
	}
	c.JSON(http.StatusOK, resp)
}

// ListMessages returns the transcript of one session.
// GET /api/sessions/:id/messages?limit=
func (h *APIHandlers) ListMessages(c *gin.Context) {
	sessionID := c.Param("id")

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respondError(c, http.StatusBadRequest, "invalid request body")
			return
		}
		limit = n
	}

	msgs, err := h.store.ListMessages(c.Request.Context(), sessionID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("failed to list messages")
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}
	if len(msgs) == 0 {
		respondError(c, http.StatusNotFound, "session not found")
		return
	}

	resp := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toMessageResponse(m))
	}
	c.JSON(http.StatusOK, resp)
}

// Reply queues an operator answer for the visitor's next poll.
// POST /api/sessions/:id/reply
func (h *APIHandlers) Reply(c *gin.Context) {
	var req ReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid reply request")
		respondError(c, http.StatusBadRequest, "text is required")
		return
	}

	operator := c.GetString(ContextKeyOperator)
	msg, err := h.hub.SaveReply(c.Request.Context(), c.Param("id"), req.Text, operator)
	if err != nil {
		if errors.Is(err, core.ErrEmptyReply) || errors.Is(err, core.ErrMissingSession) {
			respondError(c, http.StatusBadRequest, "text is required")
			return
		}
		h.log.Error().Err(err).Str("session_id", c.Param("id")).Msg("failed to save reply")
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	h.hub.Publish(msg)
	h.log.Info().Str("session_id", msg.SessionID).Int64("message_id", msg.ID).Msg("reply queued")
	c.JSON(http.StatusCreated, messageResponseFromCore(msg))
}

// SetPresence announces the operator as available (for presence_ttl) or away.
// PUT /api/presence
func (h *APIHandlers) SetPresence(c *gin.Context) {
	var req PresenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid presence request")
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if h.presence == nil {
		respondError(c, http.StatusServiceUnavailable, "presence unavailable")
		return
	}

	online := *req.Online
	if err := h.presence.SetPresence(c.Request.Context(), online, h.presenceTTL); err != nil {
		h.log.Error().Err(err).Bool("online", online).Msg("failed to set presence")
		respondError(c, http.StatusInternalServerError, "internal server error")
		return
	}

	h.log.Info().Bool("online", online).Msg("operator presence updated")
	resp := PresenceResponse{Online: online}
	if online {
		resp.TTL = h.presenceTTL.String()
	}
	c.JSON(http.StatusOK, resp)
}
