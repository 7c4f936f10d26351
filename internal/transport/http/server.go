package http

import (
	stdhttp "net/http"

	"github.com/benbjohnson/clock"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-widget/internal/auth"
	"github.com/vovakirdan/wirechat-widget/internal/config"
	"github.com/vovakirdan/wirechat-widget/internal/core"
	"github.com/vovakirdan/wirechat-widget/internal/proto"
	"github.com/vovakirdan/wirechat-widget/internal/store"
)

// NewServer builds the relay HTTP server: the visitor endpoints, the operator API
// and the operator websocket. presence overrides the store's own presence flag
// when non-nil.
func NewServer(
	hub *core.Hub,
	authService *auth.Service,
	st store.Store,
	presence store.PresenceStore,
	cfg *config.RelayConfig,
	logger *zerolog.Logger,
) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(hub, authService, st, presence, cfg, clock.New(), logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter wires all routes on a gin engine.
func NewRouter(
	hub *core.Hub,
	authService *auth.Service,
	st store.Store,
	presence store.PresenceStore,
	cfg *config.RelayConfig,
	clk clock.Clock,
	logger *zerolog.Logger,
) *gin.Engine {
	if presence == nil {
		presence = st
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger), LocaleMiddleware())

	relay := NewRelayHandlers(hub, st, presence, newRateLimiter(cfg.RateLimitPerMinute, clk), cfg.MaxMessageBytes, logger)
	visitor := router.Group("", CORSMiddleware(cfg.AllowedOrigin))
	visitor.POST(proto.PathSend, relay.Send)
	visitor.GET(proto.PathPoll, relay.Poll)
	visitor.GET(proto.PathStatus, relay.Status)
	visitor.HEAD("/", relay.Probe)
	visitor.OPTIONS("/*path", func(c *gin.Context) { c.Status(stdhttp.StatusNoContent) })

	router.GET("/health", healthHandler)

	api := NewAPIHandlers(authService, hub, st, presence, cfg.PresenceTTL, logger)
	ws := NewWSHandler(hub, authService, logger)

	apiGroup := router.Group("/api")
	apiGroup.POST("/login", api.Login)
	apiGroup.GET("/ws", ws.Handle)

	protected := apiGroup.Group("", AuthMiddleware(authService, logger))
	protected.GET("/sessions", api.ListSessions)
	protected.GET("/sessions/:id/messages", api.ListMessages)
	protected.POST("/sessions/:id/reply", api.Reply)
	protected.PUT("/presence", api.SetPresence)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
