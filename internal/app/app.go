package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-widget/internal/auth"
	"github.com/vovakirdan/wirechat-widget/internal/config"
	"github.com/vovakirdan/wirechat-widget/internal/core"
	"github.com/vovakirdan/wirechat-widget/internal/store"
	"github.com/vovakirdan/wirechat-widget/internal/store/redis"
	"github.com/vovakirdan/wirechat-widget/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wirechat-widget/internal/transport/http"
)

// App wires together core and transport layers of the relay.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	presence        io.Closer
	log             *zerolog.Logger
}

// New constructs the relay with provided configuration.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if err := cfg.ValidateRelay(); err != nil {
		return nil, err
	}

	st, err := sqlite.New(cfg.Relay.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}
	logger.Info().Str("db_path", cfg.Relay.DatabasePath).Msg("database initialized")

	a := &App{
		shutdownTimeout: cfg.Relay.ShutdownTimeout,
		store:           st,
		log:             logger,
	}

	var presence store.PresenceStore
	if cfg.Relay.RedisAddr != "" {
		rp, err := redis.New(ctx, cfg.Relay.RedisAddr)
		if err != nil {
			a.cleanup()
			return nil, fmt.Errorf("init presence: %w", err)
		}
		presence, a.presence = rp, rp
		logger.Info().Str("redis_addr", cfg.Relay.RedisAddr).Msg("presence stored in redis")
	}

	if cfg.Relay.OperatorPasswordHash == "" {
		logger.Warn().Msg("operator_password_hash is empty, operator login disabled")
	}

	jwtConfig := &auth.JWTConfig{
		Secret:   []byte(cfg.Relay.JWTSecret),
		Issuer:   cfg.Relay.JWTIssuer,
		Audience: cfg.Relay.JWTAudience,
		TTL:      cfg.Relay.TokenTTL,
	}
	authService := auth.NewService(cfg.Relay.OperatorPasswordHash, jwtConfig)

	a.hub = core.NewHub(st, logger)
	a.server = transporthttp.NewServer(a.hub, authService, st, presence, &cfg.Relay, logger)
	return a, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go a.hub.Run(hubCtx)

	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("relay listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.presence != nil {
		if err := a.presence.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close presence store")
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
