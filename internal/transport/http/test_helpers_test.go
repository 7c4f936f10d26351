package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/wirechat-widget/internal/auth"
	"github.com/vovakirdan/wirechat-widget/internal/config"
	"github.com/vovakirdan/wirechat-widget/internal/core"
	"github.com/vovakirdan/wirechat-widget/internal/store/sqlite"
)

const testPassword = "operator-pass"

// testRelay is a relay server over an in-memory store with a mock clock.
type testRelay struct {
	server *httptest.Server
	hub    *core.Hub
	store  *sqlite.SQLiteStore
	auth   *auth.Service
	clock  *clock.Mock
	cfg    config.RelayConfig
}

func newTestConfig() config.RelayConfig {
	cfg := config.Default().Relay
	cfg.JWTSecret = "test-secret"
	cfg.JWTIssuer = "test"
	cfg.JWTAudience = "test"
	cfg.RateLimitPerMinute = 5
	cfg.MaxMessageBytes = 64
	cfg.PresenceTTL = time.Minute
	return cfg
}

func startTestRelay(t *testing.T, mutate ...func(*config.RelayConfig)) *testRelay {
	t.Helper()

	cfg := newTestConfig()
	for _, fn := range mutate {
		fn(&cfg)
	}

	st, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	hash, err := auth.HashPassword(testPassword)
	require.NoError(t, err)
	cfg.OperatorPasswordHash = hash

	authService := auth.NewService(hash, &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      time.Hour,
	})

	logger := zerolog.Nop()
	hub := core.NewHub(st, &logger)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	mock := clock.NewMock()
	router := NewRouter(hub, authService, st, nil, &cfg, mock, &logger)
	ts := httptest.NewServer(router)
	t.Cleanup(func() {
		ts.Close()
		cancel()
	})

	return &testRelay{server: ts, hub: hub, store: st, auth: authService, clock: mock, cfg: cfg}
}

func (r *testRelay) token(t *testing.T) string {
	t.Helper()
	token, err := r.auth.Login(context.Background(), testPassword)
	require.NoError(t, err)
	return token
}

func (r *testRelay) wsURL(token string) string {
	return strings.Replace(r.server.URL, "http", "ws", 1) + "/api/ws?token=" + token
}

// do performs a request against the relay and returns the response with its body read.
func (r *testRelay) do(t *testing.T, method, path string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, r.server.URL+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := r.server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, buf.Bytes()
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v), string(raw))
	return v
}
