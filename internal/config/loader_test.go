package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg, resolved, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.FileExists(t, path)

	def := Default()
	assert.Equal(t, def.Widget.PollInterval, cfg.Widget.PollInterval)
	assert.Equal(t, def.Widget.StatusInterval, cfg.Widget.StatusInterval)
	assert.Equal(t, def.Relay.Addr, cfg.Relay.Addr)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
log_level: debug
relay:
  addr: ":9090"
widget:
  base_url: "https://relay.example.com"
  poll_interval: 7s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("WIRECHAT_WIDGET_POLL_INTERVAL", "2s")

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.Relay.Addr)
	assert.Equal(t, "https://relay.example.com", cfg.Widget.BaseURL)
	assert.Equal(t, 2*time.Second, cfg.Widget.PollInterval)
	assert.Equal(t, 30*time.Second, cfg.Widget.StatusInterval)
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WIRECHAT_RELAY_DATABASE_PATH=/tmp/from-dotenv.db\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("WIRECHAT_RELAY_DATABASE_PATH") })

	cfg, _, err := Load(nil, path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/from-dotenv.db", cfg.Relay.DatabasePath)
}

func TestUpdateFromOverridesNonZero(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{
		Widget: WidgetConfig{BaseURL: "http://other", Lang: "fa"},
	})

	assert.Equal(t, "http://other", cfg.Widget.BaseURL)
	assert.Equal(t, "fa", cfg.Widget.Lang)
	assert.Equal(t, Default().Relay.Addr, cfg.Relay.Addr)
}

func TestValidateWidget(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.ValidateWidget())

	cfg.Widget.PollInterval = 0
	require.ErrorIs(t, cfg.ValidateWidget(), ErrInvalidInterval)

	cfg = Default()
	cfg.Widget.BaseURL = ""
	require.ErrorIs(t, cfg.ValidateWidget(), ErrMissingBaseURL)
}
