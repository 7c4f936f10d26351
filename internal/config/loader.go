package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	envConfigDefaultPath = "WIRECHAT_CONFIG_DEFAULT_PATH"
	defaultConfigName    = "config.yaml"
	dotEnvName           = ".env"
)

// Load builds configuration from defaults, optional config file, env vars, and returns the resolved path.
// Precedence: defaults < config file < env vars (.env included) < caller overrides.
func Load(logger *zerolog.Logger, explicitPath string) (Config, string, error) {
	cfg := Default()

	configPath := resolveConfigPath(explicitPath)
	loadDotEnv(logger, filepath.Dir(configPath))

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, cfg)

	v.SetEnvPrefix("WIRECHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			if writeErr := writeDefaultConfig(configPath, cfg); writeErr != nil && logger != nil {
				logger.Warn().Err(writeErr).Str("path", configPath).Msg("failed to write default config")
			} else if logger != nil {
				logger.Info().Str("path", configPath).Msg("created default config")
			}
			// try reading again in case it was just written
			if readErr := v.ReadInConfig(); readErr != nil && logger != nil {
				logger.Warn().Err(readErr).Str("path", configPath).Msg("failed to read config after writing default")
			}
		} else {
			return cfg, configPath, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, configPath, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, configPath, nil
}

func setDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("log_level", cfg.LogLevel)

	v.SetDefault("relay.addr", cfg.Relay.Addr)
	v.SetDefault("relay.read_header_timeout", cfg.Relay.ReadHeaderTimeout)
	v.SetDefault("relay.shutdown_timeout", cfg.Relay.ShutdownTimeout)
	v.SetDefault("relay.database_path", cfg.Relay.DatabasePath)
	v.SetDefault("relay.max_message_bytes", cfg.Relay.MaxMessageBytes)
	v.SetDefault("relay.rate_limit_per_minute", cfg.Relay.RateLimitPerMinute)
	v.SetDefault("relay.allowed_origin", cfg.Relay.AllowedOrigin)
	v.SetDefault("relay.jwt_secret", cfg.Relay.JWTSecret)
	v.SetDefault("relay.jwt_issuer", cfg.Relay.JWTIssuer)
	v.SetDefault("relay.jwt_audience", cfg.Relay.JWTAudience)
	v.SetDefault("relay.token_ttl", cfg.Relay.TokenTTL)
	v.SetDefault("relay.operator_password_hash", cfg.Relay.OperatorPasswordHash)
	v.SetDefault("relay.presence_ttl", cfg.Relay.PresenceTTL)
	v.SetDefault("relay.redis_addr", cfg.Relay.RedisAddr)

	v.SetDefault("widget.base_url", cfg.Widget.BaseURL)
	v.SetDefault("widget.state_path", cfg.Widget.StatePath)
	v.SetDefault("widget.log_file", cfg.Widget.LogFile)
	v.SetDefault("widget.lang", cfg.Widget.Lang)
	v.SetDefault("widget.poll_interval", cfg.Widget.PollInterval)
	v.SetDefault("widget.status_interval", cfg.Widget.StatusInterval)
	v.SetDefault("widget.request_timeout", cfg.Widget.RequestTimeout)
}

// loadDotEnv exports variables from a .env file next to the config, if any.
// Variables already present in the environment win.
func loadDotEnv(logger *zerolog.Logger, dir string) {
	path := filepath.Join(dir, dotEnvName)
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) && logger != nil {
			logger.Warn().Err(err).Str("path", path).Msg("failed to load .env")
		}
		return
	}
	if logger != nil {
		logger.Debug().Str("path", path).Msg("loaded .env")
	}
}

func resolveConfigPath(explicitPath string) string {
	if explicitPath != "" {
		return explicitPath
	}

	if base := os.Getenv(envConfigDefaultPath); base != "" {
		if err := os.MkdirAll(base, 0o755); err == nil {
			return filepath.Join(base, defaultConfigName)
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return defaultConfigName
	}
	return filepath.Join(cwd, defaultConfigName)
}

func writeDefaultConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
