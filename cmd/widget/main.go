package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-widget/internal/app"
	"github.com/vovakirdan/wirechat-widget/internal/auth"
	"github.com/vovakirdan/wirechat-widget/internal/config"
	"github.com/vovakirdan/wirechat-widget/internal/log"
	"github.com/vovakirdan/wirechat-widget/internal/operator"
)

const passwordEnv = "WIRECHAT_OPERATOR_PASSWORD"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "wirechat-widget",
		Short:         "Chat widget for talking to a site operator over an HTTP relay",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml")

	rootCmd.AddCommand(
		relayCommand(&configPath),
		chatCommand(&configPath),
		operatorCommand(&configPath),
		hashPasswordCommand(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func loadConfig(logger *zerolog.Logger, path string) (config.Config, error) {
	cfg, resolved, err := config.Load(logger, path)
	if err != nil {
		return cfg, err
	}
	logger.Debug().Str("path", resolved).Msg("config loaded")
	return cfg, nil
}

func relayCommand(configPath *string) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the relay server visitors and operators talk through",
		RunE: func(cmd *cobra.Command, args []string) error {
			boot := log.New("info")
			cfg, err := loadConfig(boot, *configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Relay.Addr = addr
			}

			logger := log.New(cfg.LogLevel)
			application, err := app.New(cmd.Context(), &cfg, logger)
			if err != nil {
				return err
			}

			logger.Info().Str("addr", cfg.Relay.Addr).Msg("starting relay")
			if err := application.Run(cmd.Context()); err != nil {
				return fmt.Errorf("relay exited: %w", err)
			}
			logger.Info().Msg("relay stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (overrides relay.addr)")
	return cmd
}

func chatCommand(configPath *string) *cobra.Command {
	var (
		baseURL string
		lang    string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the visitor chat panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			// The panel owns the terminal, so nothing may log to stdout.
			cfg, err := loadConfig(log.Nop(), *configPath)
			if err != nil {
				return err
			}
			if baseURL != "" {
				cfg.Widget.BaseURL = baseURL
			}
			if lang != "" {
				cfg.Widget.Lang = lang
			}

			logFile, err := os.OpenFile(cfg.Widget.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			defer logFile.Close()
			logger := log.NewWithWriter(cfg.LogLevel, logFile)

			chat, err := app.NewChat(cmd.Context(), &cfg, logger)
			if err != nil {
				return err
			}
			defer chat.Close()

			return chat.Run(cmd.Context(), tea.WithAltScreen())
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "relay base URL (overrides widget.base_url)")
	cmd.Flags().StringVar(&lang, "lang", "", "force the panel language (en or fa)")
	return cmd
}

func operatorCommand(configPath *string) *cobra.Command {
	var (
		baseURL string
		token   string
	)

	cmd := &cobra.Command{
		Use:   "operator",
		Short: "Answer visitors from the terminal",
		Long: "Connects to the relay as the operator and prints visitor messages as they arrive.\n" +
			"Reply with: /reply <session> <text>. Leave with /quit or Ctrl+D.\n" +
			"Without --token the password is read from " + passwordEnv + " or prompted for.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New("warn")
			cfg, err := loadConfig(logger, *configPath)
			if err != nil {
				return err
			}
			if baseURL == "" {
				baseURL = cfg.Widget.BaseURL
			}

			ctx := cmd.Context()
			if token == "" {
				password := os.Getenv(passwordEnv)
				if password == "" {
					if password, err = prompt("password: "); err != nil {
						return err
					}
				}
				if token, err = operator.Login(ctx, nil, baseURL, password); err != nil {
					return err
				}
			}

			conn, err := operator.Dial(ctx, baseURL, token)
			if err != nil {
				return err
			}
			defer conn.Close(websocket.StatusNormalClosure, "bye")

			fmt.Printf("Connected to %s. Reply with /reply <session> <text>, /quit to leave.\n", baseURL)
			return operator.Run(ctx, conn, os.Stdin, os.Stdout)
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "relay base URL (defaults to widget.base_url)")
	cmd.Flags().StringVar(&token, "token", "", "operator token; skips the login")
	return cmd
}

func hashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print the bcrypt hash for relay.operator_password_hash",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var password string
			if len(args) == 1 {
				password = args[0]
			} else {
				var err error
				if password, err = prompt("password: "); err != nil {
					return err
				}
			}

			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func prompt(label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s %w", strings.TrimSuffix(label, " "), err)
	}
	return strings.TrimSpace(line), nil
}
