package app

import (
	"context"
	"fmt"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-widget/internal/config"
	"github.com/vovakirdan/wirechat-widget/internal/i18n"
	"github.com/vovakirdan/wirechat-widget/internal/relay"
	"github.com/vovakirdan/wirechat-widget/internal/store/sqlite"
	"github.com/vovakirdan/wirechat-widget/internal/tui"
	"github.com/vovakirdan/wirechat-widget/internal/widget"
)

// Chat is the visitor side: one chat session kept in a local state file and
// rendered by the terminal panel.
type Chat struct {
	cfg   config.WidgetConfig
	state *sqlite.SQLiteStore
	relay *relay.Client
	lang  i18n.Lang
	log   *zerolog.Logger
}

// NewChat opens the local state, resolves the display language and prepares
// the relay client.
func NewChat(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*Chat, error) {
	if err := cfg.ValidateWidget(); err != nil {
		return nil, err
	}

	state, err := sqlite.New(cfg.Widget.StatePath)
	if err != nil {
		return nil, fmt.Errorf("open widget state: %w", err)
	}

	client := relay.New(cfg.Widget.BaseURL, &http.Client{Timeout: cfg.Widget.RequestTimeout})

	detector := i18n.NewDetector(state, client, nil, logger)
	if forced, ok := i18n.Parse(cfg.Widget.Lang); ok {
		detector.Save(ctx, forced)
	} else if cfg.Widget.Lang != "" {
		logger.Warn().Str("lang", cfg.Widget.Lang).Msg("unsupported language, detecting instead")
	}
	lang := detector.Detect(ctx)
	logger.Info().Str("lang", string(lang)).Str("relay", client.BaseURL()).Msg("chat configured")

	return &Chat{
		cfg:   cfg.Widget,
		state: state,
		relay: client,
		lang:  lang,
		log:   logger,
	}, nil
}

// Lang is the language the panel renders in.
func (c *Chat) Lang() i18n.Lang {
	return c.lang
}

// NewSession builds an uninitialized chat session rendering into view.
func (c *Chat) NewSession(view widget.View) *widget.Session {
	return widget.New(c.relay, view, c.state, widget.Options{
		PollInterval:   c.cfg.PollInterval,
		StatusInterval: c.cfg.StatusInterval,
		Strings:        i18n.Get(c.lang),
		Logger:         c.log,
	})
}

// Run shows the panel until the user quits or ctx is done.
func (c *Chat) Run(ctx context.Context, opts ...tea.ProgramOption) error {
	return tui.Run(ctx, i18n.Get(c.lang), func(view widget.View) (tui.Session, error) {
		return c.NewSession(view), nil
	}, opts...)
}

// Close releases the local state file.
func (c *Chat) Close() error {
	return c.state.Close()
}
