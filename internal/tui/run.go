package tui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/wirechat-widget/internal/i18n"
	"github.com/vovakirdan/wirechat-widget/internal/widget"
)

// Session is what Run needs from a chat session.
type Session interface {
	Controller
	Initialize(ctx context.Context) error
	Close()
}

// deferredController lets the model exist before the session it controls.
type deferredController struct {
	Controller
}

// Run starts the panel, builds the session against it, initializes the session
// once the program loop is live and blocks until the user quits or ctx ends.
func Run(
	ctx context.Context,
	tr i18n.Translations,
	build func(view widget.View) (Session, error),
	opts ...tea.ProgramOption,
) error {
	ctrl := &deferredController{}
	opts = append([]tea.ProgramOption{tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewModel(ctx, ctrl, tr), opts...)

	session, err := build(NewView(p))
	if err != nil {
		return err
	}
	defer session.Close()
	ctrl.Controller = session

	// Quitting the program must also abandon an Initialize still waiting on the relay.
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer stop()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
	g.Go(func() error {
		if err := session.Initialize(gctx); err != nil {
			p.Quit()
			if gctx.Err() != nil {
				return nil
			}
			return err
		}
		return nil
	})
	return g.Wait()
}
