// Package tui is the terminal chat panel: a launcher line while closed, and a
// message list with an input line while open.
package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/wirechat-widget/internal/i18n"
	"github.com/vovakirdan/wirechat-widget/internal/widget"
)

const (
	defaultWidth  = 64
	defaultHeight = 16
	statusDot     = "●"
)

// Controller is the session side the panel drives.
type Controller interface {
	ToggleVisibility() bool
	SendMessage(ctx context.Context, text string)
}

// Model is the bubbletea model of the chat panel. It only mirrors what the
// session reports through View; user actions go back to the session as commands.
type Model struct {
	ctx     context.Context
	ctrl    Controller
	strings i18n.Translations
	styles  Styles

	input    textinput.Model
	viewport viewport.Model

	messages []widget.ChatMessage
	visible  bool
	status   widget.PeerAvailability
	label    string
}

// NewModel builds the panel. ctx scopes the sends the panel starts.
func NewModel(ctx context.Context, ctrl Controller, tr i18n.Translations) Model {
	ti := textinput.New()
	ti.Placeholder = tr.InputPlaceholder
	ti.Prompt = "> "
	ti.CharLimit = 2000

	m := Model{
		ctx:      ctx,
		ctrl:     ctrl,
		strings:  tr,
		styles:   DefaultStyles(),
		input:    ti,
		viewport: viewport.New(defaultWidth, defaultHeight),
		label:    tr.StatusUnknown,
	}
	m.input.Width = defaultWidth - 4
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.viewport.Width = max(msg.Width-4, 10)
		m.viewport.Height = max(msg.Height-8, 3)
		m.input.Width = max(msg.Width-8, 10)
		m.refresh()
		return m, nil

	case appendMsg:
		m.messages = append(m.messages, msg.message)
		m.refresh()
		return m, nil

	case clearInputMsg:
		m.input.Reset()
		return m, nil

	case visibleMsg:
		m.visible = msg.visible
		if m.visible {
			m.refresh()
			cmd := m.input.Focus()
			return m, cmd
		}
		m.input.Blur()
		return m, nil

	case statusMsg:
		m.status = msg.status
		m.label = msg.label
		return m, nil
	}

	if m.visible {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "ctrl+o":
		return m, m.toggleCmd()
	case "enter":
		if !m.visible {
			return m, nil
		}
		return m, m.sendCmd(m.input.Value())
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	if !m.visible {
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// toggleCmd and sendCmd run on command goroutines: the session renders back
// through View, which needs the program loop to be free.
func (m Model) toggleCmd() tea.Cmd {
	ctrl := m.ctrl
	return func() tea.Msg {
		ctrl.ToggleVisibility()
		return nil
	}
}

func (m Model) sendCmd(text string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		ctrl.SendMessage(ctx, text)
		return nil
	}
}

func (m *Model) refresh() {
	m.viewport.SetContent(m.renderMessages())
	m.viewport.GotoBottom()
}

func (m Model) renderMessages() string {
	width := m.viewport.Width
	lines := make([]string, 0, len(m.messages))
	for _, msg := range m.messages {
		style, who := m.styles.Peer, m.strings.PeerLabel
		if msg.Origin == widget.SenderUser {
			style, who = m.styles.User, m.strings.YouLabel
		}
		lines = append(lines, m.align(style.Render(who+": "+msg.Text), width))
	}
	return strings.Join(lines, "\n")
}

// align right-aligns text for right-to-left languages.
func (m Model) align(s string, width int) string {
	if !m.strings.RTL || width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(width).Align(lipgloss.Right).Render(s)
}

func (m Model) statusLine() string {
	dot := m.styles.indicator(m.status).Render(statusDot)
	return dot + " " + m.styles.StatusTxt.Render(m.label)
}

func (m Model) View() string {
	if !m.visible {
		launcher := m.styles.Launcher.Render(m.strings.PanelTitle + "  " + m.statusLine())
		return lipgloss.JoinVertical(lipgloss.Left,
			launcher,
			m.styles.Hint.Render(m.strings.ClosedHint),
		)
	}

	header := m.align(m.styles.Title.Render(m.strings.PanelTitle)+"  "+m.statusLine(), m.viewport.Width)
	body := lipgloss.JoinVertical(lipgloss.Left,
		header,
		m.viewport.View(),
		m.input.View(),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Frame.Render(body),
		m.styles.Hint.Render(m.strings.ToggleHint),
	)
}

// Visible reports whether the panel currently shows the open layout.
func (m Model) Visible() bool {
	return m.visible
}

// Messages returns what the panel currently renders.
func (m Model) Messages() []widget.ChatMessage {
	out := make([]widget.ChatMessage, len(m.messages))
	copy(out, m.messages)
	return out
}
