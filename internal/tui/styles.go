package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/wirechat-widget/internal/widget"
)

// Styles groups the lipgloss styles of the panel.
type Styles struct {
	Frame     lipgloss.Style
	Title     lipgloss.Style
	User      lipgloss.Style
	Peer      lipgloss.Style
	Hint      lipgloss.Style
	Launcher  lipgloss.Style
	Online    lipgloss.Style
	Offline   lipgloss.Style
	Unknown   lipgloss.Style
	StatusTxt lipgloss.Style
}

// DefaultStyles returns the panel look.
func DefaultStyles() Styles {
	return Styles{
		Frame: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1),
		Title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		User:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		Peer:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Hint:      lipgloss.NewStyle().Faint(true),
		Launcher:  lipgloss.NewStyle().Bold(true).Padding(0, 1).Border(lipgloss.NormalBorder()),
		Online:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Offline:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Unknown:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		StatusTxt: lipgloss.NewStyle().Faint(true),
	}
}

func (s Styles) indicator(status widget.PeerAvailability) lipgloss.Style {
	switch status {
	case widget.PeerOnline:
		return s.Online
	case widget.PeerOffline:
		return s.Offline
	default:
		return s.Unknown
	}
}
