package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/wirechat-widget/internal/widget"
)

// Sender delivers messages into a running bubbletea program. *tea.Program satisfies it.
type Sender interface {
	Send(msg tea.Msg)
}

type appendMsg struct{ message widget.ChatMessage }

type clearInputMsg struct{}

type visibleMsg struct{ visible bool }

type statusMsg struct {
	status widget.PeerAvailability
	label  string
}

// View renders a widget.Session through a bubbletea program. Each call blocks
// until the program loop accepts the message, so rendering follows call order.
type View struct {
	sender Sender
}

var _ widget.View = (*View)(nil)

// NewView wraps a program (or any Sender).
func NewView(sender Sender) *View {
	return &View{sender: sender}
}

func (v *View) AppendMessage(msg widget.ChatMessage) {
	v.sender.Send(appendMsg{message: msg})
}

func (v *View) ClearInput() {
	v.sender.Send(clearInputMsg{})
}

func (v *View) SetVisible(visible bool) {
	v.sender.Send(visibleMsg{visible: visible})
}

func (v *View) SetPeerStatus(status widget.PeerAvailability, label string) {
	v.sender.Send(statusMsg{status: status, label: label})
}
