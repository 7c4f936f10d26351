package widget

// View renders the chat panel. The session calls it while holding its lock,
// so the panel always mirrors the log in order. Implementations must not call
// back into the session synchronously.
type View interface {
	// AppendMessage adds a message to the bottom of the panel.
	AppendMessage(msg ChatMessage)
	// ClearInput empties the message input after a submit.
	ClearInput()
	// SetVisible opens or closes the panel.
	SetVisible(visible bool)
	// SetPeerStatus updates the availability indicator and its label.
	SetPeerStatus(status PeerAvailability, label string)
}

// NopView discards everything. Handy for headless sessions.
type NopView struct{}

func (NopView) AppendMessage(ChatMessage)              {}
func (NopView) ClearInput()                            {}
func (NopView) SetVisible(bool)                        {}
func (NopView) SetPeerStatus(PeerAvailability, string) {}
