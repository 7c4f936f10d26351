package widget

// Sender tells who wrote a chat message.
type Sender int

const (
	// SenderUser is the visitor using the widget.
	SenderUser Sender = iota
	// SenderPeer is the operator on the other side of the relay. Local error notices use it too.
	SenderPeer
)

func (s Sender) String() string {
	switch s {
	case SenderUser:
		return "user"
	case SenderPeer:
		return "peer"
	default:
		return "unknown"
	}
}

// ChatMessage is one entry of the conversation log. Entries are never mutated once appended.
type ChatMessage struct {
	Text   string
	Origin Sender
}
