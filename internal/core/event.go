package core

// EventKind is a notification the core emits to operators.
type EventKind int

const (
	// EventVisitorMessage carries a message a visitor posted through /send.
	EventVisitorMessage EventKind = iota
	// EventReplyQueued confirms that an operator reply waits for the visitor's next poll.
	EventReplyQueued
	// EventError notifies a single operator about a rejected command.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventVisitorMessage:
		return "visitor_message"
	case EventReplyQueued:
		return "reply_queued"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is sent to operators to describe what happened in the relay.
type Event struct {
	Kind    EventKind
	Message Message
	Error   *CoreError
}
