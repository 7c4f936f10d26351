package core

// CommandKind describes what the operator wants to do.
type CommandKind int

const (
	// CommandReply queues an answer for a visitor session.
	CommandReply CommandKind = iota
)

// Command represents an action requested by an operator.
type Command struct {
	Kind    CommandKind
	Message Message
}
