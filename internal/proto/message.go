package proto

import "encoding/json"

// Visitor-facing relay endpoints.
const (
	PathSend   = "/send"
	PathPoll   = "/poll"
	PathStatus = "/status"

	QuerySessionID = "sessionId"
)

// SendRequest is the body of POST /send.
type SendRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// SendResponse acknowledges a queued visitor message.
type SendResponse struct {
	Status string `json:"status"`
}

// SendStatusQueued is the only status /send reports.
const SendStatusQueued = "queued"

// Reply is one operator answer handed to the visitor.
type Reply struct {
	Text string `json:"text"`
}

// PollResponse is the body of GET /poll.
type PollResponse struct {
	Replies []Reply `json:"replies"`
}

// StatusResponse is the body of GET /status.
type StatusResponse struct {
	Online bool `json:"online"`
}

// Inbound is the envelope for frames coming from an operator websocket.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello = "hello"
	InboundTypeReply = "reply"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"

	EventNameVisitorMessage = "visitor_message"
	EventNameReplyQueued    = "reply_queued"
	EventNameReady          = "ready"
)

// HelloData announces the protocol version an operator client speaks.
type HelloData struct {
	Protocol int `json:"protocol"`
}

// ReplyData is an operator answer to a visitor session.
type ReplyData struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// Outbound is the envelope for frames sent to an operator.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// EventMessage describes a relayed message in either direction.
type EventMessage struct {
	ID        int64  `json:"id,omitempty"`
	SessionID string `json:"session_id"`
	From      string `json:"from,omitempty"`
	Text      string `json:"text"`
	TS        int64  `json:"ts"`
}

// EventReady greets an operator after the websocket is accepted.
type EventReady struct {
	Protocol int    `json:"protocol"`
	Operator string `json:"operator"`
	ClientID string `json:"client_id"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
