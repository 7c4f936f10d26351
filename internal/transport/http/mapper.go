package http

import (
	"encoding/json"
	"time"

	"github.com/vovakirdan/wirechat-widget/internal/core"
	"github.com/vovakirdan/wirechat-widget/internal/proto"
	"github.com/vovakirdan/wirechat-widget/internal/store"
)

// SessionResponse represents a visitor session in API responses.
type SessionResponse struct {
	ID           string `json:"id"`
	MessageCount int    `json:"message_count"`
	PendingCount int    `json:"pending_count"`
	LastActivity string `json:"last_activity"`
}

// MessageResponse represents a relayed message in API responses.
type MessageResponse struct {
	ID        int64  `json:"id"`
	SessionID string `json:"session_id"`
	Direction string `json:"direction"`
	Text      string `json:"text"`
	Delivered bool   `json:"delivered"`
	CreatedAt string `json:"created_at"`
}

func toSessionResponse(s *store.Session) SessionResponse {
	return SessionResponse{
		ID:           s.ID,
		MessageCount: s.MessageCount,
		PendingCount: s.PendingCount,
		LastActivity: s.LastActivity.UTC().Format(time.RFC3339),
	}
}

func toMessageResponse(m *store.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		SessionID: m.SessionID,
		Direction: string(m.Direction),
		Text:      m.Body,
		Delivered: m.Delivered,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func messageResponseFromCore(m core.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		SessionID: m.SessionID,
		Direction: string(m.Direction),
		Text:      m.Text,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toPollResponse(msgs []*store.Message) proto.PollResponse {
	replies := make([]proto.Reply, 0, len(msgs))
	for _, m := range msgs {
		replies = append(replies, proto.Reply{Text: m.Body})
	}
	return proto.PollResponse{Replies: replies}
}

// inboundToCommand maps an operator frame to a hub command. Frames that need no
// command (hello) return all nils; protocol mistakes come back as *proto.Error.
func inboundToCommand(client *core.Client, inbound proto.Inbound) (*core.Command, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeHello:
		var hello proto.HelloData
		if len(inbound.Data) > 0 {
			if err := json.Unmarshal(inbound.Data, &hello); err != nil {
				return nil, nil, err
			}
		}
		if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
			return nil, &proto.Error{Code: core.ErrCodeUnsupportedVersion, Msg: "unsupported protocol version"}, nil
		}
		return nil, nil, nil
	case proto.InboundTypeReply:
		var reply proto.ReplyData
		if err := json.Unmarshal(inbound.Data, &reply); err != nil {
			return nil, nil, err
		}
		if reply.SessionID == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "session_id is required"}, nil
		}
		if reply.Text == "" {
			return nil, &proto.Error{Code: core.ErrCodeBadRequest, Msg: "text is required"}, nil
		}
		return &core.Command{
			Kind: core.CommandReply,
			Message: core.Message{
				SessionID: reply.SessionID,
				Direction: store.DirectionOperator,
				From:      client.Name,
				Text:      reply.Text,
			},
		}, nil, nil
	default:
		return nil, &proto.Error{Code: core.ErrCodeUnknownType, Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	switch event.Kind {
	case core.EventVisitorMessage:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameVisitorMessage,
			Data:  eventMessage(event.Message),
		}
	case core.EventReplyQueued:
		return proto.Outbound{
			Type:  proto.OutboundTypeEvent,
			Event: proto.EventNameReplyQueued,
			Data:  eventMessage(event.Message),
		}
	case core.EventError:
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventMessage(m core.Message) proto.EventMessage {
	return proto.EventMessage{
		ID:        m.ID,
		SessionID: m.SessionID,
		From:      m.From,
		Text:      m.Text,
		TS:        m.CreatedAt.Unix(),
	}
}
