package core

import (
	"strings"
	"time"

	"github.com/vovakirdan/wirechat-widget/internal/store"
)

// Message is the domain model for a relayed chat message.
type Message struct {
	ID        int64
	SessionID string
	Direction store.Direction
	From      string
	Text      string
	CreatedAt time.Time
}

// Validate checks the fields every relayed message needs.
func (m Message) Validate() error {
	if strings.TrimSpace(m.SessionID) == "" {
		return ErrMissingSession
	}
	if strings.TrimSpace(m.Text) == "" {
		return ErrEmptyReply
	}
	return nil
}

// FromStore converts a persisted message.
func FromStore(m *store.Message) Message {
	return Message{
		ID:        m.ID,
		SessionID: m.SessionID,
		Direction: m.Direction,
		Text:      m.Body,
		CreatedAt: m.CreatedAt,
	}
}
