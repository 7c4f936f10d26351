package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Direction tells who authored a relayed message.
type Direction string

const (
	// DirectionVisitor marks messages sent by a site visitor through /send.
	DirectionVisitor Direction = "visitor"
	// DirectionOperator marks replies written by the operator and handed out by /poll.
	DirectionOperator Direction = "operator"
)

// Message represents a relayed chat message.
type Message struct {
	ID        int64
	SessionID string
	Direction Direction
	Body      string
	Delivered bool
	CreatedAt time.Time
}

// Session summarizes one visitor conversation.
type Session struct {
	ID           string
	MessageCount int
	PendingCount int // operator replies not yet polled by the visitor
	LastActivity time.Time
}

// KVStore is a flat string key-value store with no expiry.
type KVStore interface {
	// Get returns the value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set inserts or replaces the value for key.
	Set(ctx context.Context, key, value string) error
}

// MessageStore handles relay message persistence.
type MessageStore interface {
	// SaveMessage persists a message and fills in ID and CreatedAt.
	SaveMessage(ctx context.Context, msg *Message) error

	// TakeReplies returns undelivered operator replies for a session, oldest first,
	// and marks them delivered in the same transaction.
	TakeReplies(ctx context.Context, sessionID string) ([]*Message, error)

	// ListMessages returns the transcript of a session, oldest first.
	// A limit of zero or less returns everything.
	ListMessages(ctx context.Context, sessionID string, limit int) ([]*Message, error)

	// ListSessions returns known sessions ordered by most recent activity.
	ListSessions(ctx context.Context) ([]*Session, error)
}

// PresenceStore keeps the operator's manually announced availability.
type PresenceStore interface {
	// SetPresence records the flag; an online flag lapses after ttl.
	SetPresence(ctx context.Context, online bool, ttl time.Duration) error

	// Presence reports whether an unexpired online flag is set.
	Presence(ctx context.Context) (bool, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	KVStore
	MessageStore
	PresenceStore

	// Close closes the underlying database connection.
	Close() error
}
