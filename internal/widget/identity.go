package widget

import (
	"context"
	"fmt"

	"github.com/vovakirdan/wirechat-widget/internal/store"
	"github.com/vovakirdan/wirechat-widget/internal/utils"
)

const (
	// SessionKey is the KV entry holding the visitor's session identifier.
	SessionKey = "chatSessionId"
	// SessionPrefix starts every generated identifier.
	SessionPrefix = "visitor_"
)

// NewSessionSuffix returns a random identifier suffix.
func NewSessionSuffix() string {
	return utils.NewID()
}

// LoadOrCreateSessionID returns the stored identifier, creating and storing one when absent.
func LoadOrCreateSessionID(ctx context.Context, kv store.KVStore, newSuffix func() string) (string, error) {
	id, ok, err := kv.Get(ctx, SessionKey)
	if err != nil {
		return "", fmt.Errorf("read session id: %w", err)
	}
	if ok && id != "" {
		return id, nil
	}

	if newSuffix == nil {
		newSuffix = NewSessionSuffix
	}
	id = SessionPrefix + newSuffix()
	if err := kv.Set(ctx, SessionKey, id); err != nil {
		return "", fmt.Errorf("store session id: %w", err)
	}
	return id, nil
}
