package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/vovakirdan/wirechat-widget/internal/store"
)

// DefaultPresenceKey is where the operator presence flag lives.
const DefaultPresenceKey = "wirechat:operator:presence"

// PresenceStore keeps operator presence in redis so several relay instances agree on /status.
type PresenceStore struct {
	client goredis.UniversalClient
	key    string
}

var _ store.PresenceStore = (*PresenceStore)(nil)

// New connects to redis at addr and verifies the connection.
func New(ctx context.Context, addr string) (*PresenceStore, error) {
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewWithClient(client, DefaultPresenceKey), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client goredis.UniversalClient, key string) *PresenceStore {
	if key == "" {
		key = DefaultPresenceKey
	}
	return &PresenceStore{client: client, key: key}
}

// SetPresence stores an expiring online flag, or clears it.
func (p *PresenceStore) SetPresence(ctx context.Context, online bool, ttl time.Duration) error {
	if !online {
		if err := p.client.Del(ctx, p.key).Err(); err != nil {
			return fmt.Errorf("clear presence: %w", err)
		}
		return nil
	}
	if err := p.client.Set(ctx, p.key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("set presence: %w", err)
	}
	return nil
}

// Presence reports whether the flag is currently set.
func (p *PresenceStore) Presence(ctx context.Context) (bool, error) {
	err := p.client.Get(ctx, p.key).Err()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get presence: %w", err)
	}
	return true, nil
}

// Close releases the redis client.
func (p *PresenceStore) Close() error {
	return p.client.Close()
}
