package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tabify/order-sync/internal/core/domain"
)

const defaultSessionTTL = 15 * time.Minute

// SessionCache is a lookaside cache over session credential resolution.
// Key format: session:<session_key>, value is the JSON-encoded user.
// Entries expire after the TTL; a stale miss simply falls back to the store.
type SessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a SessionCache wrapping the given Redis client.
func NewSessionCache(client *redis.Client, ttl time.Duration) *SessionCache {
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionCache{client: client, ttl: ttl}
}

// Get returns the cached user for the credential, or (nil, nil) on a miss.
func (c *SessionCache) Get(ctx context.Context, sessionKey string) (*domain.User, error) {
	raw, err := c.client.Get(ctx, c.key(sessionKey)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("session cache get: %w", err)
	}

	var user domain.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, fmt.Errorf("session cache decode: %w", err)
	}
	return &user, nil
}

// Set stores the user under its credential (expires after the TTL).
func (c *SessionCache) Set(ctx context.Context, sessionKey string, user *domain.User) error {
	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("session cache encode: %w", err)
	}
	return c.client.Set(ctx, c.key(sessionKey), raw, c.ttl).Err()
}

func (c *SessionCache) key(sessionKey string) string {
	return "session:" + sessionKey
}
