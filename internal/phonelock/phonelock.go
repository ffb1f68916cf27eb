// Package phonelock serializes webhook processing for a single phone
// number across concurrent Twilio deliveries, using a short-lived Redis
// lock so a retried webhook cannot race its own first attempt.
package phonelock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "sanctuary:sms:lock:"
	defaultTTL = 10 * time.Second
)

// Locker acquires and releases a per-phone-number lock. A nil Redis client
// degrades to an always-succeeding no-op lock, so the service still works
// without Redis configured, just without the duplicate-webhook guard.
type Locker struct {
	redis *redis.Client
	ttl   time.Duration
}

// New builds a Locker backed by client. client may be nil.
func New(client *redis.Client) *Locker {
	return &Locker{redis: client, ttl: defaultTTL}
}

// Handle is a held lock's release token.
type Handle struct {
	key   string
	token string
}

// Acquire attempts to take the lock for phone, returning ok=false if
// another webhook for the same number is already being processed.
func (l *Locker) Acquire(ctx context.Context, phone string) (Handle, bool, error) {
	if l == nil || l.redis == nil {
		return Handle{}, true, nil
	}
	key := keyPrefix + phone
	token := uuid.NewString()
	ok, err := l.redis.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return Handle{}, false, fmt.Errorf("phonelock: acquire: %w", err)
	}
	return Handle{key: key, token: token}, ok, nil
}

// releaseScript deletes the lock only if it still holds the token this
// caller set, so a slow handler can't release a lock a newer webhook for
// the same phone number has since acquired.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
else
	return 0
end
`)

// Release drops the lock if h is still the current holder.
func (l *Locker) Release(ctx context.Context, h Handle) error {
	if l == nil || l.redis == nil || h.key == "" {
		return nil
	}
	if err := releaseScript.Run(ctx, l.redis, []string{h.key}, h.token).Err(); err != nil {
		return fmt.Errorf("phonelock: release: %w", err)
	}
	return nil
}
