// Package inboxcache backs inbox.Cache with Redis, so the dashboard's
// unread-count poll doesn't recompute the count against the subscribers and
// messages tables on every request.
package inboxcache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RabowNicholas/sanctuary-sms-tool/internal/inbox"
)

const (
	statsKey = "sanctuary:sms:inbox:stats"
	ttl      = 5 * time.Second
)

// Cache implements inbox.Cache against a Redis client. A nil client makes it
// an always-miss cache, so the service works the same without Redis
// configured.
type Cache struct {
	redis *redis.Client
}

func New(client *redis.Client) *Cache {
	return &Cache{redis: client}
}

func (c *Cache) GetStats(ctx context.Context) (inbox.Stats, bool) {
	if c == nil || c.redis == nil {
		return inbox.Stats{}, false
	}
	raw, err := c.redis.Get(ctx, statsKey).Bytes()
	if err != nil {
		return inbox.Stats{}, false
	}
	var stats inbox.Stats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return inbox.Stats{}, false
	}
	return stats, true
}

func (c *Cache) SetStats(ctx context.Context, stats inbox.Stats) {
	if c == nil || c.redis == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, statsKey, raw, ttl).Err()
}

func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.redis == nil {
		return
	}
	_ = c.redis.Del(ctx, statsKey).Err()
}
