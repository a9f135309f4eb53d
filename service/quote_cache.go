package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bancoagil/agentdesk/core"
	"github.com/bancoagil/agentdesk/logging"
)

// QuoteCache is a read-through Redis cache for FX quotes. Cache failures are
// logged and treated as misses; the upstream provider is the source of truth.
type QuoteCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger logging.Logger
}

// NewQuoteCache wraps an existing Redis client.
func NewQuoteCache(client *redis.Client, prefix string, ttl time.Duration, logger logging.Logger) *QuoteCache {
	if prefix == "" {
		prefix = "agentdesk:quote:"
	}
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &QuoteCache{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (c *QuoteCache) key(base, target string) string {
	return c.prefix + base + ":" + target
}

// Get returns a cached quote and whether one was found.
func (c *QuoteCache) Get(ctx context.Context, base, target string) (core.Quote, bool) {
	data, err := c.client.Get(ctx, c.key(base, target)).Bytes()
	if err == redis.Nil {
		return core.Quote{}, false
	}
	if err != nil {
		c.logger.Warn("quote cache read failed", "error", err)
		return core.Quote{}, false
	}
	var q core.Quote
	if err := json.Unmarshal(data, &q); err != nil {
		c.logger.Warn("quote cache entry corrupt", "error", err)
		return core.Quote{}, false
	}
	return q, true
}

// Set stores a quote with the configured TTL.
func (c *QuoteCache) Set(ctx context.Context, q core.Quote) {
	data, err := json.Marshal(q)
	if err != nil {
		c.logger.Warn("quote cache marshal failed", "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(q.Base, q.Target), data, c.ttl).Err(); err != nil {
		c.logger.Warn("quote cache write failed", "error", err)
	}
}
