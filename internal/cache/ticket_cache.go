package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/support-desk/internal/domain"
)

const keyPrefix = "ticket:detail:"

// TicketCache is a redis-backed read-through cache for assembled ticket
// details. Cache failures degrade to a miss, never to a request error.
type TicketCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewTicketCache builds a cache with the given expiry.
func NewTicketCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *TicketCache {
	return &TicketCache{client: client, ttl: ttl, logger: logger}
}

// Get returns the cached detail for ticketID, or false on miss.
func (c *TicketCache) Get(ctx context.Context, ticketID string) (*domain.TicketDetail, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, keyPrefix+ticketID).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("ticket cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var detail domain.TicketDetail
	if err := json.Unmarshal(raw, &detail); err != nil {
		c.logger.Warn("ticket cache decode failed", zap.Error(err))
		return nil, false
	}
	return &detail, true
}

// Set stores the detail under its ticket id.
func (c *TicketCache) Set(ctx context.Context, detail *domain.TicketDetail) {
	if c == nil || c.client == nil || detail == nil {
		return
	}
	raw, err := json.Marshal(detail)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+detail.Ticket.ID, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("ticket cache write failed", zap.Error(err))
	}
}

// Invalidate drops the cached detail after a mutation.
func (c *TicketCache) Invalidate(ctx context.Context, ticketID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, keyPrefix+ticketID).Err(); err != nil {
		c.logger.Warn("ticket cache invalidation failed", zap.Error(err))
	}
}
