package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	platformredis "inscrito/internal/platform/redis"

	"inscrito/internal/event/models"
)

const openEventsKey = "inscrito:events:open"

// ListCache keeps the open-event listing in Redis. The listing is the hottest
// read in the system and tolerates short staleness; writes invalidate the key.
type ListCache struct {
	client *platformredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewListCache(client *platformredis.Client, ttl time.Duration, logger *slog.Logger) *ListCache {
	return &ListCache{client: client, ttl: ttl, logger: logger}
}

// GetOpen returns the cached open-event listing, reporting a miss on any
// error so the caller falls through to the store.
func (c *ListCache) GetOpen(ctx context.Context) ([]*models.Event, bool) {
	raw, err := c.client.Get(ctx, openEventsKey).Bytes()
	if err != nil {
		return nil, false
	}
	var events []*models.Event
	if err := json.Unmarshal(raw, &events); err != nil {
		c.logger.WarnContext(ctx, "corrupt open-events cache entry, dropping", "error", err)
		_ = c.client.Del(ctx, openEventsKey).Err()
		return nil, false
	}
	return events, true
}

// SetOpen stores the listing. Failures are logged, never surfaced: the cache
// is an optimization, not a dependency.
func (c *ListCache) SetOpen(ctx context.Context, events []*models.Event) {
	raw, err := json.Marshal(events)
	if err != nil {
		c.logger.WarnContext(ctx, "marshal open-events cache entry", "error", err)
		return
	}
	if err := c.client.Set(ctx, openEventsKey, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "write open-events cache entry", "error", err)
	}
}

// Invalidate drops the listing after any event mutation.
func (c *ListCache) Invalidate(ctx context.Context) {
	if err := c.client.Del(ctx, openEventsKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "invalidate open-events cache", "error", err)
	}
}
