package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"BeatWave/core/catalog"
	"BeatWave/logger"
)

const (
	homeViewKey = "catalog:home"
	homeViewTTL = 60 * time.Second
)

// HomeCache caches the rendered home view in Redis. A miss or any Redis
// failure falls through to the database; the cache never changes what a
// caller observes between catalog writes.
type HomeCache struct {
	rdb *redis.Client
}

// NewHomeCache creates a HomeCache on an established client.
func NewHomeCache(rdb *redis.Client) *HomeCache {
	return &HomeCache{rdb: rdb}
}

// GetHome returns the cached home view, if present.
func (c *HomeCache) GetHome(ctx context.Context) (*catalog.HomeView, bool) {
	if c.rdb == nil {
		return nil, false
	}

	payload, err := c.rdb.Get(ctx, homeViewKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn("failed to read home view cache", logger.ErrorField(err))
		}
		return nil, false
	}

	var view catalog.HomeView
	if err := json.Unmarshal(payload, &view); err != nil {
		logger.Warn("failed to decode home view cache", logger.ErrorField(err))
		return nil, false
	}
	return &view, true
}

// SetHome stores the home view with a short TTL.
func (c *HomeCache) SetHome(ctx context.Context, view *catalog.HomeView) {
	if c.rdb == nil || view == nil {
		return
	}

	payload, err := json.Marshal(view)
	if err != nil {
		logger.Warn("failed to encode home view cache", logger.ErrorField(err))
		return
	}
	if err := c.rdb.Set(ctx, homeViewKey, payload, homeViewTTL).Err(); err != nil {
		logger.Warn("failed to write home view cache", logger.ErrorField(err))
	}
}

// InvalidateHome drops the cached view. Called after every successful
// submission or curation change.
func (c *HomeCache) InvalidateHome(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, homeViewKey).Err(); err != nil {
		logger.Warn("failed to invalidate home view cache", logger.ErrorField(err))
	}
}
