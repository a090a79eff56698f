package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"BeatWave/logger"
	"BeatWave/repository"
)

const playCountsKey = "catalog:plays"

// PlayCounter buffers play-count increments in a Redis hash so a burst of
// listens does not turn into a burst of UPDATE statements. Flush drains the
// hash into the beats table.
type PlayCounter struct {
	rdb      *redis.Client
	beatRepo repository.BeatRepository
}

// NewPlayCounter creates a PlayCounter.
func NewPlayCounter(rdb *redis.Client, beatRepo repository.BeatRepository) *PlayCounter {
	return &PlayCounter{rdb: rdb, beatRepo: beatRepo}
}

// Incr records one play for a beat. When Redis is unavailable the increment
// goes straight to the database instead of being dropped.
func (c *PlayCounter) Incr(ctx context.Context, beatID int64) error {
	if c.rdb == nil {
		return c.beatRepo.IncrementPlayCount(ctx, beatID, 1)
	}

	field := strconv.FormatInt(beatID, 10)
	if err := c.rdb.HIncrBy(ctx, playCountsKey, field, 1).Err(); err != nil {
		logger.Warn("failed to buffer play count, writing through",
			logger.Int64("beatId", beatID),
			logger.ErrorField(err),
		)
		return c.beatRepo.IncrementPlayCount(ctx, beatID, 1)
	}
	return nil
}

// Flush drains buffered counts into the database. Entries that fail to
// apply are restored to the buffer for the next run.
func (c *PlayCounter) Flush(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}

	counts, err := c.rdb.HGetAll(ctx, playCountsKey).Result()
	if err != nil {
		return fmt.Errorf("failed to read play count buffer: %w", err)
	}
	if len(counts) == 0 {
		return nil
	}

	if err := c.rdb.Del(ctx, playCountsKey).Err(); err != nil {
		return fmt.Errorf("failed to reset play count buffer: %w", err)
	}

	for field, raw := range counts {
		beatID, err := strconv.ParseInt(field, 10, 64)
		if err != nil {
			logger.Warn("dropping malformed play count entry", logger.String("field", field))
			continue
		}
		delta, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || delta <= 0 {
			continue
		}

		if err := c.beatRepo.IncrementPlayCount(ctx, beatID, delta); err != nil {
			logger.Error("failed to flush play count",
				logger.Int64("beatId", beatID),
				logger.Int64("delta", delta),
				logger.ErrorField(err),
			)
			// Put the delta back so the plays are not lost.
			if rerr := c.rdb.HIncrBy(ctx, playCountsKey, field, delta).Err(); rerr != nil {
				logger.Error("failed to restore play count buffer entry",
					logger.Int64("beatId", beatID),
					logger.ErrorField(rerr),
				)
			}
		}
	}
	return nil
}

// RunFlusher flushes on a fixed interval until the context is cancelled.
// Started as a goroutine next to the HTTP server.
func (c *PlayCounter) RunFlusher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// Final drain on shutdown, with a fresh short-lived context.
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := c.Flush(flushCtx); err != nil {
				logger.Error("final play count flush failed", logger.ErrorField(err))
			}
			cancel()
			return
		case <-ticker.C:
			if err := c.Flush(ctx); err != nil {
				logger.Error("play count flush failed", logger.ErrorField(err))
			}
		}
	}
}
