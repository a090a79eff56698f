package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BeatWave/core/catalog"
	"BeatWave/model"
)

func newTestHomeCache(t *testing.T) (*HomeCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewHomeCache(rdb), mr
}

func TestHomeCacheRoundTrip(t *testing.T) {
	c, _ := newTestHomeCache(t)
	ctx := context.Background()

	_, ok := c.GetHome(ctx)
	assert.False(t, ok)

	c.SetHome(ctx, &catalog.HomeView{
		Latest: []*model.Beat{{ID: 1, Title: "Night Drive", Genre: "Trap"}},
	})

	got, ok := c.GetHome(ctx)
	require.True(t, ok)
	require.Len(t, got.Latest, 1)
	assert.Equal(t, int64(1), got.Latest[0].ID)
	assert.Equal(t, "Night Drive", got.Latest[0].Title)
}

func TestHomeCacheInvalidate(t *testing.T) {
	c, mr := newTestHomeCache(t)
	ctx := context.Background()

	c.SetHome(ctx, &catalog.HomeView{})
	require.True(t, mr.Exists(homeViewKey))

	c.InvalidateHome(ctx)
	assert.False(t, mr.Exists(homeViewKey))

	_, ok := c.GetHome(ctx)
	assert.False(t, ok)
}
