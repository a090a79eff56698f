package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BeatWave/model"
	"BeatWave/repository"
)

// stubBeatRepo only cares about play counts; the rest of the interface is
// inert.
type stubBeatRepo struct {
	counts  map[int64]int64
	failIDs map[int64]bool
}

func newStubBeatRepo() *stubBeatRepo {
	return &stubBeatRepo{counts: make(map[int64]int64), failIDs: make(map[int64]bool)}
}

func (r *stubBeatRepo) CreateBeat(_ context.Context, _ *model.Beat) (int64, error) {
	return 0, nil
}

func (r *stubBeatRepo) GetBeatByID(_ context.Context, _ int64) (*model.Beat, error) {
	return nil, nil
}

func (r *stubBeatRepo) ListBeats(_ context.Context, _ repository.BeatFilter) ([]*model.Beat, error) {
	return nil, nil
}

func (r *stubBeatRepo) IncrementPlayCount(_ context.Context, id int64, delta int64) error {
	if r.failIDs[id] {
		return errors.New("lock wait timeout")
	}
	r.counts[id] += delta
	return nil
}

func (r *stubBeatRepo) SetFeatured(_ context.Context, _ int64, _ bool) error {
	return nil
}

func newTestCounter(t *testing.T) (*PlayCounter, *miniredis.Miniredis, *stubBeatRepo) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	repo := newStubBeatRepo()
	return NewPlayCounter(rdb, repo), mr, repo
}

func TestPlayCounterIncrBuffers(t *testing.T) {
	counter, mr, repo := newTestCounter(t)
	ctx := context.Background()

	require.NoError(t, counter.Incr(ctx, 7))
	require.NoError(t, counter.Incr(ctx, 7))
	require.NoError(t, counter.Incr(ctx, 9))

	// Everything stays in the buffer until a flush.
	assert.Empty(t, repo.counts)
	assert.Equal(t, "2", mr.HGet(playCountsKey, "7"))
	assert.Equal(t, "1", mr.HGet(playCountsKey, "9"))
}

func TestPlayCounterFlushAppliesDeltas(t *testing.T) {
	counter, mr, repo := newTestCounter(t)
	ctx := context.Background()

	require.NoError(t, counter.Incr(ctx, 7))
	require.NoError(t, counter.Incr(ctx, 7))
	require.NoError(t, counter.Incr(ctx, 9))

	require.NoError(t, counter.Flush(ctx))

	assert.Equal(t, int64(2), repo.counts[7])
	assert.Equal(t, int64(1), repo.counts[9])
	assert.False(t, mr.Exists(playCountsKey))
}

func TestPlayCounterFlushRestoresFailedDeltas(t *testing.T) {
	counter, mr, repo := newTestCounter(t)
	ctx := context.Background()
	repo.failIDs[7] = true

	require.NoError(t, counter.Incr(ctx, 7))
	require.NoError(t, counter.Incr(ctx, 7))
	require.NoError(t, counter.Incr(ctx, 7))
	require.NoError(t, counter.Incr(ctx, 9))

	require.NoError(t, counter.Flush(ctx))

	// The healthy beat is applied; the failed one keeps its plays buffered
	// for the next run.
	assert.Equal(t, int64(1), repo.counts[9])
	assert.Equal(t, int64(0), repo.counts[7])
	assert.Equal(t, "3", mr.HGet(playCountsKey, "7"))

	repo.failIDs[7] = false
	require.NoError(t, counter.Flush(ctx))
	assert.Equal(t, int64(3), repo.counts[7])
}

func TestPlayCounterIncrWritesThroughWhenRedisDown(t *testing.T) {
	counter, mr, repo := newTestCounter(t)
	mr.Close()

	require.NoError(t, counter.Incr(context.Background(), 7))
	assert.Equal(t, int64(1), repo.counts[7])
}

func TestRunFlusherDrainsOnShutdown(t *testing.T) {
	counter, mr, repo := newTestCounter(t)

	require.NoError(t, counter.Incr(context.Background(), 7))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// With the context already cancelled RunFlusher must perform the final
	// drain and return; buffered plays survive a shutdown.
	counter.RunFlusher(ctx, time.Minute)

	assert.Equal(t, int64(1), repo.counts[7])
	assert.False(t, mr.Exists(playCountsKey))
}
