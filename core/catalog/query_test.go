package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"BeatWave/model"
	"BeatWave/repository"
)

// stubBeatRepo is an in-memory BeatRepository mirroring the MySQL
// implementation's filter and ordering semantics, including the id-ascending
// tie-break.
type stubBeatRepo struct {
	beats   map[int64]*model.Beat
	nextID  int64
	listErr error
	getErr  error
}

func newStubBeatRepo() *stubBeatRepo {
	return &stubBeatRepo{beats: make(map[int64]*model.Beat), nextID: 1}
}

func (r *stubBeatRepo) CreateBeat(_ context.Context, beat *model.Beat) (int64, error) {
	clone := *beat
	clone.ID = r.nextID
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = time.Now()
	}
	r.beats[clone.ID] = &clone
	r.nextID++
	beat.ID = clone.ID
	beat.CreatedAt = clone.CreatedAt
	return clone.ID, nil
}

func (r *stubBeatRepo) GetBeatByID(_ context.Context, id int64) (*model.Beat, error) {
	if r.getErr != nil {
		return nil, r.getErr
	}
	beat, ok := r.beats[id]
	if !ok {
		return nil, nil
	}
	clone := *beat
	return &clone, nil
}

func (r *stubBeatRepo) ListBeats(_ context.Context, filter repository.BeatFilter) ([]*model.Beat, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}

	var out []*model.Beat
	for _, beat := range r.beats {
		if filter.ProducerID != 0 && beat.ProducerID != filter.ProducerID {
			continue
		}
		if filter.Genre != "" && beat.Genre != filter.Genre {
			continue
		}
		if filter.FeaturedOnly && !beat.IsFeatured {
			continue
		}
		if filter.ExcludeID != 0 && beat.ID == filter.ExcludeID {
			continue
		}
		clone := *beat
		out = append(out, &clone)
	}

	sort.Slice(out, func(i, j int) bool {
		switch filter.Order {
		case repository.OrderNewest:
			if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
		case repository.OrderMostPlayed:
			if out[i].PlayCount != out[j].PlayCount {
				return out[i].PlayCount > out[j].PlayCount
			}
		}
		return out[i].ID < out[j].ID
	})

	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *stubBeatRepo) IncrementPlayCount(_ context.Context, id int64, delta int64) error {
	beat, ok := r.beats[id]
	if !ok {
		return errors.New("no such beat")
	}
	beat.PlayCount += delta
	return nil
}

func (r *stubBeatRepo) SetFeatured(_ context.Context, id int64, featured bool) error {
	beat, ok := r.beats[id]
	if !ok {
		return errors.New("no such beat")
	}
	beat.IsFeatured = featured
	return nil
}

func seedBeat(t *testing.T, repo *stubBeatRepo, genre string, createdAt time.Time, plays int64, featured bool) *model.Beat {
	t.Helper()
	beat := &model.Beat{
		ProducerID: 1,
		Title:      fmt.Sprintf("%s beat", genre),
		AudioPath:  "audio/test.mp3",
		Genre:      genre,
		BPM:        120,
		PlayCount:  plays,
		IsFeatured: featured,
		CreatedAt:  createdAt,
	}
	_, err := repo.CreateBeat(context.Background(), beat)
	require.NoError(t, err)
	return beat
}

func TestHomeViewLimits(t *testing.T) {
	repo := newStubBeatRepo()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 20; i++ {
		seedBeat(t, repo, "Trap", base.Add(time.Duration(i)*time.Minute), int64(i), i%3 == 0)
	}

	svc := NewQueryService(repo, nil)
	view, err := svc.Home(context.Background())
	require.NoError(t, err)

	assert.Len(t, view.Latest, HomeLatestCount)
	assert.Len(t, view.Popular, HomePopularCount)
	assert.Len(t, view.Featured, HomeFeaturedCount)

	// Latest is newest first.
	for i := 1; i < len(view.Latest); i++ {
		assert.False(t, view.Latest[i].CreatedAt.After(view.Latest[i-1].CreatedAt))
	}
	// Popular is most played first.
	for i := 1; i < len(view.Popular); i++ {
		assert.LessOrEqual(t, view.Popular[i].PlayCount, view.Popular[i-1].PlayCount)
	}
	for _, beat := range view.Featured {
		assert.True(t, beat.IsFeatured)
	}
}

func TestHomeViewOnSmallCatalog(t *testing.T) {
	repo := newStubBeatRepo()
	seedBeat(t, repo, "Trap", time.Now(), 5, false)
	seedBeat(t, repo, "Lo-fi", time.Now(), 2, true)

	svc := NewQueryService(repo, nil)
	view, err := svc.Home(context.Background())
	require.NoError(t, err)

	assert.Len(t, view.Latest, 2)
	assert.Len(t, view.Popular, 2)
	assert.Len(t, view.Featured, 1)
}

func TestHomeViewIdempotent(t *testing.T) {
	repo := newStubBeatRepo()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		// Identical play counts force the id tie-break.
		seedBeat(t, repo, "House", base, 7, false)
	}

	svc := NewQueryService(repo, nil)
	first, err := svc.Home(context.Background())
	require.NoError(t, err)
	second, err := svc.Home(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHomeViewStorageError(t *testing.T) {
	repo := newStubBeatRepo()
	repo.listErr = errors.New("connection refused")

	svc := NewQueryService(repo, nil)
	_, err := svc.Home(context.Background())
	require.ErrorIs(t, err, ErrStorage)
}

func TestDetailNotFound(t *testing.T) {
	svc := NewQueryService(newStubBeatRepo(), nil)
	_, err := svc.Detail(context.Background(), 42)
	require.ErrorIs(t, err, ErrBeatNotFound)
}

func TestDetailRelatedBeats(t *testing.T) {
	repo := newStubBeatRepo()
	now := time.Now()
	target := seedBeat(t, repo, "Lo-fi", now, 0, false)
	for i := 0; i < 6; i++ {
		seedBeat(t, repo, "Lo-fi", now, 0, false)
	}
	seedBeat(t, repo, "Trap", now, 0, false)

	svc := NewQueryService(repo, nil)
	view, err := svc.Detail(context.Background(), target.ID)
	require.NoError(t, err)

	require.Equal(t, target.ID, view.Beat.ID)
	assert.Len(t, view.Related, RelatedCount)
	for _, related := range view.Related {
		assert.NotEqual(t, target.ID, related.ID)
		assert.Equal(t, "Lo-fi", related.Genre)
	}
}

func TestDetailRelatedAcrossProducers(t *testing.T) {
	repo := newStubBeatRepo()
	first := &model.Beat{ProducerID: 1, Title: "First", AudioPath: "audio/a.mp3", Genre: "Lo-fi", BPM: 80}
	second := &model.Beat{ProducerID: 2, Title: "Second", AudioPath: "audio/b.mp3", Genre: "Lo-fi", BPM: 85}
	_, err := repo.CreateBeat(context.Background(), first)
	require.NoError(t, err)
	_, err = repo.CreateBeat(context.Background(), second)
	require.NoError(t, err)

	svc := NewQueryService(repo, nil)
	view, err := svc.Detail(context.Background(), first.ID)
	require.NoError(t, err)

	require.Len(t, view.Related, 1)
	assert.Equal(t, second.ID, view.Related[0].ID)
}

func TestProfileListsOwnBeatsNewestFirst(t *testing.T) {
	repo := newStubBeatRepo()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		beat := &model.Beat{
			ProducerID: 7,
			Title:      fmt.Sprintf("Mine %d", i),
			AudioPath:  "audio/m.mp3",
			Genre:      "Drill",
			BPM:        140,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}
		_, err := repo.CreateBeat(context.Background(), beat)
		require.NoError(t, err)
	}
	// Another producer's beat must not leak in.
	other := &model.Beat{ProducerID: 8, Title: "Other", AudioPath: "audio/o.mp3", Genre: "Drill", BPM: 140, CreatedAt: base}
	_, err := repo.CreateBeat(context.Background(), other)
	require.NoError(t, err)

	svc := NewQueryService(repo, nil)
	beats, err := svc.Profile(context.Background(), 7)
	require.NoError(t, err)

	// Unbounded: all 12, none from the other producer.
	require.Len(t, beats, 12)
	for i, beat := range beats {
		assert.Equal(t, int64(7), beat.ProducerID)
		if i > 0 {
			assert.False(t, beat.CreatedAt.After(beats[i-1].CreatedAt))
		}
	}
}

// memHomeCache is a map-backed HomeViewCache.
type memHomeCache struct {
	view *HomeView
	hits int
}

func (c *memHomeCache) GetHome(context.Context) (*HomeView, bool) {
	if c.view == nil {
		return nil, false
	}
	c.hits++
	return c.view, true
}

func (c *memHomeCache) SetHome(_ context.Context, view *HomeView) { c.view = view }

func (c *memHomeCache) InvalidateHome(context.Context) { c.view = nil }

func TestHomeViewServedFromCache(t *testing.T) {
	repo := newStubBeatRepo()
	seedBeat(t, repo, "Trap", time.Now(), 1, false)

	cache := &memHomeCache{}
	svc := NewQueryService(repo, cache)

	first, err := svc.Home(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, cache.hits)

	second, err := svc.Home(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, first, second)

	svc.InvalidateHome(context.Background())
	assert.Nil(t, cache.view)
}
