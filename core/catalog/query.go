package catalog

import (
	"context"
	"fmt"

	"BeatWave/logger"
	"BeatWave/model"
	"BeatWave/repository"
)

// View sizes for the fixed marketplace pages.
const (
	HomeLatestCount   = 8
	HomePopularCount  = 8
	HomeFeaturedCount = 4
	RelatedCount      = 4
)

// HomeView is the landing page payload: three fixed slices over the catalog.
type HomeView struct {
	Latest   []*model.Beat `json:"latest"`
	Popular  []*model.Beat `json:"popular"`
	Featured []*model.Beat `json:"featured"`
}

// DetailView is one beat plus discovery of beats in the same genre.
type DetailView struct {
	Beat    *model.Beat   `json:"beat"`
	Related []*model.Beat `json:"related"`
}

// HomeViewCache is an optional read-through cache for the home view.
// Implementations must return identical views between writes.
type HomeViewCache interface {
	GetHome(ctx context.Context) (*HomeView, bool)
	SetHome(ctx context.Context, view *HomeView)
	InvalidateHome(ctx context.Context)
}

// QueryService composes the read-only catalog views. It owns no state
// beyond its collaborators; every call delegates to the beat repository
// with fixed parameters.
type QueryService struct {
	beatRepo repository.BeatRepository
	cache    HomeViewCache // may be nil
}

// NewQueryService creates a QueryService. cache may be nil to disable
// home-view caching.
func NewQueryService(beatRepo repository.BeatRepository, cache HomeViewCache) *QueryService {
	return &QueryService{beatRepo: beatRepo, cache: cache}
}

// Home builds the landing page view: latest 8, most played 8, featured
// up to 4.
func (s *QueryService) Home(ctx context.Context) (*HomeView, error) {
	if s.cache != nil {
		if view, ok := s.cache.GetHome(ctx); ok {
			return view, nil
		}
	}

	latest, err := s.beatRepo.ListBeats(ctx, repository.BeatFilter{
		Order: repository.OrderNewest,
		Limit: HomeLatestCount,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing latest beats: %v", ErrStorage, err)
	}

	popular, err := s.beatRepo.ListBeats(ctx, repository.BeatFilter{
		Order: repository.OrderMostPlayed,
		Limit: HomePopularCount,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing popular beats: %v", ErrStorage, err)
	}

	featured, err := s.beatRepo.ListBeats(ctx, repository.BeatFilter{
		FeaturedOnly: true,
		Limit:        HomeFeaturedCount,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing featured beats: %v", ErrStorage, err)
	}

	view := &HomeView{Latest: latest, Popular: popular, Featured: featured}
	if s.cache != nil {
		s.cache.SetHome(ctx, view)
	}
	return view, nil
}

// Detail fetches one beat and up to 4 related beats sharing its genre. The
// requested beat is never part of the related slice.
func (s *QueryService) Detail(ctx context.Context, id int64) (*DetailView, error) {
	beat, err := s.beatRepo.GetBeatByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: fetching beat %d: %v", ErrStorage, id, err)
	}
	if beat == nil {
		return nil, ErrBeatNotFound
	}

	related, err := s.beatRepo.ListBeats(ctx, repository.BeatFilter{
		Genre:     beat.Genre,
		ExcludeID: beat.ID,
		Order:     repository.OrderDefault,
		Limit:     RelatedCount,
	})
	if err != nil {
		// The detail page is still useful without discovery; log and move on.
		logger.Warn("failed to load related beats",
			logger.Int64("beatId", id),
			logger.ErrorField(err),
		)
		related = nil
	}

	return &DetailView{Beat: beat, Related: related}, nil
}

// Profile lists every beat owned by a producer, newest first.
func (s *QueryService) Profile(ctx context.Context, producerID int64) ([]*model.Beat, error) {
	beats, err := s.beatRepo.ListBeats(ctx, repository.BeatFilter{
		ProducerID: producerID,
		Order:      repository.OrderNewest,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: listing beats for producer %d: %v", ErrStorage, producerID, err)
	}
	return beats, nil
}

// InvalidateHome drops the cached home view after a catalog mutation.
func (s *QueryService) InvalidateHome(ctx context.Context) {
	if s.cache != nil {
		s.cache.InvalidateHome(ctx)
	}
}
