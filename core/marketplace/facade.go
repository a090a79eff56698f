package marketplace

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"BeatWave/core/catalog"
	"BeatWave/core/submission"
	"BeatWave/logger"
	"BeatWave/model"
	"BeatWave/repository"
)

// BlobStore is the blob persistence the facade needs. storage.BeatStore
// implements it; tests substitute an in-memory version.
type BlobStore interface {
	UploadAudio(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error)
	UploadCover(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, objectPath string) error
}

// PlayCounter records listen events. cache.PlayCounter implements it.
type PlayCounter interface {
	Incr(ctx context.Context, beatID int64) error
}

// RawSubmission is one submission as it arrives from the dispatcher:
// scalar fields plus the opaque blob readers.
type RawSubmission struct {
	submission.Submission

	Audio            io.Reader
	AudioName        string
	AudioContentType string

	Cover            io.Reader
	CoverName        string
	CoverContentType string
}

// Facade is the marketplace's only external surface. Each operation is an
// independent unit of work; the authenticated producer identity is always
// an explicit parameter, never ambient state.
type Facade struct {
	beatRepo  repository.BeatRepository
	blobs     BlobStore
	validator *submission.Validator
	queries   *catalog.QueryService
	plays     PlayCounter // may be nil; falls back to direct repository writes
}

// NewFacade wires the facade. A nil validator means the default blob
// ceilings.
func NewFacade(beatRepo repository.BeatRepository, blobs BlobStore, validator *submission.Validator, queries *catalog.QueryService, plays PlayCounter) *Facade {
	if validator == nil {
		validator = submission.NewValidator(0, 0)
	}
	return &Facade{
		beatRepo:  beatRepo,
		blobs:     blobs,
		validator: validator,
		queries:   queries,
		plays:     plays,
	}
}

// SubmitBeat validates a submission and, on success, persists its blobs and
// the catalog record with producerID bound as the immutable owner. Any
// validation failure is returned as-is with storage untouched.
func (f *Facade) SubmitBeat(ctx context.Context, producerID int64, raw RawSubmission) (int64, error) {
	validated, err := f.validator.Validate(raw.Submission)
	if err != nil {
		return 0, err
	}

	audioPath, err := f.blobs.UploadAudio(ctx, raw.AudioName, raw.Audio, raw.AudioSize, raw.AudioContentType)
	if err != nil {
		return 0, fmt.Errorf("%w: uploading audio: %v", catalog.ErrStorage, err)
	}

	var coverPath string
	if raw.CoverSize > 0 && raw.Cover != nil {
		coverPath, err = f.blobs.UploadCover(ctx, raw.CoverName, raw.Cover, raw.CoverSize, raw.CoverContentType)
		if err != nil {
			f.removeBlob(ctx, audioPath)
			return 0, fmt.Errorf("%w: uploading cover: %v", catalog.ErrStorage, err)
		}
	}

	beat := &model.Beat{
		ProducerID:   producerID,
		Title:        validated.Title,
		AudioPath:    audioPath,
		CoverPath:    coverPath,
		Price:        validated.Price,
		Genre:        validated.Genre,
		BPM:          validated.BPM,
		Description:  validated.Description,
		Tags:         validated.Tags,
		FreeDownload: validated.FreeDownload,
	}

	id, err := f.beatRepo.CreateBeat(ctx, beat)
	if err != nil {
		// The blobs are orphaned if this cleanup fails; the object keys are
		// uuid-based so they can never be served by accident.
		f.removeBlob(ctx, audioPath)
		f.removeBlob(ctx, coverPath)
		return 0, fmt.Errorf("%w: inserting beat: %v", catalog.ErrStorage, err)
	}

	f.queries.InvalidateHome(ctx)

	logger.Info("beat submitted",
		logger.Int64("beatId", id),
		logger.Int64("producerId", producerID),
		logger.String("genre", beat.Genre),
	)
	return id, nil
}

// BrowseHome returns the landing page view.
func (f *Facade) BrowseHome(ctx context.Context) (*catalog.HomeView, error) {
	return f.queries.Home(ctx)
}

// BrowseDetail returns one beat with its related discovery slice.
// Returns catalog.ErrBeatNotFound for an unknown id.
func (f *Facade) BrowseDetail(ctx context.Context, id int64) (*catalog.DetailView, error) {
	return f.queries.Detail(ctx, id)
}

// BrowseProfile lists the caller's own beats, newest first. Producer
// catalogs are not publicly browsable.
func (f *Facade) BrowseProfile(ctx context.Context, producerID int64) ([]*model.Beat, error) {
	return f.queries.Profile(ctx, producerID)
}

// RecordPlay counts one listen of a beat. Buffered when a play counter is
// wired, otherwise written straight through.
func (f *Facade) RecordPlay(ctx context.Context, beatID int64) error {
	beat, err := f.beatRepo.GetBeatByID(ctx, beatID)
	if err != nil {
		return fmt.Errorf("%w: fetching beat %d: %v", catalog.ErrStorage, beatID, err)
	}
	if beat == nil {
		return catalog.ErrBeatNotFound
	}

	if f.plays != nil {
		return f.plays.Incr(ctx, beatID)
	}
	if err := f.beatRepo.IncrementPlayCount(ctx, beatID, 1); err != nil {
		return fmt.Errorf("%w: incrementing play count: %v", catalog.ErrStorage, err)
	}
	return nil
}

// FeatureBeat flips the curated featured flag for a beat.
func (f *Facade) FeatureBeat(ctx context.Context, beatID int64, featured bool) error {
	if err := f.beatRepo.SetFeatured(ctx, beatID, featured); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return catalog.ErrBeatNotFound
		}
		return fmt.Errorf("%w: updating featured flag: %v", catalog.ErrStorage, err)
	}
	f.queries.InvalidateHome(ctx)
	return nil
}

func (f *Facade) removeBlob(ctx context.Context, objectPath string) {
	if objectPath == "" {
		return
	}
	if err := f.blobs.Remove(ctx, objectPath); err != nil {
		logger.Warn("failed to clean up blob after aborted submission",
			logger.String("path", objectPath),
			logger.ErrorField(err),
		)
	}
}
