package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"BeatWave/logger"
)

// Object key prefixes inside the bucket.
const (
	audioPrefix  = "audio/"
	coverPrefix  = "covers/"
	avatarPrefix = "avatars/"
)

// BeatStore writes beat blobs to the MinIO bucket. Keys are uuid-based so
// concurrent uploads never collide; the returned path is what gets stored
// on the Beat record.
type BeatStore struct {
	client *minio.Client
	bucket string
}

// NewBeatStore creates a BeatStore on an initialized client.
func NewBeatStore(client *minio.Client, bucket string) *BeatStore {
	return &BeatStore{client: client, bucket: bucket}
}

// UploadAudio stores an audio blob and returns its object path.
func (s *BeatStore) UploadAudio(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	return s.upload(ctx, audioPrefix, filename, r, size, contentType, "audio/mpeg")
}

// UploadCover stores a cover image blob and returns its object path.
func (s *BeatStore) UploadCover(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	return s.upload(ctx, coverPrefix, filename, r, size, contentType, "image/jpeg")
}

// UploadAvatar stores a profile avatar blob and returns its object path.
func (s *BeatStore) UploadAvatar(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	return s.upload(ctx, avatarPrefix, filename, r, size, contentType, "image/jpeg")
}

// Remove deletes an object. Used to clean up a blob whose beat insert
// failed afterwards; best effort, the caller already has an error to return.
func (s *BeatStore) Remove(ctx context.Context, objectPath string) error {
	if objectPath == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, objectPath, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove object %s: %w", objectPath, err)
	}
	return nil
}

// Get opens an object for reading. The caller must close it.
func (s *BeatStore) Get(ctx context.Context, objectPath string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectPath, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectPath, err)
	}
	return object, nil
}

func (s *BeatStore) upload(ctx context.Context, prefix, filename string, r io.Reader, size int64, contentType, fallbackType string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := prefix + uuid.New().String() + ext

	if contentType == "" {
		contentType = fallbackType
	}

	_, err := s.client.PutObject(ctx, s.bucket, objectPath, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", objectPath, err)
	}

	logger.Debug("uploaded object",
		logger.String("path", objectPath),
		logger.Int64("size", size),
		logger.String("contentType", contentType),
	)
	return objectPath, nil
}
