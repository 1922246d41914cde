// Package storage persists uploaded product images and returns the URL they
// are served from.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// ImageStore saves an image under name and returns its public URL.
type ImageStore interface {
	Save(ctx context.Context, name, contentType string, body io.ReadSeeker, size int64) (string, error)
}

// fallbackStore writes to S3 when enabled and falls back to the local
// file system when S3 is disabled or the upload fails.
type fallbackStore struct {
	s3Store   ImageStore
	fileStore ImageStore
	s3Enabled bool
	logger    zerolog.Logger
}

// NewFallbackStore creates a store that tries S3 first, then the local file
// system. If s3Store is nil only the file store is used.
func NewFallbackStore(s3Store, fileStore ImageStore, s3Enabled bool, logger zerolog.Logger) ImageStore {
	return &fallbackStore{
		s3Store:   s3Store,
		fileStore: fileStore,
		s3Enabled: s3Enabled,
		logger:    logger.With().Str("component", "fallback-store").Logger(),
	}
}

func (s *fallbackStore) Save(ctx context.Context, name, contentType string, body io.ReadSeeker, size int64) (string, error) {
	if s.s3Enabled && s.s3Store != nil {
		url, err := s.s3Store.Save(ctx, name, contentType, body, size)
		if err == nil {
			return url, nil
		}

		s.logger.Warn().
			Err(err).
			Str("name", name).
			Msg("failed to store image in S3, falling back to local file system")

		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return "", fmt.Errorf("failed to rewind image for local fallback: %w", err)
		}
	} else {
		s.logger.Debug().
			Bool("s3_enabled", s.s3Enabled).
			Bool("has_s3_store", s.s3Store != nil).
			Msg("S3 disabled or not configured, using local file system")
	}

	return s.fileStore.Save(ctx, name, contentType, body, size)
}
