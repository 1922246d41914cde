package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 5 << 20

var allowedImageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
}

type uploadService struct {
	store  storage.ImageStore
	logger zerolog.Logger
	now    func() time.Time
}

// NewUploadService creates an upload service writing to store.
func NewUploadService(store storage.ImageStore, logger zerolog.Logger) UploadService {
	return &uploadService{
		store:  store,
		logger: logger.With().Str("service", "upload").Logger(),
		now:    time.Now,
	}
}

// Upload accepts jpg/jpeg/png by extension and declared content type. Stored
// names are generated, the client's file name only contributes its extension.
func (s *uploadService) Upload(ctx context.Context, filename, contentType string, body io.ReadSeeker, size int64) (string, error) {
	if body == nil || size == 0 {
		return "", model.ErrImageRequired
	}
	if size > MaxImageSize {
		return "", model.ErrImageTooLarge
	}

	ext := strings.ToLower(filepath.Ext(filename))
	wantType, ok := allowedImageTypes[ext]
	if !ok {
		return "", model.ErrImageType
	}

	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if mediaType == "image/jpg" {
		mediaType = "image/jpeg"
	}
	if mediaType != wantType {
		return "", model.ErrImageType
	}

	name := fmt.Sprintf("image-%d-%s%s", s.now().UnixMilli(), uuid.NewString()[:8], ext)

	url, err := s.store.Save(ctx, name, wantType, body, size)
	if err != nil {
		s.logger.Error().Err(err).Str("name", name).Msg("failed to store image")
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	s.logger.Info().Str("name", name).Int64("size", size).Msg("image uploaded")
	return url, nil
}
