package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// PublicPrefix is the URL path under which local uploads are served.
const PublicPrefix = "/uploads/"

type fileStore struct {
	dir    string
	logger zerolog.Logger
}

// NewFileStore creates a store that writes images into dir.
func NewFileStore(dir string, logger zerolog.Logger) (ImageStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &fileStore{
		dir:    dir,
		logger: logger.With().Str("component", "file-store").Logger(),
	}, nil
}

func (s *fileStore) Save(ctx context.Context, name, _ string, body io.ReadSeeker, _ int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// Names are generated server side; Base guards against traversal anyway.
	name = filepath.Base(name)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to create image file")
		return "", fmt.Errorf("failed to create image file %s: %w", path, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("failed to write image file %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to close image file %s: %w", path, err)
	}

	s.logger.Info().Str("file", path).Msg("image stored on local file system")

	return PublicPrefix + name, nil
}
