package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// putObjectAPI is the slice of the S3 client the store uses.
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config describes where images are written and how they are addressed.
type S3Config struct {
	Bucket        string
	Region        string
	Prefix        string
	PublicBaseURL string
}

type s3Store struct {
	client putObjectAPI
	cfg    S3Config
	logger zerolog.Logger
}

// NewS3Store creates an S3-backed image store using the default AWS
// credential chain.
func NewS3Store(ctx context.Context, cfg S3Config, logger zerolog.Logger) (ImageStore, error) {
	logger = logger.With().Str("component", "s3-image-store").Logger()

	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		logger.Error().Err(err).Msg("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	logger.Info().
		Str("bucket", cfg.Bucket).
		Str("region", cfg.Region).
		Msg("S3 image store initialised")

	return newS3Store(s3.NewFromConfig(awsCfg), cfg, logger), nil
}

func newS3Store(client putObjectAPI, cfg S3Config, logger zerolog.Logger) *s3Store {
	return &s3Store{client: client, cfg: cfg, logger: logger}
}

func (s *s3Store) Save(ctx context.Context, name, contentType string, body io.ReadSeeker, size int64) (string, error) {
	key := s.cfg.Prefix + name

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("bucket", s.cfg.Bucket).
			Str("key", key).
			Msg("failed to put object to S3")
		return "", fmt.Errorf("failed to put object to S3 (bucket=%s, key=%s): %w", s.cfg.Bucket, key, err)
	}

	s.logger.Info().
		Str("bucket", s.cfg.Bucket).
		Str("key", key).
		Msg("image stored in S3")

	return s.publicURL(key), nil
}

func (s *s3Store) publicURL(key string) string {
	if s.cfg.PublicBaseURL != "" {
		return strings.TrimRight(s.cfg.PublicBaseURL, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}
