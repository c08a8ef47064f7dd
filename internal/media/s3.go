package media

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/prn-tf/cityguide/internal/config"
)

// S3Store implements ObjectStore on an S3 bucket.
type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
	logger  zerolog.Logger
}

// NewS3Store creates an S3 client from cfg. Static credentials are used when
// configured; otherwise the default AWS credential chain applies.
func NewS3Store(ctx context.Context, cfg config.MediaConfig, logger zerolog.Logger) (*S3Store, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL(cfg)
	}

	logger.Info().
		Str("bucket", cfg.Bucket).
		Str("endpoint", cfg.Endpoint).
		Msg("photo storage configured")

	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: baseURL,
		logger:  logger.With().Str("component", "s3").Logger(),
	}, nil
}

func defaultBaseURL(cfg config.MediaConfig) string {
	if cfg.Endpoint != "" {
		return JoinURL(cfg.Endpoint, cfg.Bucket)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
}

// Put uploads data with PutObject.
func (s *S3Store) Put(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to put object %s: %w", key, err)
	}

	s.logger.Debug().Str("key", key).Int("size", len(data)).Msg("object stored")
	return nil
}

// URL returns the public URL of key.
func (s *S3Store) URL(key string) string {
	return JoinURL(s.baseURL, key)
}

// Ensure S3Store implements ObjectStore.
var _ ObjectStore = (*S3Store)(nil)
