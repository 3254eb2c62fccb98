package proof

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// s3Client is the slice of the S3 API the store uses, kept narrow for
// testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Config holds S3-compatible storage settings for proof photos.
type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

// Enabled reports whether the configuration is complete enough to use.
func (c Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

// Store keeps proof-of-completion photos in S3-compatible object storage.
// Keys are opaque; the database only ever holds the key string.
type Store struct {
	cfg    Config
	client s3Client
	logger *slog.Logger
}

func NewStore(cfg Config, logger *slog.Logger) *Store {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return &Store{
		cfg:    cfg,
		client: s3.New(opts),
		logger: logger,
	}
}

// Put uploads a proof photo and returns its key. Keys are partitioned by
// family so orphaned objects are attributable.
func (s *Store) Put(ctx context.Context, familyID int64, data []byte, contentType string) (string, error) {
	key := fmt.Sprintf("proofs/%d/%s", familyID, uuid.NewString())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put proof: %w", err)
	}

	s.logger.Debug("proof stored", "key", key, "bytes", len(data))
	return key, nil
}

// Delete removes a proof photo. Callers treat this as best-effort.
func (s *Store) Delete(ctx context.Context, key string) error {
	start := time.Now()
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete proof: %w", err)
	}

	s.logger.Debug("proof deleted", "key", key, "duration", time.Since(start))
	return nil
}
