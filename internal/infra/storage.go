package infra

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"ewarranty/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Storage persists uploaded images and documents and returns the URL under
// which they are served.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, key string) error
	Name() string
}

// NewStorage picks S3 when it is configured and reachable, local disk otherwise.
func NewStorage(ctx context.Context, cfg *config.Config) Storage {
	local := NewLocalStorage(cfg.UploadDir, cfg.PublicBaseURL)
	if !cfg.S3Enabled() {
		return local
	}
	s, err := NewS3Storage(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Msg("s3 storage unavailable, falling back to local disk")
		return local
	}
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		log.Warn().Err(err).Str("bucket", s.bucket).Msg("s3 bucket check failed, falling back to local disk")
		return local
	}
	return s
}

// ── S3 ───────────────────────────────────────────────────────────────────────

type S3Storage struct {
	client    *s3.Client
	bucket    string
	publicURL string
	region    string
}

func NewS3Storage(ctx context.Context, cfg *config.Config) (*S3Storage, error) {
	creds := credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(creds),
		awsconfig.WithRegion(cfg.S3Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Storage{
		client:    client,
		bucket:    cfg.S3Bucket,
		publicURL: cfg.S3PublicURL,
		region:    cfg.S3Region,
	}, nil
}

func (s *S3Storage) Name() string { return "s3" }

func (s *S3Storage) Put(ctx context.Context, key string, r io.Reader, contentType string, size int64) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put %s: %w", key, err)
	}
	return s.url(key), nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s: %w", key, err)
	}
	return nil
}

func (s *S3Storage) url(key string) string {
	if s.publicURL != "" {
		return joinURL(s.publicURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// ── Local disk ───────────────────────────────────────────────────────────────

// LocalStorage writes under baseDir; the router serves that directory at
// /uploads.
type LocalStorage struct {
	baseDir string
	baseURL string
}

func NewLocalStorage(baseDir, publicBaseURL string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir, baseURL: publicBaseURL}
}

func (l *LocalStorage) Name() string { return "local" }

func (l *LocalStorage) Put(_ context.Context, key string, r io.Reader, _ string, _ int64) (string, error) {
	full, err := l.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	dst, err := os.Create(full)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()
	if _, err := io.Copy(dst, r); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return joinURL(l.baseURL, "uploads/"+key), nil
}

func (l *LocalStorage) Delete(_ context.Context, key string) error {
	full, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (l *LocalStorage) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(l.baseDir, clean), nil
}

func joinURL(base, key string) string {
	if base == "" {
		return "/" + key
	}
	u, err := url.JoinPath(base, key)
	if err != nil {
		return strings.TrimSuffix(base, "/") + "/" + key
	}
	return u
}
