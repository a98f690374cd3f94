package publish

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// Upload is the durable location of a published video.
type Upload struct {
	URL      string
	RemoteID string
}

// Publisher receives a finished video file and returns its durable remote
// location. A nil Publisher means videos stay on local disk.
type Publisher interface {
	Upload(ctx context.Context, localPath string) (Upload, error)
}

// Config holds the object store connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	BaseURL   string
	UseSSL    bool
}

// MinioPublisher uploads finished videos to an S3-compatible object store.
type MinioPublisher struct {
	client  *minio.Client
	bucket  string
	baseURL string
	logger  zerolog.Logger
}

// NewMinioPublisher constructs a publisher against the configured bucket.
func NewMinioPublisher(cfg Config, logger zerolog.Logger) (*MinioPublisher, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("publish: bucket is required")
	}

	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("publish: create minio client: %w", err)
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
	}

	return &MinioPublisher{client: mc, bucket: cfg.Bucket, baseURL: baseURL, logger: logger}, nil
}

// EnsureBucket creates the target bucket when it does not exist yet.
func (p *MinioPublisher) EnsureBucket(ctx context.Context) error {
	exists, err := p.client.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("publish: check bucket existence: %w", err)
	}
	if exists {
		return nil
	}
	if err := p.client.MakeBucket(ctx, p.bucket, minio.MakeBucketOptions{}); err != nil {
		exists, checkErr := p.client.BucketExists(ctx, p.bucket)
		if checkErr == nil && exists {
			return nil
		}
		return fmt.Errorf("publish: create bucket %s: %w", p.bucket, err)
	}
	return nil
}

// Upload stores the local file under videos/<name> and returns its public
// URL and object key.
func (p *MinioPublisher) Upload(ctx context.Context, localPath string) (Upload, error) {
	objectKey := "videos/" + filepath.Base(localPath)

	info, err := p.client.FPutObject(ctx, p.bucket, objectKey, localPath, minio.PutObjectOptions{
		ContentType: "video/mp4",
	})
	if err != nil {
		return Upload{}, fmt.Errorf("publish: put object %s: %w", objectKey, err)
	}

	p.logger.Info().Str("key", objectKey).Int64("bytes", info.Size).Msg("publish: video uploaded")
	return Upload{
		URL:      p.baseURL + "/" + objectKey,
		RemoteID: objectKey,
	}, nil
}
