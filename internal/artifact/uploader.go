// Package artifact uploads exported batch files to S3-compatible storage.
// With no bucket configured the NoopUploader is used and exports stay local.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/hyperengineering/voices/internal/config"
)

// ErrNotConfigured is returned when artifact storage is not configured.
var ErrNotConfigured = errors.New("artifact storage not configured")

// Uploader stores exported batch files and hands out download links.
type Uploader interface {
	// Upload stores the file at filePath and returns its object key.
	Upload(ctx context.Context, topicID, batchID, filePath string) (string, error)

	// PresignedURL returns a time-limited download URL for an uploaded batch.
	PresignedURL(ctx context.Context, topicID, batchID string) (url string, expiry time.Time, err error)
}

type s3Client interface {
	FPutObject(ctx context.Context, bucket, objectName, filePath, contentType string) error
	PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error)
}

type minioClientWrapper struct {
	client *minio.Client
}

func (w *minioClientWrapper) FPutObject(ctx context.Context, bucket, objectName, filePath, contentType string) error {
	_, err := w.client.FPutObject(ctx, bucket, objectName, filePath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (w *minioClientWrapper) PresignedGetObject(ctx context.Context, bucket, objectName string, expiry time.Duration) (*url.URL, error) {
	return w.client.PresignedGetObject(ctx, bucket, objectName, expiry, nil)
}

// S3Uploader uploads batches to S3-compatible storage.
type S3Uploader struct {
	client    s3Client
	bucket    string
	prefix    string
	urlExpiry time.Duration
}

// Upload uploads the interchange file for one batch.
func (u *S3Uploader) Upload(ctx context.Context, topicID, batchID, filePath string) (string, error) {
	key := ObjectKey(u.prefix, topicID, batchID)
	if err := u.client.FPutObject(ctx, u.bucket, key, filePath, "application/json"); err != nil {
		return "", fmt.Errorf("upload batch %s: %w", batchID, err)
	}
	slog.Info("batch uploaded",
		"component", "artifact",
		"action", "upload",
		"topic_id", topicID,
		"bucket", u.bucket,
		"key", key,
	)
	return key, nil
}

// PresignedURL returns a pre-signed GET URL for a batch.
func (u *S3Uploader) PresignedURL(ctx context.Context, topicID, batchID string) (string, time.Time, error) {
	expiresAt := time.Now().Add(u.urlExpiry)
	presigned, err := u.client.PresignedGetObject(ctx, u.bucket, ObjectKey(u.prefix, topicID, batchID), u.urlExpiry)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("presign batch %s: %w", batchID, err)
	}
	return presigned.String(), expiresAt, nil
}

// NoopUploader is used when no bucket is configured.
type NoopUploader struct{}

// Upload does nothing and returns an empty key.
func (u *NoopUploader) Upload(ctx context.Context, topicID, batchID, filePath string) (string, error) {
	return "", nil
}

// PresignedURL always returns ErrNotConfigured.
func (u *NoopUploader) PresignedURL(ctx context.Context, topicID, batchID string) (string, time.Time, error) {
	return "", time.Time{}, ErrNotConfigured
}

// NewUploader returns a NoopUploader when the bucket is empty and an
// S3Uploader otherwise.
func NewUploader(cfg config.ArtifactsConfig) (Uploader, error) {
	if cfg.Bucket == "" {
		return &NoopUploader{}, nil
	}

	secure := cfg.UseSSL == nil || *cfg.UseSSL
	host, secure := parseEndpoint(cfg.Endpoint, secure)

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create S3 client: %w", err)
	}

	return &S3Uploader{
		client:    &minioClientWrapper{client: client},
		bucket:    cfg.Bucket,
		prefix:    cfg.Prefix,
		urlExpiry: time.Duration(cfg.URLExpiry),
	}, nil
}

// parseEndpoint splits an optional http:// or https:// scheme off endpoint,
// since minio wants a bare host. A scheme overrides the configured TLS flag.
func parseEndpoint(endpoint string, secure bool) (string, bool) {
	if host, ok := strings.CutPrefix(endpoint, "https://"); ok {
		return host, true
	}
	if host, ok := strings.CutPrefix(endpoint, "http://"); ok {
		return host, false
	}
	return endpoint, secure
}

// ObjectKey returns the object key for a batch: {prefix}/{topic}/{batch}.json.
func ObjectKey(prefix, topicID, batchID string) string {
	return path.Join(prefix, topicID, batchID+".json")
}
