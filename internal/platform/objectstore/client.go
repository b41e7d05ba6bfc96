package objectstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

func NewMinIOClient(cfg Config) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("new minio client: %w", err)
	}
	return client, nil
}

// EnsureBuckets creates any bucket this service needs that does not
// already exist. Called once at startup, before the readiness endpoint
// reports healthy.
func EnsureBuckets(ctx context.Context, client *minio.Client, cfg Config) error {
	exists, err := client.BucketExists(ctx, cfg.BucketManifests)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", cfg.BucketManifests, err)
	}
	if exists {
		return nil
	}
	if err := client.MakeBucket(ctx, cfg.BucketManifests, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
		return fmt.Errorf("make bucket %s: %w", cfg.BucketManifests, err)
	}
	return nil
}

// CheckBuckets is the readiness-probe form of EnsureBuckets: it reports
// an error instead of repairing one, so a bucket deleted out from under
// a running process flips the service unready rather than panicking mid
// request.
func CheckBuckets(ctx context.Context, client *minio.Client, cfg Config) error {
	exists, err := client.BucketExists(ctx, cfg.BucketManifests)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", cfg.BucketManifests, err)
	}
	if !exists {
		return fmt.Errorf("bucket %s does not exist", cfg.BucketManifests)
	}
	return nil
}

// PutJSON uploads a small JSON document under key, returning the object's
// ETag for callers that want a cheap existence/change marker.
func PutJSON(ctx context.Context, client *minio.Client, cfg Config, key string, body []byte) (string, error) {
	info, err := client.PutObject(ctx, cfg.BucketManifests, key, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return info.ETag, nil
}
