// Package objectstore wraps the MinIO client used for best-effort side
// artifacts produced by action handlers (e.g. a shipment manifest from
// ship_order). Nothing in the durable execution path depends on this
// package succeeding; its failures are logged, never propagated into a
// step's result.
package objectstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/flowforge/durableflow/internal/platform/env"
)

type Config struct {
	Endpoint        string
	AccessKey       string
	SecretKey       string
	Region          string
	UseSSL          bool
	BucketManifests string
}

func ConfigFromEnv() (Config, error) {
	useSSL, err := env.Bool("MINIO_USE_SSL", false)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{
		Endpoint:        env.String("MINIO_ENDPOINT", "localhost:9000"),
		AccessKey:       env.String("MINIO_ACCESS_KEY", "workflow"),
		SecretKey:       env.String("MINIO_SECRET_KEY", "workflowminio"),
		Region:          env.String("MINIO_REGION", "us-east-1"),
		UseSSL:          useSSL,
		BucketManifests: env.String("MINIO_BUCKET_MANIFESTS", "shipment-manifests"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.Endpoint) == "" {
		return errors.New("endpoint is required")
	}
	if strings.TrimSpace(c.AccessKey) == "" {
		return errors.New("access key is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("secret key is required")
	}
	if strings.TrimSpace(c.Region) == "" {
		return errors.New("region is required")
	}
	if strings.TrimSpace(c.BucketManifests) == "" {
		return errors.New("manifests bucket is required")
	}
	if strings.Contains(c.Endpoint, "://") {
		return fmt.Errorf("endpoint must not include scheme: %q", c.Endpoint)
	}
	return nil
}
