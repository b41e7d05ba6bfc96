package actions

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"

	"github.com/flowforge/durableflow/internal/platform/objectstore"
)

// ObjectStoreUploader adapts the objectstore package's free functions
// to the ManifestUploader interface Dispatcher depends on.
type ObjectStoreUploader struct {
	Client *minio.Client
	Config objectstore.Config
}

func NewObjectStoreUploader(client *minio.Client, cfg objectstore.Config) *ObjectStoreUploader {
	return &ObjectStoreUploader{Client: client, Config: cfg}
}

func (u *ObjectStoreUploader) UploadManifest(ctx context.Context, orderID string, manifest []byte) error {
	key := fmt.Sprintf("orders/%s/manifest.json", orderID)
	_, err := objectstore.PutJSON(ctx, u.Client, u.Config, key, manifest)
	return err
}
