// Package storage keeps uploaded recipe photos on the local disk or in an
// S3 bucket behind one interface.
package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/franciscosanchezn/gin-recipe-api/internal/config"
	"github.com/sirupsen/logrus"
)

var log = logrus.New()

func init() {
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.InfoLevel)
}

// Store persists files under slash-separated keys such as
// "upload/recipe_photos/<uuid>.jpg".
type Store interface {
	Save(ctx context.Context, key string, body io.Reader, contentType string) error
	// Delete removes a key; deleting a missing key is not an error
	Delete(ctx context.Context, key string) error
	// URL returns the public address of a key
	URL(key string) string
}

// New builds the store selected by STORAGE_BACKEND
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageBackend {
	case "s3":
		return NewS3Store(ctx, S3Options{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
	case "local", "":
		return NewLocalStore(cfg.MediaRoot, cfg.MediaURL)
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.StorageBackend)
	}
}
