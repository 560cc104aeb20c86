package blobstore

import (
	"fmt"

	"github.com/hgcsasdas/FFHS/internal/config"
	"github.com/hgcsasdas/FFHS/internal/core"
)

// NewFromConfig creates a BlobStore implementation based on the storage
// config type.
func NewFromConfig(cfg config.StorageConfig) (core.BlobStore, error) {
	switch cfg.Type {
	case "filesystem":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem storage requires root to be set")
		}
		return NewFilesystemStore(cfg.Root)
	case "s3":
		return NewS3Store(cfg)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
