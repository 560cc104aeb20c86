package core

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Registry owns bucket lifecycle: it creates, enumerates, deletes and
// rotates keys for bucket namespaces, and is the sole translation from an
// external API key to an internal bucket identity.
type Registry struct {
	db     Database
	blobs  BlobStore
	logger Logger
	clock  Clock
	keys   IDGenerator

	mu       sync.Mutex
	deleting map[int64]struct{} // bucket ids with a cascade in progress
}

// NewRegistry creates a Registry with the provided dependencies.
func NewRegistry(db Database, blobs BlobStore, logger Logger, clock Clock, keys IDGenerator) *Registry {
	return &Registry{
		db:       db,
		blobs:    blobs,
		logger:   logger,
		clock:    clock,
		keys:     keys,
		deleting: make(map[int64]struct{}),
	}
}

// Create registers a new bucket namespace and returns its API key.
// The metadata row is written first, then the directory. If the directory
// cannot be created after the row is committed, the row is not rolled back
// and a *ConsistencyError is returned: the bucket exists as metadata but is
// unusable until the directory is repaired.
func (r *Registry) Create(name string) (string, error) {
	if !validBucketName(name) {
		return "", ErrInvalidName
	}

	existing, err := r.db.FindBucketByName(name)
	if err != nil {
		return "", fmt.Errorf("checking for existing bucket: %w", err)
	}
	if existing != nil {
		return "", ErrDuplicateName
	}

	bucket := &Bucket{
		Name:      name,
		Path:      name,
		APIKey:    r.keys.New(),
		CreatedAt: r.clock.Now(),
	}
	if err := r.db.CreateBucket(bucket); err != nil {
		if errors.Is(err, ErrUniqueViolation) {
			// Lost a race against a concurrent create of the same name.
			return "", ErrDuplicateName
		}
		return "", fmt.Errorf("creating bucket: %w", err)
	}

	if err := r.blobs.EnsureDir(bucket.Path); err != nil {
		r.logger.Error("bucket directory creation failed", "bucket", name, "error", err)
		return "", &ConsistencyError{Bucket: name, Err: err}
	}

	r.logger.Info("bucket created", "bucket", name, "id", bucket.ID)
	return bucket.APIKey, nil
}

// Delete destroys the bucket the API key resolves to, cascading to every
// owned file record and the bucket's directory tree. The cascade is
// best-effort: a single blob's I/O failure is logged and skipped, and a
// directory-removal failure does not prevent the bucket row from being
// removed. Possible orphaned empty directories are accepted over blocking
// tenant deletion.
func (r *Registry) Delete(apiKey string) error {
	bucket, err := r.ResolveByAPIKey(apiKey)
	if err != nil {
		return err
	}

	r.beginDelete(bucket.ID)
	defer r.finishDelete(bucket.ID)

	files, err := r.db.ListFilesByBucket(bucket.ID)
	if err != nil {
		return fmt.Errorf("listing bucket files: %w", err)
	}
	for _, f := range files {
		if _, err := r.blobs.Remove(f.RelativePath); err != nil {
			r.logger.Warn("could not delete blob", "path", f.RelativePath, "error", err)
		}
		if err := r.db.DeleteFile(f.ID); err != nil {
			r.logger.Warn("could not delete file record", "id", f.ID, "error", err)
		}
	}

	if err := r.blobs.RemoveTree(bucket.Path); err != nil {
		r.logger.Warn("could not remove bucket directory", "path", bucket.Path, "error", err)
	}

	if err := r.db.DeleteBucket(bucket.ID); err != nil {
		return fmt.Errorf("deleting bucket row: %w", err)
	}

	r.logger.Info("bucket deleted", "bucket", bucket.Name, "files", len(files))
	return nil
}

// RotateKey replaces the bucket's API key with a new random value and
// returns it. The old key becomes invalid for every subsequent lookup;
// in-flight requests already past key resolution are unaffected.
func (r *Registry) RotateKey(apiKey string) (string, error) {
	bucket, err := r.ResolveByAPIKey(apiKey)
	if err != nil {
		return "", err
	}

	newKey := r.keys.New()
	if err := r.db.UpdateBucketAPIKey(bucket.ID, newKey); err != nil {
		return "", fmt.Errorf("rotating API key: %w", err)
	}

	r.logger.Info("API key rotated", "bucket", bucket.Name)
	return newKey, nil
}

// ResolveByAPIKey returns the bucket the key identifies, or ErrInvalidKey.
func (r *Registry) ResolveByAPIKey(apiKey string) (*Bucket, error) {
	bucket, err := r.db.FindBucketByAPIKey(apiKey)
	if err != nil {
		return nil, fmt.Errorf("resolving API key: %w", err)
	}
	if bucket == nil {
		return nil, ErrInvalidKey
	}
	return bucket, nil
}

// List returns all buckets. Authorization is the caller's concern.
func (r *Registry) List() ([]*Bucket, error) {
	buckets, err := r.db.ListBuckets()
	if err != nil {
		return nil, fmt.Errorf("listing buckets: %w", err)
	}
	return buckets, nil
}

// Deleting reports whether a delete cascade is in progress for the bucket.
// Store.Upload checks this so uploads fail fast instead of persisting a
// record after the cascade has already enumerated the bucket's files.
func (r *Registry) Deleting(bucketID int64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.deleting[bucketID]
	return ok
}

func (r *Registry) beginDelete(bucketID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleting[bucketID] = struct{}{}
}

func (r *Registry) finishDelete(bucketID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.deleting, bucketID)
}

// validBucketName rejects names that would escape the blob root when used
// as a directory path: empty names, dot segments, and path separators.
func validBucketName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}
