package core

import (
	"errors"
	"fmt"
	"io/fs"
)

// Store owns file lifecycle within a bucket namespace: it computes content
// hashes, deduplicates, writes/reads/deletes blobs under the bucket's root
// and runs batch operations with continue-on-error semantics. It depends on
// the Registry only to resolve API keys into bucket identities.
type Store struct {
	db       Database
	blobs    BlobStore
	registry *Registry
	logger   Logger
	clock    Clock
	names    IDGenerator
}

// NewStore creates a Store with the provided dependencies.
func NewStore(db Database, blobs BlobStore, registry *Registry, logger Logger, clock Clock, names IDGenerator) *Store {
	return &Store{
		db:       db,
		blobs:    blobs,
		registry: registry,
		logger:   logger,
		clock:    clock,
		names:    names,
	}
}

// Upload stores data as a new file in the bucket the API key resolves to.
//
// Write order is deterministic: dedup check, then blob, then metadata.
// An orphaned blob (written but never recorded) is harmless and left for an
// external reconciliation sweep; the reverse — a record pointing at a
// missing blob — must never be produced here.
//
// Two concurrent uploads of identical content can both pass the dedup
// check. The metadata layer's uniqueness constraint on (hash, bucket) is
// the authoritative safety net: a constraint violation on persist is
// reported as ErrDuplicate and the just-written blob is removed best-effort.
func (s *Store) Upload(data []byte, filename, mimeType, apiKey string) (*FileRecord, error) {
	bucket, err := s.registry.ResolveByAPIKey(apiKey)
	if err != nil {
		return nil, err
	}
	if s.registry.Deleting(bucket.ID) {
		return nil, ErrInvalidKey
	}

	hash := ContentHash(data)
	existing, err := s.db.FindFileByHashAndBucket(hash, bucket.ID)
	if err != nil {
		return nil, fmt.Errorf("checking for existing content: %w", err)
	}
	if existing != nil {
		s.logger.Debug("content deduplicated", "bucket", bucket.Name, "hash", hash)
		return nil, ErrDuplicate
	}

	storedName := s.names.New()
	if ext := fileExtension(filename); ext != "" {
		storedName += "." + ext
	}
	rel := bucket.Path + "/" + storedName

	if err := s.blobs.EnsureDir(bucket.Path); err != nil {
		return nil, fmt.Errorf("ensuring bucket directory: %w", err)
	}
	if err := s.blobs.Write(rel, data); err != nil {
		return nil, fmt.Errorf("writing blob: %w", err)
	}

	record := &FileRecord{
		OriginalName: filename,
		StoredName:   storedName,
		RelativePath: rel,
		MimeType:     mimeType,
		SizeBytes:    int64(len(data)),
		Hash:         hash,
		UploadTime:   s.clock.Now(),
		BucketID:     bucket.ID,
	}
	if err := s.db.CreateFile(record); err != nil {
		if errors.Is(err, ErrUniqueViolation) {
			// A concurrent upload of the same content won the metadata
			// race. Clean up our blob and report the normal outcome.
			if _, rmErr := s.blobs.Remove(rel); rmErr != nil {
				s.logger.Warn("could not remove blob after duplicate race", "path", rel, "error", rmErr)
			}
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("persisting file record: %w", err)
	}

	s.logger.Info("file uploaded", "bucket", bucket.Name, "id", record.ID, "size", record.SizeBytes)
	return record, nil
}

// UploadMany uploads every item, continuing past individual failures.
// One bad file never blocks the rest; the aggregated result reports new
// records, duplicate filenames and hard failures separately.
func (s *Store) UploadMany(items []UploadItem, apiKey string) (*UploadBatch, error) {
	if _, err := s.registry.ResolveByAPIKey(apiKey); err != nil {
		return nil, err
	}

	batch := &UploadBatch{}
	for _, item := range items {
		record, err := s.Upload(item.Data, item.Filename, item.MimeType, apiKey)
		switch {
		case err == nil:
			batch.Uploaded = append(batch.Uploaded, record)
		case errors.Is(err, ErrDuplicate):
			batch.Duplicates = append(batch.Duplicates, item.Filename)
		default:
			s.logger.Warn("batch upload item failed", "filename", item.Filename, "error", err)
			batch.Failed = append(batch.Failed, item.Filename)
		}
	}
	return batch, nil
}

// Delete removes a single file: blob first (absence tolerated), record
// second. An id owned by a different bucket yields ErrAccessDenied, never
// ErrNotFound — an id is not a capability, the API key scopes visibility.
func (s *Store) Delete(id int64, apiKey string) error {
	record, err := s.owned(id, apiKey)
	if err != nil {
		return err
	}

	if _, err := s.blobs.Remove(record.RelativePath); err != nil {
		return fmt.Errorf("deleting blob: %w", err)
	}
	if err := s.db.DeleteFile(record.ID); err != nil {
		return fmt.Errorf("deleting file record: %w", err)
	}

	s.logger.Info("file deleted", "id", id)
	return nil
}

// DeleteMany deletes every id, continuing past individual failures.
func (s *Store) DeleteMany(ids []int64, apiKey string) (*DeleteBatch, error) {
	if _, err := s.registry.ResolveByAPIKey(apiKey); err != nil {
		return nil, err
	}

	batch := &DeleteBatch{}
	for _, id := range ids {
		if err := s.Delete(id, apiKey); err != nil {
			s.logger.Warn("batch delete item failed", "id", id, "error", err)
			batch.Failed = append(batch.Failed, id)
			continue
		}
		batch.Deleted = append(batch.Deleted, id)
	}
	return batch, nil
}

// List returns all file records owned by the bucket the key resolves to.
func (s *Store) List(apiKey string) ([]*FileRecord, error) {
	bucket, err := s.registry.ResolveByAPIKey(apiKey)
	if err != nil {
		return nil, err
	}
	records, err := s.db.ListFilesByBucket(bucket.ID)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return records, nil
}

// GetMetadata returns the file record for id, enforcing the same bucket
// ownership check as Delete.
func (s *Store) GetMetadata(id int64, apiKey string) (*FileRecord, error) {
	return s.owned(id, apiKey)
}

// GetBytes returns the stored content for id. A record whose blob has been
// removed out-of-band is reported as ErrBlobMissing, not ErrNotFound.
func (s *Store) GetBytes(id int64, apiKey string) ([]byte, error) {
	record, err := s.owned(id, apiKey)
	if err != nil {
		return nil, err
	}

	data, err := s.blobs.Read(record.RelativePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: id %d at %s", ErrBlobMissing, id, record.RelativePath)
		}
		return nil, fmt.Errorf("reading blob: %w", err)
	}
	return data, nil
}

// owned loads the record for id and verifies it belongs to the bucket the
// API key resolves to.
func (s *Store) owned(id int64, apiKey string) (*FileRecord, error) {
	bucket, err := s.registry.ResolveByAPIKey(apiKey)
	if err != nil {
		return nil, err
	}

	record, err := s.db.FindFileByID(id)
	if err != nil {
		return nil, fmt.Errorf("finding file: %w", err)
	}
	if record == nil {
		return nil, ErrNotFound
	}
	if record.BucketID != bucket.ID {
		return nil, ErrAccessDenied
	}
	return record, nil
}
