package core

// Database provides an interface for metadata storage operations.
// Find methods return (nil, nil) when no row matches. Create methods must
// return ErrUniqueViolation (wrapped) when an insert hits a uniqueness
// constraint, so the engine can reinterpret constraint races.
type Database interface {
	// Bucket operations

	// FindBucketByName returns the bucket with the given name.
	FindBucketByName(name string) (*Bucket, error)

	// FindBucketByAPIKey returns the bucket with the given API key.
	FindBucketByAPIKey(apiKey string) (*Bucket, error)

	// CreateBucket inserts a new bucket row and sets b.ID.
	CreateBucket(b *Bucket) error

	// ListBuckets returns all buckets.
	ListBuckets() ([]*Bucket, error)

	// UpdateBucketAPIKey replaces the stored API key for a bucket.
	UpdateBucketAPIKey(id int64, apiKey string) error

	// DeleteBucket removes a bucket row.
	DeleteBucket(id int64) error

	// File operations

	// FindFileByID returns the file record with the given id.
	FindFileByID(id int64) (*FileRecord, error)

	// FindFileByHashAndBucket returns the record with the given content
	// hash within a bucket. This is the dedup lookup.
	FindFileByHashAndBucket(hash string, bucketID int64) (*FileRecord, error)

	// ListFilesByBucket returns all file records owned by a bucket.
	ListFilesByBucket(bucketID int64) ([]*FileRecord, error)

	// CreateFile inserts a new file record and sets f.ID.
	CreateFile(f *FileRecord) error

	// DeleteFile removes a file record.
	DeleteFile(id int64) error

	// Close closes the database connection.
	Close() error
}
