package core

import (
	"errors"
	"fmt"
)

// Classified failure conditions. Callers distinguish them with errors.Is;
// everything else coming out of the engine is an I/O or database failure
// wrapped with context.
var (
	// ErrInvalidKey means no bucket matches the presented API key.
	ErrInvalidKey = errors.New("invalid API key")

	// ErrNotFound means the requested file id does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrAccessDenied means the file id exists but belongs to a different
	// bucket than the one the API key resolves to.
	ErrAccessDenied = errors.New("file does not belong to this bucket")

	// ErrDuplicate means content with the same hash is already stored in
	// the bucket. This is a normal, reported outcome of upload.
	ErrDuplicate = errors.New("file already exists in this bucket")

	// ErrDuplicateName means a bucket with the requested name already exists.
	ErrDuplicateName = errors.New("bucket already exists")

	// ErrInvalidName means the requested bucket name is empty or cannot
	// serve as a single directory component under the blob root.
	ErrInvalidName = errors.New("invalid bucket name")

	// ErrBlobMissing means a file record exists but its blob is gone from
	// the blob store. This only happens after out-of-band tampering and is
	// reported as corruption, not as a plain not-found.
	ErrBlobMissing = errors.New("blob missing for file record")

	// ErrUniqueViolation is returned by Database implementations when an
	// insert hits a uniqueness constraint. The engine reinterprets it:
	// on file insert it becomes ErrDuplicate (two concurrent uploads of
	// the same content), on bucket insert it becomes ErrDuplicateName.
	ErrUniqueViolation = errors.New("unique constraint violation")
)

// ConsistencyError reports the fatal state where a bucket row was committed
// but its directory could not be created. The row is not rolled back; the
// bucket is unusable until the directory is repaired.
type ConsistencyError struct {
	Bucket string
	Err    error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("bucket %q exists in metadata but its directory could not be created: %v", e.Bucket, e.Err)
}

func (e *ConsistencyError) Unwrap() error { return e.Err }
