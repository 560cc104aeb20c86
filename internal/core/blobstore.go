package core

// BlobStore provides an interface for blob storage backends. Paths are
// relative to the store's root ("bucketPath/storedName"); the engine never
// reads or writes anything outside that layout.
//
// Uploads are whole in-memory buffers, so the contract works on []byte
// rather than streams.
type BlobStore interface {
	// EnsureDir makes sure the directory exists, creating it if needed.
	EnsureDir(dir string) error

	// Write stores data at rel with replace-if-exists semantics. The write
	// is atomic: a partially written blob is never visible.
	Write(rel string, data []byte) error

	// Read returns the full content at rel. A missing blob is reported
	// with an error matching fs.ErrNotExist.
	Read(rel string) ([]byte, error)

	// Remove deletes the blob at rel, tolerating its absence.
	// It reports whether the blob existed.
	Remove(rel string) (bool, error)

	// RemoveTree recursively deletes the directory at dir, removing the
	// deepest entries first. Removing a missing tree is not an error.
	RemoveTree(dir string) error
}
