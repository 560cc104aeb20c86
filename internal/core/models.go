package core

import "time"

// Bucket is an isolated tenant namespace. Callers address it externally by
// its API key; internally it is identified by a numeric id that is never
// reused. Name, Path and APIKey are each globally unique.
type Bucket struct {
	ID        int64
	Name      string
	Path      string // directory under the blob root, derived from Name
	APIKey    string
	CreatedAt time.Time
}

// FileRecord describes one stored, immutable file within a bucket.
// The (Hash, BucketID) pair is unique: dedup is bucket-scoped, not global.
type FileRecord struct {
	ID           int64
	OriginalName string // client-supplied filename, informational only
	StoredName   string // opaque on-disk name, never the original filename
	RelativePath string // bucket path + "/" + stored name
	MimeType     string
	SizeBytes    int64
	Hash         string // SHA-256 of the content, base64-encoded
	UploadTime   time.Time
	BucketID     int64
}

// UploadItem is one file in a batch upload.
type UploadItem struct {
	Filename string
	MimeType string
	Data     []byte
}
