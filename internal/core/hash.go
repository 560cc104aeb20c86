package core

import (
	"crypto/sha256"
	"encoding/base64"
	"path/filepath"
	"strings"
)

// ContentHash returns the SHA-256 digest of data, base64-encoded.
// This is the dedup key within a bucket.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

// fileExtension returns the substring after the last '.' in filename,
// or "" if there is none. Used to suffix stored blob names so downloads
// keep a recognizable extension.
func fileExtension(filename string) string {
	ext := filepath.Ext(filename)
	return strings.TrimPrefix(ext, ".")
}
