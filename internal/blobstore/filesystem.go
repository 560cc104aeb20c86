package blobstore

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/hgcsasdas/FFHS/internal/core"
)

// FilesystemStore is a filesystem-based implementation of core.BlobStore.
// The root directory contains one subdirectory per bucket, each holding
// opaque stored-filenames:
//
//	<root>/
//	  <bucket-path>/
//	    <stored-name>    (blob files)
type FilesystemStore struct {
	root string
}

// NewFilesystemStore creates a blob store rooted at the given path,
// creating the root directory if needed.
func NewFilesystemStore(root string) (*FilesystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage root: %w", err)
	}
	return &FilesystemStore{root: root}, nil
}

// Root returns the absolute storage root directory.
func (s *FilesystemStore) Root() string {
	return s.root
}

func (s *FilesystemStore) EnsureDir(dir string) error {
	if err := os.MkdirAll(filepath.Join(s.root, dir), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return nil
}

// Write stores data at rel atomically (temp file + rename), replacing any
// existing blob at that path.
func (s *FilesystemStore) Write(rel string, data []byte) error {
	destPath := filepath.Join(s.root, rel)

	// Create the temp file in the same directory to ensure atomic rename works
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

func (s *FilesystemStore) Read(rel string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(s.root, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob not found at %s: %w", rel, fs.ErrNotExist)
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	return data, nil
}

func (s *FilesystemStore) Remove(rel string) (bool, error) {
	err := os.Remove(filepath.Join(s.root, rel))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to remove blob: %w", err)
	}
	return true, nil
}

// RemoveTree deletes the directory at dir and everything beneath it,
// removing the deepest entries first so non-empty-directory errors cannot
// occur.
func (s *FilesystemStore) RemoveTree(dir string) error {
	treeRoot := filepath.Join(s.root, dir)

	var paths []string
	err := filepath.WalkDir(treeRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to walk tree: %w", err)
	}

	// Deepest first: reverse lexicographic order puts children before parents.
	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", p, err)
		}
	}
	return nil
}

// Compile-time check that FilesystemStore implements core.BlobStore
var _ core.BlobStore = (*FilesystemStore)(nil)
