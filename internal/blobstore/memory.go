package blobstore

import (
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/hgcsasdas/FFHS/internal/core"
)

// MemoryStore is an in-memory implementation of core.BlobStore, useful for
// testing. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte   // rel path -> content
	dirs  map[string]struct{} // known directories
}

// NewMemoryStore creates a new in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
		dirs:  make(map[string]struct{}),
	}
}

func (m *MemoryStore) EnsureDir(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[dir] = struct{}{}
	return nil
}

// HasDir reports whether a directory exists. Test helper.
func (m *MemoryStore) HasDir(dir string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.dirs[dir]
	return ok
}

// Len returns the number of stored blobs. Test helper.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}

func (m *MemoryStore) Write(rel string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Replace-if-exists: writes are idempotent per path.
	m.blobs[rel] = append([]byte(nil), data...)
	return nil
}

func (m *MemoryStore) Read(rel string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[rel]
	if !ok {
		return nil, fmt.Errorf("blob not found at %s: %w", rel, fs.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryStore) Remove(rel string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[rel]
	delete(m.blobs, rel)
	return ok, nil
}

func (m *MemoryStore) RemoveTree(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := dir + "/"
	for rel := range m.blobs {
		if strings.HasPrefix(rel, prefix) {
			delete(m.blobs, rel)
		}
	}
	delete(m.dirs, dir)
	return nil
}

// Compile-time check that MemoryStore implements core.BlobStore
var _ core.BlobStore = (*MemoryStore)(nil)
