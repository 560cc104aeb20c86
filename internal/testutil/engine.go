package testutil

import (
	"testing"

	"github.com/hgcsasdas/FFHS/internal/blobstore"
	"github.com/hgcsasdas/FFHS/internal/core"
)

// NewTestBlobStore creates a new in-memory blob store for testing.
func NewTestBlobStore() *blobstore.MemoryStore {
	return blobstore.NewMemoryStore()
}

// NewTestEngine wires a Registry and Store against an in-memory database
// and blob store. Returns the pair plus the blob store for assertions on
// blob-level state.
func NewTestEngine(t *testing.T) (*core.Registry, *core.Store, *blobstore.MemoryStore) {
	t.Helper()

	db := NewTestDatabase(t)
	blobs := NewTestBlobStore()
	logger := core.NewNopLogger()
	clock := core.RealClock{}
	idgen := core.UUIDGenerator{}

	registry := core.NewRegistry(db, blobs, logger, clock, idgen)
	store := core.NewStore(db, blobs, registry, logger, clock, idgen)
	return registry, store, blobs
}
