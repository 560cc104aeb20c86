package core_test

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/hgcsasdas/FFHS/internal/core"
	"github.com/hgcsasdas/FFHS/internal/testutil"
)

// racingDB simulates losing a dedup race: the lookup sees nothing, then
// the insert hits the uniqueness constraint.
type racingDB struct {
	core.Database
}

func (racingDB) FindFileByHashAndBucket(string, int64) (*core.FileRecord, error) {
	return nil, nil
}

func (racingDB) CreateFile(*core.FileRecord) error {
	return fmt.Errorf("inserting file: %w", core.ErrUniqueViolation)
}

// failingWriteStore fails blob writes for one specific payload; everything
// else delegates to the wrapped store.
type failingWriteStore struct {
	core.BlobStore
	poison string
}

func (f failingWriteStore) Write(rel string, data []byte) error {
	if string(data) == f.poison {
		return fmt.Errorf("disk full")
	}
	return f.BlobStore.Write(rel, data)
}

// removeHookStore runs a callback before each blob removal, letting tests
// inject work into the middle of a delete cascade.
type removeHookStore struct {
	core.BlobStore
	onRemove func()
}

func (h *removeHookStore) Remove(rel string) (bool, error) {
	if h.onRemove != nil {
		h.onRemove()
	}
	return h.BlobStore.Remove(rel)
}

func TestStore_Upload(t *testing.T) {
	t.Run("stores blob and record", func(t *testing.T) {
		registry, store, blobs := testutil.NewTestEngine(t)
		apiKey, _ := registry.Create("docs")

		record, err := store.Upload([]byte("hello world"), "greeting.txt", "text/plain", apiKey)
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}

		if record.ID == 0 {
			t.Error("record id was not assigned")
		}
		if record.OriginalName != "greeting.txt" {
			t.Errorf("OriginalName = %q, want %q", record.OriginalName, "greeting.txt")
		}
		if record.StoredName == "greeting.txt" {
			t.Error("stored name must not be the original filename")
		}
		if record.SizeBytes != int64(len("hello world")) {
			t.Errorf("SizeBytes = %d, want %d", record.SizeBytes, len("hello world"))
		}
		if record.Hash != core.ContentHash([]byte("hello world")) {
			t.Errorf("Hash = %q does not match content", record.Hash)
		}
		if blobs.Len() != 1 {
			t.Errorf("blob count = %d, want 1", blobs.Len())
		}
	})

	t.Run("stored name keeps the extension", func(t *testing.T) {
		registry, store, _ := testutil.NewTestEngine(t)
		apiKey, _ := registry.Create("docs")

		record, err := store.Upload([]byte("x"), "photo.jpg", "image/jpeg", apiKey)
		if err != nil {
			t.Fatalf("Upload() error = %v", err)
		}
		if got := record.StoredName; len(got) < 4 || got[len(got)-4:] != ".jpg" {
			t.Errorf("StoredName = %q, want .jpg suffix", got)
		}
	})

	t.Run("invalid key fails fast", func(t *testing.T) {
		_, store, blobs := testutil.NewTestEngine(t)

		_, err := store.Upload([]byte("x"), "a.txt", "text/plain", "bogus")
		if !errors.Is(err, core.ErrInvalidKey) {
			t.Fatalf("Upload() error = %v, want ErrInvalidKey", err)
		}
		if blobs.Len() != 0 {
			t.Error("upload with invalid key must not write blobs")
		}
	})

	t.Run("dedup is idempotent with zero extra writes", func(t *testing.T) {
		registry, store, blobs := testutil.NewTestEngine(t)
		apiKey, _ := registry.Create("docs")

		if _, err := store.Upload([]byte("hi"), "a.txt", "text/plain", apiKey); err != nil {
			t.Fatalf("first Upload() error = %v", err)
		}

		// Same bytes, different filename: still a duplicate.
		_, err := store.Upload([]byte("hi"), "a-copy.txt", "text/plain", apiKey)
		if !errors.Is(err, core.ErrDuplicate) {
			t.Fatalf("second Upload() error = %v, want ErrDuplicate", err)
		}

		if blobs.Len() != 1 {
			t.Errorf("blob count after duplicate = %d, want 1", blobs.Len())
		}
		records, err := store.List(apiKey)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(records) != 1 {
			t.Errorf("record count after duplicate = %d, want 1", len(records))
		}
	})

	t.Run("constraint race on persist is a duplicate with no blob left", func(t *testing.T) {
		db := testutil.NewTestDatabase(t)
		blobs := testutil.NewTestBlobStore()
		logger := core.NewNopLogger()
		clock := core.RealClock{}
		idgen := core.UUIDGenerator{}

		registry := core.NewRegistry(db, blobs, logger, clock, idgen)
		apiKey, err := registry.Create("docs")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		// The store sees the race losers' view: dedup lookup clean, insert
		// refused by the uniqueness constraint.
		store := core.NewStore(racingDB{Database: db}, blobs, registry, logger, clock, idgen)

		_, err = store.Upload([]byte("hi"), "a.txt", "text/plain", apiKey)
		if !errors.Is(err, core.ErrDuplicate) {
			t.Fatalf("Upload() error = %v, want ErrDuplicate", err)
		}
		if blobs.Len() != 0 {
			t.Errorf("blob count after lost race = %d, want 0", blobs.Len())
		}
	})

	t.Run("upload during delete cascade is rejected", func(t *testing.T) {
		db := testutil.NewTestDatabase(t)
		mem := testutil.NewTestBlobStore()
		blobs := &removeHookStore{BlobStore: mem}
		logger := core.NewNopLogger()
		clock := core.RealClock{}
		idgen := core.UUIDGenerator{}

		registry := core.NewRegistry(db, blobs, logger, clock, idgen)
		store := core.NewStore(db, blobs, registry, logger, clock, idgen)

		apiKey, err := registry.Create("docs")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if _, err := store.Upload([]byte("first"), "f.txt", "text/plain", apiKey); err != nil {
			t.Fatalf("Upload() error = %v", err)
		}

		// The bucket row still resolves while the cascade walks its files,
		// so this upload passes key resolution and must be stopped by the
		// in-progress guard instead.
		var raceErr error
		blobs.onRemove = func() {
			blobs.onRemove = nil
			_, raceErr = store.Upload([]byte("late"), "late.txt", "text/plain", apiKey)
		}

		if err := registry.Delete(apiKey); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}
		if !errors.Is(raceErr, core.ErrInvalidKey) {
			t.Errorf("mid-cascade Upload() error = %v, want ErrInvalidKey", raceErr)
		}

		if mem.Len() != 0 {
			t.Errorf("blob count after cascade = %d, want 0", mem.Len())
		}
	})

	t.Run("dedup is bucket-scoped not global", func(t *testing.T) {
		registry, store, _ := testutil.NewTestEngine(t)
		keyA, _ := registry.Create("docs")
		keyB, _ := registry.Create("other")

		recA, err := store.Upload([]byte("hi"), "a.txt", "text/plain", keyA)
		if err != nil {
			t.Fatalf("Upload() to docs error = %v", err)
		}
		recB, err := store.Upload([]byte("hi"), "a.txt", "text/plain", keyB)
		if err != nil {
			t.Fatalf("Upload() to other error = %v", err)
		}

		if recA.ID == recB.ID {
			t.Error("cross-bucket duplicates must be independent records")
		}
		if recA.Hash != recB.Hash {
			t.Error("identical content must hash identically across buckets")
		}
	})
}

func TestStore_RoundTrip(t *testing.T) {
	registry, store, _ := testutil.NewTestEngine(t)
	apiKey, _ := registry.Create("docs")

	payload := []byte{0x00, 0x01, 0xFF, 0xFE, 'a', 'b'}
	record, err := store.Upload(payload, "raw.bin", "application/octet-stream", apiKey)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	got, err := store.GetBytes(record.ID, apiKey)
	if err != nil {
		t.Fatalf("GetBytes() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("GetBytes() = %v, want %v", got, payload)
	}

	meta, err := store.GetMetadata(record.ID, apiKey)
	if err != nil {
		t.Fatalf("GetMetadata() error = %v", err)
	}
	if meta.SizeBytes != int64(len(payload)) {
		t.Errorf("SizeBytes = %d, want %d", meta.SizeBytes, len(payload))
	}
}

func TestStore_Isolation(t *testing.T) {
	registry, store, _ := testutil.NewTestEngine(t)
	keyA, _ := registry.Create("docs")
	keyB, _ := registry.Create("other")

	record, err := store.Upload([]byte("secret"), "s.txt", "text/plain", keyA)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	// A foreign bucket's key always yields AccessDenied, never NotFound
	// and never success: an id is not a capability.
	if _, err := store.GetBytes(record.ID, keyB); !errors.Is(err, core.ErrAccessDenied) {
		t.Errorf("GetBytes() cross-tenant error = %v, want ErrAccessDenied", err)
	}
	if _, err := store.GetMetadata(record.ID, keyB); !errors.Is(err, core.ErrAccessDenied) {
		t.Errorf("GetMetadata() cross-tenant error = %v, want ErrAccessDenied", err)
	}
	if err := store.Delete(record.ID, keyB); !errors.Is(err, core.ErrAccessDenied) {
		t.Errorf("Delete() cross-tenant error = %v, want ErrAccessDenied", err)
	}

	// The owner still has full access.
	if _, err := store.GetBytes(record.ID, keyA); err != nil {
		t.Errorf("GetBytes() owner error = %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	t.Run("removes blob and record", func(t *testing.T) {
		registry, store, blobs := testutil.NewTestEngine(t)
		apiKey, _ := registry.Create("docs")

		record, _ := store.Upload([]byte("bye"), "b.txt", "text/plain", apiKey)
		if err := store.Delete(record.ID, apiKey); err != nil {
			t.Fatalf("Delete() error = %v", err)
		}

		if blobs.Len() != 0 {
			t.Errorf("blob count after delete = %d, want 0", blobs.Len())
		}
		if _, err := store.GetMetadata(record.ID, apiKey); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("GetMetadata() after delete error = %v, want ErrNotFound", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		registry, store, _ := testutil.NewTestEngine(t)
		apiKey, _ := registry.Create("docs")

		if err := store.Delete(999, apiKey); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Delete() error = %v, want ErrNotFound", err)
		}
	})

	t.Run("tolerates already-absent blob", func(t *testing.T) {
		registry, store, blobs := testutil.NewTestEngine(t)
		apiKey, _ := registry.Create("docs")

		record, _ := store.Upload([]byte("gone"), "g.txt", "text/plain", apiKey)
		if _, err := blobs.Remove(record.RelativePath); err != nil {
			t.Fatalf("Remove() error = %v", err)
		}

		if err := store.Delete(record.ID, apiKey); err != nil {
			t.Errorf("Delete() with absent blob error = %v", err)
		}
	})
}

func TestStore_GetBytes_BlobMissing(t *testing.T) {
	registry, store, blobs := testutil.NewTestEngine(t)
	apiKey, _ := registry.Create("docs")

	record, _ := store.Upload([]byte("poof"), "p.txt", "text/plain", apiKey)

	// Simulate out-of-band tampering: the blob vanishes, the record stays.
	if _, err := blobs.Remove(record.RelativePath); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	_, err := store.GetBytes(record.ID, apiKey)
	if !errors.Is(err, core.ErrBlobMissing) {
		t.Errorf("GetBytes() error = %v, want ErrBlobMissing", err)
	}
}

func TestStore_UploadMany(t *testing.T) {
	t.Run("partial success accounting", func(t *testing.T) {
		registry, store, _ := testutil.NewTestEngine(t)
		apiKey, _ := registry.Create("docs")

		// Pre-store one payload so the batch sees a duplicate.
		if _, err := store.Upload([]byte("dup"), "seed.txt", "text/plain", apiKey); err != nil {
			t.Fatalf("seed Upload() error = %v", err)
		}

		items := []core.UploadItem{
			{Filename: "one.txt", MimeType: "text/plain", Data: []byte("one")},
			{Filename: "dup.txt", MimeType: "text/plain", Data: []byte("dup")},
			{Filename: "two.txt", MimeType: "text/plain", Data: []byte("two")},
		}
		batch, err := store.UploadMany(items, apiKey)
		if err != nil {
			t.Fatalf("UploadMany() error = %v", err)
		}

		if len(batch.Uploaded) != 2 {
			t.Errorf("uploaded = %d, want 2", len(batch.Uploaded))
		}
		if len(batch.Duplicates) != 1 || batch.Duplicates[0] != "dup.txt" {
			t.Errorf("duplicates = %v, want [dup.txt]", batch.Duplicates)
		}
		if batch.Status() != core.StatusPartial {
			t.Errorf("status = %q, want %q", batch.Status(), core.StatusPartial)
		}
	})

	t.Run("all-new batch is success", func(t *testing.T) {
		registry, store, _ := testutil.NewTestEngine(t)
		apiKey, _ := registry.Create("docs")

		items := []core.UploadItem{
			{Filename: "a.txt", MimeType: "text/plain", Data: []byte("aaa")},
			{Filename: "b.txt", MimeType: "text/plain", Data: []byte("bbb")},
		}
		batch, err := store.UploadMany(items, apiKey)
		if err != nil {
			t.Fatalf("UploadMany() error = %v", err)
		}

		if batch.Status() != core.StatusSuccess {
			t.Errorf("status = %q, want %q", batch.Status(), core.StatusSuccess)
		}
		if len(batch.Uploaded) != 2 || len(batch.Duplicates) != 0 || len(batch.Failed) != 0 {
			t.Errorf("batch = %+v, want 2 uploaded and nothing else", batch)
		}
	})

	t.Run("hard failure lands in Failed without aborting the batch", func(t *testing.T) {
		db := testutil.NewTestDatabase(t)
		mem := testutil.NewTestBlobStore()
		blobs := failingWriteStore{BlobStore: mem, poison: "bad"}
		logger := core.NewNopLogger()
		clock := core.RealClock{}
		idgen := core.UUIDGenerator{}

		registry := core.NewRegistry(db, blobs, logger, clock, idgen)
		store := core.NewStore(db, blobs, registry, logger, clock, idgen)

		apiKey, err := registry.Create("docs")
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}

		items := []core.UploadItem{
			{Filename: "one.txt", MimeType: "text/plain", Data: []byte("one")},
			{Filename: "bad.txt", MimeType: "text/plain", Data: []byte("bad")},
			{Filename: "two.txt", MimeType: "text/plain", Data: []byte("two")},
		}
		batch, err := store.UploadMany(items, apiKey)
		if err != nil {
			t.Fatalf("UploadMany() error = %v", err)
		}

		if len(batch.Uploaded) != 2 {
			t.Errorf("uploaded = %d, want 2", len(batch.Uploaded))
		}
		if len(batch.Failed) != 1 || batch.Failed[0] != "bad.txt" {
			t.Errorf("failed = %v, want [bad.txt]", batch.Failed)
		}
		if len(batch.Duplicates) != 0 {
			t.Errorf("duplicates = %v, want none", batch.Duplicates)
		}
		if batch.Status() != core.StatusPartial {
			t.Errorf("status = %q, want %q", batch.Status(), core.StatusPartial)
		}
		if mem.Len() != 2 {
			t.Errorf("blob count = %d, want 2", mem.Len())
		}
	})

	t.Run("invalid key rejects the whole batch", func(t *testing.T) {
		_, store, _ := testutil.NewTestEngine(t)

		_, err := store.UploadMany([]core.UploadItem{{Filename: "a", Data: []byte("a")}}, "bogus")
		if !errors.Is(err, core.ErrInvalidKey) {
			t.Errorf("UploadMany() error = %v, want ErrInvalidKey", err)
		}
	})
}

func TestStore_DeleteMany(t *testing.T) {
	registry, store, _ := testutil.NewTestEngine(t)
	keyA, _ := registry.Create("docs")
	keyB, _ := registry.Create("other")

	mine, _ := store.Upload([]byte("mine"), "m.txt", "text/plain", keyA)
	theirs, _ := store.Upload([]byte("theirs"), "t.txt", "text/plain", keyB)

	// One good id, one foreign id, one unknown id: the batch completes
	// and reports the failures instead of aborting.
	batch, err := store.DeleteMany([]int64{mine.ID, theirs.ID, 9999}, keyA)
	if err != nil {
		t.Fatalf("DeleteMany() error = %v", err)
	}

	if len(batch.Deleted) != 1 || batch.Deleted[0] != mine.ID {
		t.Errorf("deleted = %v, want [%d]", batch.Deleted, mine.ID)
	}
	if len(batch.Failed) != 2 {
		t.Errorf("failed = %v, want two entries", batch.Failed)
	}
	if batch.Status() != core.StatusPartial {
		t.Errorf("status = %q, want %q", batch.Status(), core.StatusPartial)
	}

	// The foreign file survived.
	if _, err := store.GetBytes(theirs.ID, keyB); err != nil {
		t.Errorf("foreign file was deleted: %v", err)
	}
}

// TestScenario walks the end-to-end flow: dedup within a bucket, the same
// content accepted in a second bucket, and bucket deletion taking its
// files with it while the other bucket is untouched.
func TestScenario(t *testing.T) {
	registry, store, _ := testutil.NewTestEngine(t)

	keyA, err := registry.Create("docs")
	if err != nil {
		t.Fatalf("Create(docs) error = %v", err)
	}
	keyB, err := registry.Create("other")
	if err != nil {
		t.Fatalf("Create(other) error = %v", err)
	}

	first, err := store.Upload([]byte("hi"), "a.txt", "text/plain", keyA)
	if err != nil {
		t.Fatalf("Upload(a.txt) error = %v", err)
	}

	if _, err := store.Upload([]byte("hi"), "a-copy.txt", "text/plain", keyA); !errors.Is(err, core.ErrDuplicate) {
		t.Fatalf("Upload(a-copy.txt) error = %v, want ErrDuplicate", err)
	}

	second, err := store.Upload([]byte("hi"), "a.txt", "text/plain", keyB)
	if err != nil {
		t.Fatalf("Upload to other bucket error = %v", err)
	}

	if err := registry.Delete(keyA); err != nil {
		t.Fatalf("Delete(docs) error = %v", err)
	}

	if _, err := store.GetBytes(first.ID, keyA); !errors.Is(err, core.ErrInvalidKey) {
		t.Errorf("GetBytes() with deleted bucket's key error = %v, want ErrInvalidKey", err)
	}
	data, err := store.GetBytes(second.ID, keyB)
	if err != nil {
		t.Fatalf("GetBytes() in surviving bucket error = %v", err)
	}
	if string(data) != "hi" {
		t.Errorf("surviving content = %q, want %q", data, "hi")
	}
}
