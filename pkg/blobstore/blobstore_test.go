package blobstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/logline-foundation/atomic-core/pkg/atomcrypto"
)

func TestMemoryStoreRoundtrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	payload := []byte("capsule payload bytes")
	cid := atomcrypto.CID(payload)

	has, err := store.Has(ctx, cid)
	if err != nil {
		t.Fatalf("has: %v", err)
	}
	if has {
		t.Fatal("expected blob to be absent before Put")
	}

	if err := store.Put(ctx, cid, payload); err != nil {
		t.Fatalf("put: %v", err)
	}

	has, err = store.Has(ctx, cid)
	if err != nil {
		t.Fatalf("has: %v", err)
	}
	if !has {
		t.Fatal("expected blob to be present after Put")
	}

	got, err := store.Get(ctx, cid)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != string(payload) {
		t.Fatal("payload mismatch")
	}
}

func TestMemoryStoreGetMissingErrors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	var zero [32]byte
	if _, err := store.Get(ctx, zero); err == nil {
		t.Fatal("expected error for missing blob")
	}
}

func TestSQLiteCatalogRecordAndLookup(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	cat, err := OpenSQLiteCatalog(dbPath)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}

	payload := []byte("vector payload")
	cid := atomcrypto.CID(payload)
	rec := CatalogRecord{Cid: cid, Dim: 384, Size: int64(len(payload)), Backend: "s3", StoredAt: time.Now()}

	if err := cat.Record(ctx, rec); err != nil {
		t.Fatalf("record: %v", err)
	}

	got, err := cat.Lookup(ctx, cid)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got == nil {
		t.Fatal("expected a catalog entry")
	}
	if got.Dim != 384 || got.Size != int64(len(payload)) || got.Backend != "s3" {
		t.Fatalf("unexpected catalog record: %+v", got)
	}
}

func TestSQLiteCatalogLookupMissingReturnsNil(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	cat, err := OpenSQLiteCatalog(dbPath)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}
	var zero [32]byte
	got, err := cat.Lookup(ctx, zero)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got != nil {
		t.Fatal("expected nil for missing entry")
	}
}

func TestSQLiteCatalogRecordReplacesExisting(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "catalog.db")
	cat, err := OpenSQLiteCatalog(dbPath)
	if err != nil {
		t.Fatalf("open catalog: %v", err)
	}

	cid := atomcrypto.CID([]byte("x"))
	if err := cat.Record(ctx, CatalogRecord{Cid: cid, Dim: 1, Size: 1, Backend: "s3", StoredAt: time.Now()}); err != nil {
		t.Fatalf("first record: %v", err)
	}
	if err := cat.Record(ctx, CatalogRecord{Cid: cid, Dim: 1, Size: 1, Backend: "gcs", StoredAt: time.Now()}); err != nil {
		t.Fatalf("second record: %v", err)
	}
	got, err := cat.Lookup(ctx, cid)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.Backend != "gcs" {
		t.Fatalf("expected replaced backend gcs, got %s", got.Backend)
	}
}
