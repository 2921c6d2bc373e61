package store

import (
	"path/filepath"
	"testing"

	"github.com/diode-mesh/corevm/crypto"
	"github.com/diode-mesh/corevm/merkle"
)

func TestCacheStoreMissReturnsNotFound(t *testing.T) {
	c := NewCacheStore(1 << 20)
	_, err := c.Read(crypto.Keccak256Hash([]byte("absent")))
	if err != merkle.ErrNotFound {
		t.Fatalf("Read on a miss = %v, want ErrNotFound", err)
	}
}

func TestCacheStoreWriteThenRead(t *testing.T) {
	c := NewCacheStore(1 << 20)
	key := crypto.Keccak256Hash([]byte("payload"))
	if err := c.Write(key, []byte("payload")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	v, err := c.Read(key)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if string(v) != "payload" {
		t.Fatalf("Read = %q, want %q", v, "payload")
	}
}

func TestLevelStoreWriteThenRead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "leveldb")
	db, err := OpenLevelStore(dir)
	if err != nil {
		t.Fatalf("OpenLevelStore returned error: %v", err)
	}
	defer db.Close()

	key := crypto.Keccak256Hash([]byte("durable"))
	if err := db.Write(key, []byte("durable")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}
	v, err := db.Read(key)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if string(v) != "durable" {
		t.Fatalf("Read = %q, want %q", v, "durable")
	}
}

func TestLevelStoreMissReturnsNotFound(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "leveldb")
	db, err := OpenLevelStore(dir)
	if err != nil {
		t.Fatalf("OpenLevelStore returned error: %v", err)
	}
	defer db.Close()

	_, err = db.Read(crypto.Keccak256Hash([]byte("missing")))
	if err != merkle.ErrNotFound {
		t.Fatalf("Read on a miss = %v, want ErrNotFound", err)
	}
}

func TestTieredStoreWritePopulatesBothTiers(t *testing.T) {
	cold := merkle.NewMemStore()
	hot := NewCacheStore(1 << 20)
	tiered := NewTieredStore(hot, cold)

	key := crypto.Keccak256Hash([]byte("tiered"))
	if err := tiered.Write(key, []byte("tiered")); err != nil {
		t.Fatalf("Write returned error: %v", err)
	}

	if _, err := hot.Read(key); err != nil {
		t.Fatalf("expected Write to populate the hot cache, got %v", err)
	}
	if cold.Len() != 1 {
		t.Fatalf("cold.Len() = %d, want 1", cold.Len())
	}

	v, err := tiered.Read(key)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if string(v) != "tiered" {
		t.Fatalf("Read = %q, want %q", v, "tiered")
	}
}

func TestTieredStoreReadFallsThroughToCold(t *testing.T) {
	cold := merkle.NewMemStore()
	key := crypto.Keccak256Hash([]byte("cold-only"))
	if err := cold.Write(key, []byte("cold-only")); err != nil {
		t.Fatalf("cold.Write returned error: %v", err)
	}

	hot := NewCacheStore(1 << 20)
	tiered := NewTieredStore(hot, cold)

	v, err := tiered.Read(key)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if string(v) != "cold-only" {
		t.Fatalf("Read = %q, want %q", v, "cold-only")
	}
	if _, err := hot.Read(key); err != nil {
		t.Fatal("expected Read to warm the hot cache on a cold hit")
	}
}
