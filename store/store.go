// Package store provides concrete Store collaborators backing the
// content-addressed Merkle tree: a fastcache-backed hot layer for
// frequently-touched nodes, and a goleveldb-backed layer for durable
// persistence, composed so reads check the cache before falling through
// to disk and writes populate both.
package store

import (
	"errors"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/syndtr/goleveldb/leveldb"

	"github.com/diode-mesh/corevm/crypto"
	"github.com/diode-mesh/corevm/merkle"
)

// CacheStore is an in-memory, bounded-size Store backed by fastcache. It
// never returns an error on Write and silently evicts under memory
// pressure, so it is meant to sit in front of a durable Store rather than
// stand alone.
type CacheStore struct {
	cache *fastcache.Cache
}

// NewCacheStore creates a cache sized to approximately maxBytes.
func NewCacheStore(maxBytes int) *CacheStore {
	return &CacheStore{cache: fastcache.New(maxBytes)}
}

func (c *CacheStore) Read(key crypto.Hash) ([]byte, error) {
	v, ok := c.cache.HasGet(nil, key.Bytes())
	if !ok {
		return nil, merkle.ErrNotFound
	}
	return v, nil
}

func (c *CacheStore) Write(key crypto.Hash, data []byte) error {
	c.cache.Set(key.Bytes(), data)
	return nil
}

// LevelStore is a durable, on-disk Store backed by goleveldb.
type LevelStore struct {
	db *leveldb.DB
}

// OpenLevelStore opens (creating if absent) a leveldb database at path.
func OpenLevelStore(path string) (*LevelStore, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &LevelStore{db: db}, nil
}

func (l *LevelStore) Read(key crypto.Hash) ([]byte, error) {
	v, err := l.db.Get(key.Bytes(), nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, merkle.ErrNotFound
		}
		return nil, err
	}
	return v, nil
}

func (l *LevelStore) Write(key crypto.Hash, data []byte) error {
	// Content-addressed: an existing value under key is always identical
	// to data, so re-checking before writing would only cost an extra
	// disk read for no behavioural difference.
	return l.db.Put(key.Bytes(), data, nil)
}

func (l *LevelStore) Close() error {
	return l.db.Close()
}

// TieredStore layers a CacheStore in front of a durable merkle.Store,
// satisfying the Store collaborator contract while keeping hot nodes out
// of leveldb's read path.
type TieredStore struct {
	hot  *CacheStore
	cold merkle.Store
}

func NewTieredStore(hot *CacheStore, cold merkle.Store) *TieredStore {
	return &TieredStore{hot: hot, cold: cold}
}

func (t *TieredStore) Read(key crypto.Hash) ([]byte, error) {
	if v, err := t.hot.Read(key); err == nil {
		return v, nil
	}
	v, err := t.cold.Read(key)
	if err != nil {
		return nil, err
	}
	_ = t.hot.Write(key, v)
	return v, nil
}

func (t *TieredStore) Write(key crypto.Hash, data []byte) error {
	if err := t.cold.Write(key, data); err != nil {
		return err
	}
	return t.hot.Write(key, data)
}
