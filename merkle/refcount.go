package merkle

import (
	"sync"

	"github.com/diode-mesh/corevm/crypto"
)

// RefCounter is an optional garbage-collection hook sitting in front of a
// Store. The core tree never calls it directly — mutation paths never
// delete a StoreKey, since any prior Root must remain valid — but a
// higher-level collaborator that wants to reclaim unreachable nodes across
// tree versions can wrap writes through Reference/Dereference and later
// call CollectGarbage. Disabled by default: plug it in only if your
// deployment actually prunes old roots.
type RefCounter struct {
	mu    sync.Mutex
	inner Store
	refs  map[crypto.Hash]int64
}

func NewRefCounter(inner Store) *RefCounter {
	return &RefCounter{inner: inner, refs: make(map[crypto.Hash]int64)}
}

// Reference bumps key's reference count, registering it if new.
func (r *RefCounter) Reference(key crypto.Hash) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refs[key]++
}

// Dereference drops key's reference count by one.
func (r *RefCounter) Dereference(key crypto.Hash) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.refs[key] > 0 {
		r.refs[key]--
	}
}

// RefCount reports the current reference count for key.
func (r *RefCounter) RefCount(key crypto.Hash) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refs[key]
}

// Unreferenced returns every tracked key whose reference count has
// dropped to zero, candidates for CollectGarbage.
func (r *RefCounter) Unreferenced() []crypto.Hash {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []crypto.Hash
	for k, n := range r.refs {
		if n <= 0 {
			out = append(out, k)
		}
	}
	return out
}

// CollectGarbage removes every zero-refcount key from the underlying
// store's bookkeeping. The Store interface itself has no delete
// operation, so this only applies to stores (e.g. a goleveldb-backed one)
// that additionally implement Deleter.
func (r *RefCounter) CollectGarbage() (int, error) {
	deleter, ok := r.inner.(Deleter)
	if !ok {
		return 0, nil
	}
	keys := r.Unreferenced()
	r.mu.Lock()
	for _, k := range keys {
		delete(r.refs, k)
	}
	r.mu.Unlock()
	for _, k := range keys {
		if err := deleter.Delete(k); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}

// Deleter is implemented by Store backends that can physically remove a
// key, used only by CollectGarbage.
type Deleter interface {
	Delete(key crypto.Hash) error
}
