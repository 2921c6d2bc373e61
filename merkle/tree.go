// Package merkle implements the hash-backed Merkle map: a persistent,
// structurally-shared authenticated key/value tree backed by a
// content-addressed Store. Every mutation returns a new Root; prior Roots
// remain valid and observable, and identical subtrees across versions are
// deduplicated automatically because child pointers are content hashes.
package merkle

import (
	"github.com/diode-mesh/corevm/crypto"
)

// Root is an opaque handle to one version of the tree: a content hash
// identifying the root node in the Store.
type Root struct {
	key crypto.Hash
}

// Key returns the underlying StoreKey, e.g. to persist a handle elsewhere.
func (r Root) Key() crypto.Hash { return r.key }

// Tree is the map's entry point, bound to one content-addressed Store.
type Tree struct {
	store Store
}

func New(store Store) *Tree {
	return &Tree{store: store}
}

// Empty returns the canonical empty-tree Root. Its hash is a fixed constant
// for a given Hash/Serialiser pair since it depends only on LeafSize empty
// groups.
func (t *Tree) Empty() (Root, error) {
	n, err := buildLeaf(nil, nil)
	if err != nil {
		return Root{}, err
	}
	key, err := t.persist(link{n: n})
	if err != nil {
		return Root{}, err
	}
	return Root{key: key}, nil
}

// Restore reattaches to a previously persisted root.
func (t *Tree) Restore(key crypto.Hash) (Root, error) {
	if _, err := t.store.Read(key); err != nil {
		if err == ErrNotFound {
			return Root{}, ErrNotFound
		}
		return Root{}, err
	}
	return Root{key: key}, nil
}

// resolve loads the node a link points to, reading from the store only
// when the link has not yet been materialised in memory.
func (t *Tree) resolve(l *link) (*node, error) {
	if l.n != nil {
		return l.n, nil
	}
	data, err := t.store.Read(l.key)
	if err != nil {
		return nil, err
	}
	n, err := decodeWireNode(data)
	if err != nil {
		return nil, err
	}
	l.n = n
	return n, nil
}

// persist writes a dirty node (and, recursively, its dirty children) to
// the store and returns its content hash. Nodes that already carry a key
// are assumed already durable and are not rewritten.
func (t *Tree) persist(ref link) (crypto.Hash, error) {
	if ref.n == nil {
		return ref.key, nil
	}
	n := ref.n
	if n.kind == kindInner {
		lk, err := t.persist(n.left)
		if err != nil {
			return crypto.Hash{}, err
		}
		n.left = link{key: lk}
		rk, err := t.persist(n.right)
		if err != nil {
			return crypto.Hash{}, err
		}
		n.right = link{key: rk}
	}
	data, err := encodeWireNode(n)
	if err != nil {
		return crypto.Hash{}, err
	}
	key := crypto.Keccak256Hash(data)
	if _, err := t.store.Read(key); err == ErrNotFound {
		if err := t.store.Write(key, data); err != nil {
			return crypto.Hash{}, err
		}
	} else if err != nil {
		return crypto.Hash{}, err
	}
	return key, nil
}

// Get returns the value stored under key, if any.
func (t *Tree) Get(root Root, key []byte) ([]byte, bool, error) {
	h := crypto.Keccak256(key)
	l := link{key: root.key}
	for {
		n, err := t.resolve(&l)
		if err != nil {
			return nil, false, err
		}
		if n.kind == kindLeaf {
			i, found := findEntry(n.bucket, key)
			if !found {
				return nil, false, nil
			}
			return n.bucket[i].value, true, nil
		}
		if bitAt(h, len(n.prefix)) == 0 {
			l = n.left
		} else {
			l = n.right
		}
	}
}

// Member reports whether key has a value in root.
func (t *Tree) Member(root Root, key []byte) (bool, error) {
	_, ok, err := t.Get(root, key)
	return ok, err
}

// Insert writes value under key and returns the new Root. Writing the
// 32 zero byte sentinel deletes the key.
func (t *Tree) Insert(root Root, key, value []byte) (Root, error) {
	newRootNode, err := t.mutate(&link{key: root.key}, key, value)
	if err != nil {
		return Root{}, err
	}
	newKey, err := t.persist(newRootNode)
	if err != nil {
		return Root{}, err
	}
	return Root{key: newKey}, nil
}

// InsertMany applies a batch of writes, left to right, returning the final
// Root. It is equivalent to, but cheaper than, repeated Insert calls since
// intermediate roots are never persisted.
func (t *Tree) InsertMany(root Root, pairs [][2][]byte) (Root, error) {
	cur := link{key: root.key}
	for _, kv := range pairs {
		updated, err := t.mutate(&cur, kv[0], kv[1])
		if err != nil {
			return Root{}, err
		}
		cur = updated
	}
	newKey, err := t.persist(cur)
	if err != nil {
		return Root{}, err
	}
	return Root{key: newKey}, nil
}

// Delete removes key, returning the new Root.
func (t *Tree) Delete(root Root, key []byte) (Root, error) {
	return t.Insert(root, key, ZeroValue())
}

// mutate returns the (uncommitted) new subtree resulting from writing
// value under key into the subtree l points to. The returned link is
// always dirty (n set, key zero), even when the write changes nothing.
func (t *Tree) mutate(l *link, key, value []byte) (link, error) {
	n, err := t.resolve(l)
	if err != nil {
		return link{}, err
	}
	if n.kind == kindLeaf {
		var newBucket []entry
		if IsZeroValue(value) {
			newBucket = removeEntry(n.bucket, key)
		} else {
			newBucket = upsertEntry(n.bucket, key, value)
		}
		if len(newBucket) <= LeafSize {
			leaf, err := buildLeaf(n.prefix, newBucket)
			if err != nil {
				return link{}, err
			}
			return link{n: leaf}, nil
		}
		split, err := splitLeaf(n.prefix, newBucket)
		if err != nil {
			return link{}, err
		}
		return link{n: split}, nil
	}

	h := crypto.Keccak256(key)
	goRight := bitAt(h, len(n.prefix)) == 1

	var changedSide, other *link
	if goRight {
		changedSide, other = &n.right, &n.left
	} else {
		changedSide, other = &n.left, &n.right
	}
	updated, err := t.mutate(changedSide, key, value)
	if err != nil {
		return link{}, err
	}
	otherNode, err := t.resolve(other)
	if err != nil {
		return link{}, err
	}
	updatedNode, err := t.resolve(&updated)
	if err != nil {
		return link{}, err
	}

	total := updatedNode.cache.count + otherNode.cache.count
	if total <= LeafSize {
		leftEntries, rightEntries := updated, *other
		if !goRight {
			leftEntries, rightEntries = *other, updated
		}
		all, err := t.flattenLink(leftEntries)
		if err != nil {
			return link{}, err
		}
		more, err := t.flattenLink(rightEntries)
		if err != nil {
			return link{}, err
		}
		all = sortEntries(append(all, more...))
		leaf, err := buildLeaf(n.prefix, all)
		if err != nil {
			return link{}, err
		}
		return link{n: leaf}, nil
	}

	var left, right link
	if goRight {
		left, right = *other, updated
	} else {
		left, right = updated, *other
	}
	inner, err := buildInner(n.prefix, left, right)
	if err != nil {
		return link{}, err
	}
	return link{n: inner}, nil
}

// flattenLink recursively gathers every live entry beneath the subtree a
// link points to, resolving from the store as needed.
func (t *Tree) flattenLink(l link) ([]entry, error) {
	n, err := t.resolve(&l)
	if err != nil {
		return nil, err
	}
	if n.kind == kindLeaf {
		return n.bucket, nil
	}
	left, err := t.flattenLink(n.left)
	if err != nil {
		return nil, err
	}
	right, err := t.flattenLink(n.right)
	if err != nil {
		return nil, err
	}
	return append(left, right...), nil
}
