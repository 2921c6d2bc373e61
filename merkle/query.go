package merkle

import "github.com/diode-mesh/corevm/crypto"

// Size returns the number of live keys beneath root.
func (t *Tree) Size(root Root) (int, error) {
	n, err := t.resolve(&link{key: root.key})
	if err != nil {
		return 0, err
	}
	return int(n.cache.count), nil
}

// BucketCount returns the number of leaves in the tree.
func (t *Tree) BucketCount(root Root) (int, error) {
	return t.countLeaves(link{key: root.key})
}

func (t *Tree) countLeaves(l link) (int, error) {
	n, err := t.resolve(&l)
	if err != nil {
		return 0, err
	}
	if n.kind == kindLeaf {
		return 1, nil
	}
	left, err := t.countLeaves(n.left)
	if err != nil {
		return 0, err
	}
	right, err := t.countLeaves(n.right)
	if err != nil {
		return 0, err
	}
	return left + right, nil
}

// ToList returns every (key, value) pair via a left-to-right traversal of
// the tree. The order is stable for a given tree shape but is not sorted
// by key.
func (t *Tree) ToList(root Root) ([][2][]byte, error) {
	entries, err := t.flattenLink(link{key: root.key})
	if err != nil {
		return nil, err
	}
	out := make([][2][]byte, len(entries))
	for i, e := range entries {
		out[i] = [2][]byte{e.key, e.value}
	}
	return out, nil
}

// RootHash returns the 32-byte root hash of root.
func (t *Tree) RootHash(root Root) (crypto.Hash, error) {
	n, err := t.resolve(&link{key: root.key})
	if err != nil {
		return crypto.Hash{}, err
	}
	return rootHashOf(n.cache)
}

// RootHashes returns the root's full LeafSize-wide hash-vector.
func (t *Tree) RootHashes(root Root) ([LeafSize]crypto.Hash, error) {
	n, err := t.resolve(&link{key: root.key})
	if err != nil {
		return [LeafSize]crypto.Hash{}, err
	}
	return n.cache.hashes, nil
}
