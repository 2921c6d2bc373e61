package merkle

import "github.com/diode-mesh/corevm/crypto"

// buildLeaf constructs a leaf node and computes its hash-vector. bucket
// must already be sorted by key.
func buildLeaf(prefix []byte, bucket []entry) (*node, error) {
	groups := make([][]entry, LeafSize)
	for _, e := range bucket {
		h := crypto.Keccak256(e.key)
		s := slotOf(h)
		groups[s] = append(groups[s], e)
	}
	hv := &hashVector{count: uint64(len(bucket))}
	for i := 0; i < LeafSize; i++ {
		payload, err := encodeGroup(uint64(i), prefix, groups[i])
		if err != nil {
			return nil, err
		}
		hv.hashes[i] = crypto.Keccak256Hash(payload)
	}
	return &node{kind: kindLeaf, prefix: prefix, bucket: bucket, cache: hv}, nil
}

// buildInner constructs an inner node from two already-hashed children.
func buildInner(prefix []byte, left, right link) (*node, error) {
	lhv, rhv := left.n.cache, right.n.cache
	hv := &hashVector{count: lhv.count + rhv.count}
	for i := 0; i < LeafSize; i++ {
		payload, err := encodeHashPair(lhv.hashes[i], rhv.hashes[i])
		if err != nil {
			return nil, err
		}
		hv.hashes[i] = crypto.Keccak256Hash(payload)
	}
	return &node{kind: kindInner, prefix: prefix, left: left, right: right, cache: hv}, nil
}

// rootHashOf reduces a full hash-vector to the single 32-byte root hash.
func rootHashOf(hv *hashVector) (crypto.Hash, error) {
	payload, err := encodeHashVector(hv)
	if err != nil {
		return crypto.Hash{}, err
	}
	return crypto.Keccak256Hash(payload), nil
}

// emptyHashVector is the hash-vector of a tree holding zero keys.
func emptyHashVector() (*hashVector, error) {
	return buildEmptyLeafVector(nil)
}

func buildEmptyLeafVector(prefix []byte) (*hashVector, error) {
	n, err := buildLeaf(prefix, nil)
	if err != nil {
		return nil, err
	}
	return n.cache, nil
}
