package merkle

import (
	"bytes"
	"sort"

	"github.com/diode-mesh/corevm/crypto"
)

// LeafSize is the maximum number of keys a leaf may hold before it splits,
// and the width of every hash-vector in the tree. Fixed for network
// compatibility: every peer must agree on it.
const LeafSize = 16

type kind uint8

const (
	kindLeaf kind = iota
	kindInner
)

// entry is one (key, value) pair living in a leaf's bucket.
type entry struct {
	key   []byte
	value []byte
}

// hashVector is the per-slot Merkle signature carried by every node,
// together with the live key count beneath it.
type hashVector struct {
	hashes [LeafSize]crypto.Hash
	count  uint64
}

// link points at a child: either an in-memory node awaiting persistence
// (dirty) or a StoreKey already written to the backing Store.
type link struct {
	n   *node
	key crypto.Hash
}

func (l link) dirty() bool { return l.n != nil }

// node is the tagged Leaf/Inner variant from the data model. Both variants
// share one struct; which fields are meaningful is determined by kind.
type node struct {
	kind   kind
	prefix []byte // 0/1 values, MSB-first bits consumed to reach this node

	bucket []entry // leaf only, kept sorted by key bytes

	left, right link // inner only

	cache *hashVector // always populated once a node is built or resolved
}

// bitAt returns bit i (0 = most significant) of a 32-byte hash.
func bitAt(h []byte, i int) byte {
	byteIdx := i / 8
	bitIdx := 7 - uint(i%8)
	return (h[byteIdx] >> bitIdx) & 1
}

// slotOf returns the hash-vector slot a key's hash routes to.
func slotOf(keyHash []byte) int {
	return int(keyHash[31]) % LeafSize
}

func findEntry(bucket []entry, key []byte) (int, bool) {
	i := sort.Search(len(bucket), func(i int) bool {
		return bytes.Compare(bucket[i].key, key) >= 0
	})
	if i < len(bucket) && bytes.Equal(bucket[i].key, key) {
		return i, true
	}
	return i, false
}

// upsertEntry returns a new sorted bucket with key set to value, replacing any
// existing entry for key.
func upsertEntry(bucket []entry, key, value []byte) []entry {
	i, found := findEntry(bucket, key)
	out := make([]entry, len(bucket), len(bucket)+1)
	copy(out, bucket)
	if found {
		out[i] = entry{key: key, value: value}
		return out
	}
	out = append(out, entry{})
	copy(out[i+1:], out[i:])
	out[i] = entry{key: key, value: value}
	return out
}

// removeEntry returns a new sorted bucket with key absent.
func removeEntry(bucket []entry, key []byte) []entry {
	i, found := findEntry(bucket, key)
	if !found {
		return bucket
	}
	out := make([]entry, 0, len(bucket)-1)
	out = append(out, bucket[:i]...)
	out = append(out, bucket[i+1:]...)
	return out
}

// sortEntries sorts entries by key bytes ascending, in place.
func sortEntries(entries []entry) []entry {
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].key, entries[j].key) < 0
	})
	return entries
}

// splitLeaf partitions bucket by the next routing bit below prefix and
// recursively rebalances both halves, producing an Inner node. A child
// side that is still over LeafSize after partitioning splits again.
func splitLeaf(prefix []byte, bucket []entry) (*node, error) {
	bit := len(prefix)
	var leftEntries, rightEntries []entry
	for _, e := range bucket {
		h := crypto.Keccak256(e.key)
		if bitAt(h, bit) == 0 {
			leftEntries = append(leftEntries, e)
		} else {
			rightEntries = append(rightEntries, e)
		}
	}
	leftPrefix := append(append([]byte{}, prefix...), 0)
	rightPrefix := append(append([]byte{}, prefix...), 1)

	leftNode, err := buildSubtree(leftPrefix, leftEntries)
	if err != nil {
		return nil, err
	}
	rightNode, err := buildSubtree(rightPrefix, rightEntries)
	if err != nil {
		return nil, err
	}
	return buildInner(prefix, link{n: leftNode}, link{n: rightNode})
}

// buildSubtree builds a Leaf if entries fit, otherwise splits again.
func buildSubtree(prefix []byte, entries []entry) (*node, error) {
	if len(entries) <= LeafSize {
		return buildLeaf(prefix, entries)
	}
	return splitLeaf(prefix, entries)
}
