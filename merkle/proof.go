package merkle

import (
	"bytes"

	"github.com/diode-mesh/corevm/codec"
	"github.com/diode-mesh/corevm/crypto"
)

// ProofStep records one Inner node crossed on the way from the root to the
// terminal Leaf: which side the key's path took, and the sibling's
// hash-vector entry at the key's slot (the only sibling information a
// verifier needs to recompute that one slot up to the root).
type ProofStep struct {
	WentRight   bool
	SiblingSlot crypto.Hash
}

// Proof is a compact inclusion (or exclusion) witness for one key. A
// verifier armed only with Hash and this struct can recompute root_hash
// and check it against a trusted value, then read the key's value (or its
// absence) straight out of Group.
type Proof struct {
	Slot       uint64
	Prefix     []byte
	Group      []codec.KV
	Steps      []ProofStep // root-to-leaf order
	RootHashes [LeafSize]crypto.Hash
}

// GetProof builds an inclusion proof for key against root.
func (t *Tree) GetProof(root Root, key []byte) (*Proof, error) {
	h := crypto.Keccak256(key)
	slot := uint64(slotOf(h))

	rootNode, err := t.resolve(&link{key: root.key})
	if err != nil {
		return nil, err
	}
	proof := &Proof{Slot: slot, RootHashes: rootNode.cache.hashes}

	l := link{key: root.key}
	for {
		n, err := t.resolve(&l)
		if err != nil {
			return nil, err
		}
		if n.kind == kindLeaf {
			proof.Prefix = n.prefix
			group := make([]codec.KV, 0)
			for _, e := range n.bucket {
				if slotOf(crypto.Keccak256(e.key)) == int(slot) {
					group = append(group, codec.KV{Key: e.key, Value: e.value})
				}
			}
			proof.Group = codec.SortKVs(group)
			return proof, nil
		}
		goRight := bitAt(h, len(n.prefix)) == 1
		var chosen, sibling link
		if goRight {
			chosen, sibling = n.right, n.left
		} else {
			chosen, sibling = n.left, n.right
		}
		siblingNode, err := t.resolve(&sibling)
		if err != nil {
			return nil, err
		}
		proof.Steps = append(proof.Steps, ProofStep{
			WentRight:   goRight,
			SiblingSlot: siblingNode.cache.hashes[slot],
		})
		l = chosen
	}
}

// Value returns the value the proof witnesses for key, if present.
func (p *Proof) Value(key []byte) ([]byte, bool) {
	for _, kv := range p.Group {
		if bytes.Equal(kv.Key, key) {
			return kv.Value, true
		}
	}
	return nil, false
}

// Verify checks a proof against a trusted root hash for key, using only
// the proof contents and the hash function. It returns the value the
// proof witnesses (or false if key is absent) and whether the proof is
// internally consistent with rootHash.
func Verify(proof *Proof, rootHash crypto.Hash, key []byte) (value []byte, member bool, ok bool) {
	h := crypto.Keccak256(key)
	if uint64(slotOf(h)) != proof.Slot {
		return nil, false, false
	}

	groupPayload, err := codec.Encode(struct {
		Slot   uint64
		Prefix []byte
		Group  []codec.KV
	}{Slot: proof.Slot, Prefix: proof.Prefix, Group: proof.Group})
	if err != nil {
		return nil, false, false
	}
	cur := crypto.Keccak256Hash(groupPayload)

	for i := len(proof.Steps) - 1; i >= 0; i-- {
		step := proof.Steps[i]
		var left, right crypto.Hash
		if step.WentRight {
			left, right = step.SiblingSlot, cur
		} else {
			left, right = cur, step.SiblingSlot
		}
		payload, err := codec.Encode([2][]byte{left.Bytes(), right.Bytes()})
		if err != nil {
			return nil, false, false
		}
		cur = crypto.Keccak256Hash(payload)
	}

	if int(proof.Slot) >= LeafSize || cur != proof.RootHashes[proof.Slot] {
		return nil, false, false
	}
	computedRoot, err := rootHashOf(&hashVector{hashes: proof.RootHashes})
	if err != nil || computedRoot != rootHash {
		return nil, false, false
	}
	v, found := proof.Value(key)
	return v, found, true
}
