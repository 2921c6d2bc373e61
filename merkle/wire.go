package merkle

import (
	"github.com/diode-mesh/corevm/codec"
	"github.com/diode-mesh/corevm/crypto"
)

// wireEntry is the on-disk shape of a leaf bucket entry.
type wireEntry struct {
	Key   []byte
	Value []byte
}

// wireNode is the on-disk shape of a tree node. Exactly one of (Bucket) or
// (Left, Right) is meaningful, selected by Kind. Cache and Count are always
// present: a node is only ever persisted once its hash-vector is known.
type wireNode struct {
	Kind   uint8
	Prefix []byte
	Bucket []wireEntry
	Left   [32]byte
	Right  [32]byte
	Cache  [][]byte // LeafSize 32-byte hashes
	Count  uint64
}

func encodeGroup(slot uint64, prefix []byte, group []entry) ([]byte, error) {
	kvs := make([]codec.KV, len(group))
	for i, e := range group {
		kvs[i] = codec.KV{Key: e.key, Value: e.value}
	}
	codec.SortKVs(kvs)
	payload := struct {
		Slot   uint64
		Prefix []byte
		Group  []codec.KV
	}{Slot: slot, Prefix: prefix, Group: kvs}
	return codec.Encode(payload)
}

func encodeHashPair(left, right crypto.Hash) ([]byte, error) {
	payload := [2][]byte{left.Bytes(), right.Bytes()}
	return codec.Encode(payload)
}

func encodeHashVector(hv *hashVector) ([]byte, error) {
	rows := make([][]byte, LeafSize)
	for i := range hv.hashes {
		rows[i] = hv.hashes[i].Bytes()
	}
	return codec.Encode(rows)
}

func encodeWireNode(n *node) ([]byte, error) {
	wn := wireNode{
		Kind:   uint8(n.kind),
		Prefix: n.prefix,
		Cache:  make([][]byte, LeafSize),
		Count:  n.cache.count,
	}
	for i := range n.cache.hashes {
		wn.Cache[i] = n.cache.hashes[i].Bytes()
	}
	if n.kind == kindLeaf {
		wn.Bucket = make([]wireEntry, len(n.bucket))
		for i, e := range n.bucket {
			wn.Bucket[i] = wireEntry{Key: e.key, Value: e.value}
		}
	} else {
		wn.Left = [32]byte(n.left.key)
		wn.Right = [32]byte(n.right.key)
	}
	return codec.Encode(wn)
}

func decodeWireNode(data []byte) (*node, error) {
	var wn wireNode
	if err := codec.Decode(data, &wn); err != nil {
		return nil, err
	}
	n := &node{kind: kind(wn.Kind), prefix: wn.Prefix}
	hv := &hashVector{count: wn.Count}
	for i := 0; i < LeafSize && i < len(wn.Cache); i++ {
		hv.hashes[i] = crypto.BytesToHash(wn.Cache[i])
	}
	n.cache = hv
	if n.kind == kindLeaf {
		n.bucket = make([]entry, len(wn.Bucket))
		for i, we := range wn.Bucket {
			n.bucket[i] = entry{key: we.Key, value: we.Value}
		}
	} else {
		n.left = link{key: crypto.Hash(wn.Left)}
		n.right = link{key: crypto.Hash(wn.Right)}
	}
	return n, nil
}
