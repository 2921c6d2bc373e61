// Package codec implements the deterministic encoding contract the rest of
// the module relies on for cross-peer hash agreement: the same logical
// content, regardless of map or slice iteration order on the writer's side,
// must always serialise to the same bytes. It is built directly on top of
// the project's own RLP encoder rather than reaching for a JSON/CBOR/gob
// encoder, since none of those give byte-for-byte determinism over Go maps
// without the same sort-before-encode discipline applied here anyway.
package codec

import (
	"bytes"
	"sort"

	"github.com/diode-mesh/corevm/rlp"
)

// KV is a single sorted key/value pair, the unit the tree's leaf groups and
// proof witnesses are built from.
type KV struct {
	Key   []byte
	Value []byte
}

// SortKVs sorts pairs by key bytes ascending, in place, and returns it for
// chaining. This is the determinism rule required of any bucket or group
// before it is handed to Encode.
func SortKVs(pairs []KV) []KV {
	sort.Slice(pairs, func(i, j int) bool {
		return bytes.Compare(pairs[i].Key, pairs[j].Key) < 0
	})
	return pairs
}

// Encode deterministically serialises val using the RLP encoding rules.
// val must be built from the supported primitive, slice, array, and struct
// shapes documented on rlp.EncodeToBytes; callers are responsible for
// pre-sorting any map-like data (see SortKVs) since Go maps carry no
// ordering of their own.
func Encode(val interface{}) ([]byte, error) {
	return rlp.EncodeToBytes(val)
}

// Decode deserialises data produced by Encode into val, which must be a
// pointer to a compatible shape.
func Decode(data []byte, val interface{}) error {
	return rlp.DecodeBytes(data, val)
}
