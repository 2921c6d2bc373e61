package kbucket

import "github.com/holiman/uint256"

// ItemKey is a 256-bit identifier on the routing ring: H(address_of(NodeId)).
type ItemKey [32]byte

// Distance computes the ring distance between two 256-bit identifiers:
// the shorter of the clockwise and counter-clockwise arcs between them.
func Distance(a, b ItemKey) *uint256.Int {
	ua := new(uint256.Int).SetBytes(a[:])
	ub := new(uint256.Int).SetBytes(b[:])
	fwd := new(uint256.Int).Sub(ua, ub) // (a-b) mod 2^256
	bwd := new(uint256.Int).Sub(ub, ua) // (b-a) mod 2^256
	if fwd.Cmp(bwd) <= 0 {
		return fwd
	}
	return bwd
}

// Less reports whether item x is strictly ring-closer to pivot than y.
func Less(pivot, x, y ItemKey) bool {
	return Distance(pivot, x).Cmp(Distance(pivot, y)) < 0
}

// bitAt returns the i-th most-significant bit of k. i beyond the key's
// 256 bits returns 0 rather than indexing out of range.
func bitAt(k ItemKey, i int) byte {
	byteIdx := i / 8
	if byteIdx >= len(k) {
		return 0
	}
	bitIdx := 7 - uint(i%8)
	return (k[byteIdx] >> bitIdx) & 1
}

// Cmp orders two identifiers as plain 256-bit unsigned integers, used by
// to_ring_list for its ascending-ID ordering (distinct from ring distance).
func Cmp(a, b ItemKey) int {
	ua := new(uint256.Int).SetBytes(a[:])
	ub := new(uint256.Int).SetBytes(b[:])
	return ua.Cmp(ub)
}
