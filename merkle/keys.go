package merkle

import "math/big"

// CanonUint canonicalises a non-negative integer key into the 32-byte
// big-endian encoding the slot hash is computed over.
func CanonUint(v uint64) []byte {
	return CanonBigInt(new(big.Int).SetUint64(v))
}

// CanonBigInt canonicalises a non-negative big integer key into a 32-byte
// big-endian encoding. Values that do not fit in 32 bytes are truncated
// from the most-significant end, matching the fixed-width convention used
// throughout the store.
func CanonBigInt(v *big.Int) []byte {
	var out [32]byte
	b := v.Bytes()
	if len(b) > len(out) {
		b = b[len(b)-len(out):]
	}
	copy(out[len(out)-len(b):], b)
	return out[:]
}

// IsZeroValue reports whether value is the 32 zero bytes, the sentinel
// that deletes a key on insert.
func IsZeroValue(value []byte) bool {
	if len(value) != 32 {
		return false
	}
	for _, b := range value {
		if b != 0 {
			return false
		}
	}
	return true
}

// ZeroValue returns the canonical 32 zero byte deletion sentinel.
func ZeroValue() []byte { return make([]byte, 32) }
