// Package crypto supplies the hash and signature primitives that the rest
// of the module treats as an abstract collaborator: nothing outside this
// package should know or care that the hash function underneath is Keccak.
package crypto

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// Hash is a 32-byte digest, the unit of address in the content-addressed
// store and the Merkle hash-vector machinery.
type Hash [32]byte

func BytesToHash(b []byte) Hash {
	var h Hash
	start := 0
	if len(b) > len(h) {
		start = len(b) - len(h)
	}
	copy(h[len(h)-(len(b)-start):], b[start:])
	return h
}

func (h Hash) Bytes() []byte { return h[:] }

func (h Hash) Hex() string { return hex.EncodeToString(h[:]) }

func (h Hash) IsZero() bool { return h == Hash{} }

// Keccak256 hashes the concatenation of data and returns the raw digest.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash hashes the concatenation of data and wraps it as a Hash.
func Keccak256Hash(data ...[]byte) Hash {
	return BytesToHash(Keccak256(data...))
}
