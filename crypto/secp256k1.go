package crypto

import (
	"errors"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

// Address is the 20-byte identity derived from a public key, used as the
// Wallet collaborator's address_of result.
type Address [20]byte

func BytesToAddress(b []byte) Address {
	var a Address
	start := 0
	if len(b) > len(a) {
		start = len(b) - len(a)
	}
	copy(a[len(a)-(len(b)-start):], b[start:])
	return a
}

func (a Address) Bytes() []byte { return a[:] }

// GenerateKey generates a new secp256k1 private key.
func GenerateKey() (*secp256k1.PrivateKey, error) {
	return secp256k1.GeneratePrivateKey()
}

// Sign produces a deterministic ECDSA signature over a 32-byte hash.
func Sign(hash []byte, prv *secp256k1.PrivateKey) ([]byte, error) {
	if len(hash) != 32 {
		return nil, errors.New("crypto: hash must be 32 bytes")
	}
	sig := ecdsa.Sign(prv, hash)
	return sig.Serialize(), nil
}

// Verify checks a DER-encoded ECDSA signature against a public key and hash.
func Verify(pubkey, hash, sig []byte) bool {
	if len(hash) != 32 {
		return false
	}
	pub, err := secp256k1.ParsePubKey(pubkey)
	if err != nil {
		return false
	}
	parsed, err := ecdsa.ParseDERSignature(sig)
	if err != nil {
		return false
	}
	return parsed.Verify(hash, pub)
}

// PubkeyToAddress derives the address from an uncompressed public key.
// Address = Keccak256(pubkey[1:])[12:], matching the convention used
// throughout the node for deriving short identities from public keys.
func PubkeyToAddress(pub *secp256k1.PublicKey) Address {
	uncompressed := pub.SerializeUncompressed()
	hash := Keccak256(uncompressed[1:])
	return BytesToAddress(hash[12:])
}

// CompressPubkey compresses a public key to 33 bytes.
func CompressPubkey(pubkey *secp256k1.PublicKey) []byte {
	return pubkey.SerializeCompressed()
}

// DecompressPubkey parses a 33-byte compressed public key.
func DecompressPubkey(pubkey []byte) (*secp256k1.PublicKey, error) {
	return secp256k1.ParsePubKey(pubkey)
}
