// Package identity implements the Wallet collaborator: the mapping from a
// peer's public key to its 20-byte address, and the key pair that backs
// it. It is a thin domain wrapper over the module's secp256k1 primitives.
package identity

import (
	"github.com/decred/dcrd/dcrec/secp256k1/v4"

	"github.com/diode-mesh/corevm/crypto"
)

// NodeId is a peer's public key in compressed form, the identity the
// routing table and the search driver pass around.
type NodeId []byte

// Wallet derives the 20-byte address that keys a NodeId into the routing
// table. Implementations of a network-facing identity provider (hardware
// wallets, remote signers) satisfy this same interface.
type Wallet interface {
	AddressOf(id NodeId) crypto.Address
}

// LocalWallet is a Wallet backed by an in-process secp256k1 key pair.
type LocalWallet struct {
	priv *secp256k1.PrivateKey
}

// NewLocalWallet generates a fresh key pair.
func NewLocalWallet() (*LocalWallet, error) {
	priv, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &LocalWallet{priv: priv}, nil
}

// NodeId returns this wallet's own identity, the compressed public key.
func (w *LocalWallet) NodeId() NodeId {
	return NodeId(crypto.CompressPubkey(w.priv.PubKey()))
}

// Sign signs a 32-byte hash with the wallet's private key.
func (w *LocalWallet) Sign(hash []byte) ([]byte, error) {
	return crypto.Sign(hash, w.priv)
}

// AddressOf derives the 20-byte address for any NodeId, not just this
// wallet's own — address derivation depends only on the public key.
func (w *LocalWallet) AddressOf(id NodeId) crypto.Address {
	return AddressOf(id)
}

// AddressOf derives a NodeId's 20-byte address without needing a Wallet
// instance, for callers that only ever verify other peers' identities.
func AddressOf(id NodeId) crypto.Address {
	pub, err := crypto.DecompressPubkey(id)
	if err != nil {
		return crypto.Address{}
	}
	return crypto.PubkeyToAddress(pub)
}
