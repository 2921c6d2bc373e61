package identity

import (
	"testing"

	"github.com/diode-mesh/corevm/crypto"
)

func TestLocalWalletAddressOfMatchesSelf(t *testing.T) {
	w, err := NewLocalWallet()
	if err != nil {
		t.Fatalf("NewLocalWallet: %v", err)
	}
	self := w.NodeId()
	if w.AddressOf(self) != AddressOf(self) {
		t.Fatal("Wallet.AddressOf and the package-level AddressOf disagree for the same NodeId")
	}
}

func TestDistinctWalletsHaveDistinctAddresses(t *testing.T) {
	w1, err := NewLocalWallet()
	if err != nil {
		t.Fatalf("NewLocalWallet: %v", err)
	}
	w2, err := NewLocalWallet()
	if err != nil {
		t.Fatalf("NewLocalWallet: %v", err)
	}
	if w1.AddressOf(w1.NodeId()) == w2.AddressOf(w2.NodeId()) {
		t.Fatal("two freshly generated wallets produced the same address")
	}
}

func TestSignProducesVerifiableSignature(t *testing.T) {
	w, err := NewLocalWallet()
	if err != nil {
		t.Fatalf("NewLocalWallet: %v", err)
	}
	hash := make([]byte, 32)
	hash[0] = 0x42
	sig, err := w.Sign(hash)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if len(sig) == 0 {
		t.Fatal("Sign returned an empty signature")
	}
	if !crypto.Verify(w.NodeId(), hash, sig) {
		t.Fatal("signature does not verify against the wallet's NodeId")
	}
}
