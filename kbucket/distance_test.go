package kbucket

import "testing"

func TestBitAtWithinRange(t *testing.T) {
	var k ItemKey
	k[0] = 0x80 // top bit of the key set
	if got := bitAt(k, 0); got != 1 {
		t.Fatalf("bitAt(k, 0) = %d, want 1", got)
	}
	if got := bitAt(k, 1); got != 0 {
		t.Fatalf("bitAt(k, 1) = %d, want 0", got)
	}
}

func TestBitAtBeyondKeyLengthReturnsZero(t *testing.T) {
	var k ItemKey
	for i := range k {
		k[i] = 0xFF
	}
	if got := bitAt(k, 256); got != 0 {
		t.Fatalf("bitAt(k, 256) = %d, want 0 (out of range)", got)
	}
	if got := bitAt(k, 1000); got != 0 {
		t.Fatalf("bitAt(k, 1000) = %d, want 0 (out of range)", got)
	}
}
