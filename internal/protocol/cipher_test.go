package protocol

import (
	"bytes"
	"testing"
)

func TestCipherDirectionsAreIndependent(t *testing.T) {
	seed := testSeed(0x01)

	c2s, err := newCipherState(seed, "c2s")
	if err != nil {
		t.Fatalf("deriving c2s state: %v", err)
	}
	s2c, err := newCipherState(seed, "s2c")
	if err != nil {
		t.Fatalf("deriving s2c state: %v", err)
	}

	if bytes.Equal(c2s.key[:], s2c.key[:]) {
		t.Error("directions derived the same key")
	}

	plain := []byte("the quick brown fox")
	a := append([]byte(nil), plain...)
	b := append([]byte(nil), plain...)
	if err := c2s.apply(a); err != nil {
		t.Fatalf("applying c2s stream: %v", err)
	}
	if err := s2c.apply(b); err != nil {
		t.Fatalf("applying s2c stream: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Error("directions produced the same keystream")
	}
}

func TestCipherDerivationIsDeterministic(t *testing.T) {
	seed := testSeed(0x05)

	first, err := newCipherState(seed, "c2s")
	if err != nil {
		t.Fatalf("deriving state: %v", err)
	}
	second, err := newCipherState(seed, "c2s")
	if err != nil {
		t.Fatalf("deriving state again: %v", err)
	}

	if !bytes.Equal(first.key[:], second.key[:]) || !bytes.Equal(first.nonce[:], second.nonce[:]) {
		t.Error("same seed and direction derived different cipher state")
	}
}
