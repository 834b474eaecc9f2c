package protocol

import (
	"fmt"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/chacha20"
)

// SeedSize is the length of combined session key material: the client
// and server handshake halves concatenated.
const SeedSize = 32

// cipherBlockSize is the ChaCha20 block length; counters advance in
// whole blocks per frame.
const cipherBlockSize = 64

// CombineSeeds builds the session key material from the two handshake
// halves.
func CombineSeeds(clientSeed, serverSeed [16]byte) [SeedSize]byte {
	var seed [SeedSize]byte
	copy(seed[:16], clientSeed[:])
	copy(seed[16:], serverSeed[:])
	return seed
}

// cipherState is one direction of the stream. Key and nonce are derived
// from the session seed and a direction label, so the two directions
// never share a keystream. The block counter only moves forward; a
// rekey replaces the whole state rather than resetting it.
type cipherState struct {
	key     [chacha20.KeySize]byte
	nonce   [chacha20.NonceSize]byte
	counter uint32
}

func newCipherState(seed [SeedSize]byte, direction string) (*cipherState, error) {
	h, err := blake2b.New512(nil)
	if err != nil {
		return nil, fmt.Errorf("creating key derivation hash: %w", err)
	}
	h.Write(seed[:])
	h.Write([]byte(direction))
	sum := h.Sum(nil)

	s := &cipherState{}
	copy(s.key[:], sum[:chacha20.KeySize])
	copy(s.nonce[:], sum[chacha20.KeySize:chacha20.KeySize+chacha20.NonceSize])
	return s, nil
}

// apply XORs the keystream over buf in place and advances the counter
// by exactly the number of blocks consumed.
func (s *cipherState) apply(buf []byte) error {
	c, err := chacha20.NewUnauthenticatedCipher(s.key[:], s.nonce[:])
	if err != nil {
		return fmt.Errorf("creating stream cipher: %w", err)
	}
	c.SetCounter(s.counter)
	c.XORKeyStream(buf, buf)

	blocks := uint32((len(buf) + cipherBlockSize - 1) / cipherBlockSize)
	s.counter += blocks
	return nil
}
