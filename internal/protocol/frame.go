package protocol

import (
	"encoding/binary"
	"fmt"
	"hash/crc32"
)

const (
	// headerSize is length (2) + kind (2) + checksum (4).
	headerSize = 8

	// MaxFrameSize bounds a single frame on the wire.
	MaxFrameSize = 4096
)

// Frame layout:
//
//	[u16 length][u16 kind][u32 crc32][payload...]
//
// length covers the whole frame including itself and stays in clear so
// framing survives encryption. Everything after it is encrypted with
// the per-direction stream once the handshake has seeded the ciphers.
// The checksum is CRC-32 (IEEE) of the plaintext payload; a mismatch
// after decryption means the streams have desynced.

// Codec turns a byte stream into packets and back for one connection.
// It is not safe for concurrent use; each direction's loop owns its
// calls. Before Seed* is called frames pass in cleartext, which is how
// the handshake itself travels.
type Codec struct {
	recv *cipherState
	send *cipherState
}

func NewCodec() *Codec {
	return &Codec{}
}

// SeedServer keys the codec from the server's perspective: inbound
// frames use the client-to-server stream, outbound the reverse. Calling
// it again (rekey) replaces both states outright; the old counters are
// never reused.
func (c *Codec) SeedServer(seed [SeedSize]byte) error {
	recv, err := newCipherState(seed, "c2s")
	if err != nil {
		return err
	}
	send, err := newCipherState(seed, "s2c")
	if err != nil {
		return err
	}
	c.recv, c.send = recv, send
	return nil
}

// SeedClient is the mirror image, used by test harnesses and bots.
func (c *Codec) SeedClient(seed [SeedSize]byte) error {
	recv, err := newCipherState(seed, "s2c")
	if err != nil {
		return err
	}
	send, err := newCipherState(seed, "c2s")
	if err != nil {
		return err
	}
	c.recv, c.send = recv, send
	return nil
}

// Counters exposes the per-direction block counters for tests.
func (c *Codec) Counters() (recv, send uint32) {
	if c.recv != nil {
		recv = c.recv.counter
	}
	if c.send != nil {
		send = c.send.counter
	}
	return recv, send
}

// Encode serializes a packet into a ready-to-write frame.
func (c *Codec) Encode(p Packet) ([]byte, error) {
	w := &writer{buf: make([]byte, headerSize, headerSize+64)}
	p.encode(w)

	if len(w.buf) > MaxFrameSize {
		return nil, fmt.Errorf("encoding %s: frame size %d exceeds limit %d", p.Kind(), len(w.buf), MaxFrameSize)
	}

	binary.LittleEndian.PutUint16(w.buf[0:2], uint16(len(w.buf)))
	binary.LittleEndian.PutUint16(w.buf[2:4], uint16(p.Kind()))
	binary.LittleEndian.PutUint32(w.buf[4:8], crc32.ChecksumIEEE(w.buf[headerSize:]))

	if c.send != nil {
		if err := c.send.apply(w.buf[2:]); err != nil {
			return nil, err
		}
	}

	return w.buf, nil
}

// Decode reads one frame from the front of buf. It returns the decoded
// packet and the number of bytes consumed, or ErrIncompleteFrame when
// buf does not yet hold a full frame. Any other error is fatal to the
// connection. buf itself is never modified.
func (c *Codec) Decode(buf []byte) (Packet, int, error) {
	if len(buf) < 2 {
		return nil, 0, ErrIncompleteFrame
	}

	length := int(binary.LittleEndian.Uint16(buf[0:2]))
	if length < headerSize || length > MaxFrameSize {
		return nil, 0, newMalformed(0, "frame length %d out of range", length)
	}
	if len(buf) < length {
		return nil, 0, ErrIncompleteFrame
	}

	body := append([]byte(nil), buf[2:length]...)
	if c.recv != nil {
		if err := c.recv.apply(body); err != nil {
			return nil, 0, err
		}
	}

	kind := Kind(binary.LittleEndian.Uint16(body[0:2]))
	checksum := binary.LittleEndian.Uint32(body[2:6])
	payload := body[6:]

	if crc32.ChecksumIEEE(payload) != checksum {
		if c.recv != nil {
			return nil, 0, ErrDecryptFailed
		}
		return nil, 0, newMalformed(kind, "checksum mismatch")
	}

	ctor, ok := packetTable[kind]
	if !ok {
		return nil, 0, newMalformed(kind, "unknown packet kind")
	}

	p := ctor()
	r := &reader{buf: payload}
	if err := p.decode(r); err != nil {
		return nil, 0, newMalformed(kind, "decoding payload: %v", err)
	}
	if r.remaining() > 0 {
		return nil, 0, newMalformed(kind, "%d trailing bytes", r.remaining())
	}

	return p, length, nil
}
