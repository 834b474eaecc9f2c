package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrIncompleteFrame means the buffer does not yet hold a full frame.
	// The caller should read more bytes and try again.
	ErrIncompleteFrame = errors.New("incomplete frame")

	// ErrDecryptFailed means the payload checksum did not match after
	// decryption. The cipher streams are out of sync or the peer is not
	// speaking our protocol; the connection must be dropped.
	ErrDecryptFailed = errors.New("frame decryption failed")
)

// MalformedFrameError is a framing violation: a bad length, an unknown
// packet kind, or a payload that doesn't parse. Always fatal to the
// connection, never to the server.
type MalformedFrameError struct {
	Kind   Kind
	Reason string
}

func (e *MalformedFrameError) Error() string {
	if e.Kind != 0 {
		return fmt.Sprintf("malformed %s frame: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("malformed frame: %s", e.Reason)
}

func newMalformed(kind Kind, format string, args ...any) *MalformedFrameError {
	return &MalformedFrameError{Kind: kind, Reason: fmt.Sprintf(format, args...)}
}
