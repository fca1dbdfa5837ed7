package message

import (
	"encoding/hex"
	"fmt"
	"io"

	"axolotl/internal/crypto"
)

// SessionTagSize is the length of a SessionTag in bytes.
const SessionTagSize = 16

// SessionTag names one ratchet state inside a session.
type SessionTag [SessionTagSize]byte

// NewSessionTag draws a random tag from r (crypto/rand when nil).
func NewSessionTag(r io.Reader) (SessionTag, error) {
	var t SessionTag
	b, err := crypto.RandomBytes(r, SessionTagSize)
	if err != nil {
		return t, fmt.Errorf("session tag: %w", err)
	}
	copy(t[:], b)
	return t, nil
}

// SessionTagFromBytes copies b, which must be SessionTagSize bytes long.
func SessionTagFromBytes(b []byte) (SessionTag, error) {
	var t SessionTag
	if len(b) != SessionTagSize {
		return t, fmt.Errorf("session tag is %d bytes, want %d", len(b), SessionTagSize)
	}
	copy(t[:], b)
	return t, nil
}

// String returns the lowercase hex form.
func (t SessionTag) String() string { return hex.EncodeToString(t[:]) }
