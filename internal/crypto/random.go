package crypto

import (
	"crypto/rand"
	"fmt"
	"io"
)

// Reader returns r, or crypto/rand.Reader when r is nil.
func Reader(r io.Reader) io.Reader {
	if r == nil {
		return rand.Reader
	}
	return r
}

// RandomBytes reads n bytes from r (crypto/rand.Reader when nil).
func RandomBytes(r io.Reader, n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(Reader(r), b); err != nil {
		return nil, fmt.Errorf("crypto: random source: %w", err)
	}
	return b, nil
}
