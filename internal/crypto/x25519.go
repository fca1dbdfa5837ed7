package crypto

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
)

// KeySize is the length of X25519 scalars, points and shared secrets.
const KeySize = curve25519.ScalarSize

// ErrZeroSharedSecret is returned when a Diffie-Hellman agreement yields the
// all-zero value, which happens for low-order peer points.
var ErrZeroSharedSecret = errors.New("crypto: shared secret is all zeros")

// GenerateX25519 returns a fresh Curve25519 key pair drawn from r.
// The private key is clamped per RFC 7748.
func GenerateX25519(r io.Reader) (priv, pub [KeySize]byte, err error) {
	if _, err = io.ReadFull(Reader(r), priv[:]); err != nil {
		return priv, pub, fmt.Errorf("crypto: random source: %w", err)
	}
	ClampX25519(&priv)
	pub = X25519Base(priv)
	return priv, pub, nil
}

// X25519Base multiplies the base point by priv.
func X25519Base(priv [KeySize]byte) (pub [KeySize]byte) {
	curve25519.ScalarBaseMult(&pub, &priv)
	return pub
}

// X25519 computes the Diffie-Hellman value of priv and pub. An all-zero
// result is rejected with ErrZeroSharedSecret.
func X25519(priv, pub [KeySize]byte) (out [KeySize]byte, err error) {
	secret, err := curve25519.X25519(priv[:], pub[:])
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrZeroSharedSecret, err)
	}
	copy(out[:], secret)
	Wipe(secret)

	var zero [KeySize]byte
	if subtle.ConstantTimeCompare(out[:], zero[:]) == 1 {
		return out, ErrZeroSharedSecret
	}
	return out, nil
}

// ClampX25519 applies the RFC 7748 clamp to k in place.
func ClampX25519(k *[KeySize]byte) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}
