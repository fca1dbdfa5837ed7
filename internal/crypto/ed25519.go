package crypto

import (
	"crypto/ed25519"
	"crypto/sha512"
	"errors"
	"fmt"
	"io"

	"filippo.io/edwards25519"
)

// ErrInvalidPoint is returned when bytes do not decode to an Edwards point.
var ErrInvalidPoint = errors.New("crypto: invalid Ed25519 public key")

// GenerateEd25519 returns a new Ed25519 signing key pair drawn from r.
func GenerateEd25519(r io.Reader) (ed25519.PublicKey, ed25519.PrivateKey, error) {
	pub, priv, err := ed25519.GenerateKey(Reader(r))
	if err != nil {
		return nil, nil, fmt.Errorf("crypto: ed25519 keygen: %w", err)
	}
	return pub, priv, nil
}

// SignEd25519 signs msg with priv and returns the signature.
func SignEd25519(priv ed25519.PrivateKey, msg []byte) []byte {
	return ed25519.Sign(priv, msg)
}

// VerifyEd25519 verifies sig over msg with pub. Malformed keys or
// signatures report false.
func VerifyEd25519(pub, msg, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), msg, sig)
}

// Ed25519PublicToCurve maps an Ed25519 public key to its Montgomery
// u-coordinate, the matching X25519 public key.
func Ed25519PublicToCurve(pub []byte) (out [KeySize]byte, err error) {
	if len(pub) != ed25519.PublicKeySize {
		return out, ErrInvalidPoint
	}
	p, err := new(edwards25519.Point).SetBytes(pub)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidPoint, err)
	}
	copy(out[:], p.BytesMontgomery())
	return out, nil
}

// Ed25519PrivateToCurve derives the X25519 scalar of an Ed25519 private key:
// the clamped low half of SHA-512 over the seed.
func Ed25519PrivateToCurve(priv ed25519.PrivateKey) (out [KeySize]byte) {
	h := sha512.Sum512(priv.Seed())
	copy(out[:], h[:KeySize])
	Wipe(h[:])
	ClampX25519(&out)
	return out
}
