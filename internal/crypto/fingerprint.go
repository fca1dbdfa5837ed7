package crypto

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns the lowercase hex of a public key's canonical bytes.
func Fingerprint(pub []byte) string {
	return hex.EncodeToString(pub)
}

// ShortFingerprint returns a short hex digest of a public key for logs.
//
// It hashes with SHA-256 and truncates to 10 bytes (20 hex chars).
func ShortFingerprint(pub []byte) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:10])
}
