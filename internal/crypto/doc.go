// Package crypto exposes the primitive operations the rest of axolotl is
// built on.
//
// Contents
//
//   - Random byte and scalar generation over a caller-supplied io.Reader
//     (RandomBytes, GenerateX25519, ClampX25519)
//   - X25519 scalar multiplication with a contributory-behaviour check
//     (X25519, ErrZeroSharedSecret)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - The Edwards to Montgomery birational map for public points and secret
//     seeds (Ed25519PublicToCurve, Ed25519PrivateToCurve)
//   - Best-effort memory wiping for sensitive byte slices (Wipe)
//   - Fingerprints for display and logging (Fingerprint, ShortFingerprint)
//
// # Notes
//
// A nil io.Reader always means crypto/rand.Reader. Nothing here keeps state;
// higher layers own every key and decide when to wipe it.
package crypto
