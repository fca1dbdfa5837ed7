// Package ratchet holds the symmetric half of the Double Ratchet: the root
// key, chain keys and one-shot message keys, and the AEAD that message keys
// drive.
//
// Derivation:
//
//	RootKey.DHRatchet   HKDF-SHA256(DH(ours, theirs), salt=root, "dh_ratchet") -> root', chain
//	ChainKey.Next       HMAC-SHA256(chain, "1")
//	ChainKey.MessageKeys HKDF-SHA256(HMAC-SHA256(chain, "0"), "hash_ratchet") -> cipher key
//
// Message keys seal with ChaCha20-Poly1305 using the counter, big-endian, as
// the last four bytes of the nonce.
//
// Values in this package are plain data. Callers must serialise access per
// conversation and call Wipe when a key is superseded.
package ratchet
