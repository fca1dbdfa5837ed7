package ratchet

import (
	"crypto/hmac"
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"

	"axolotl/internal/crypto"
)

// KeySize is the size of every symmetric key in the ratchet.
const KeySize = 32

const (
	infoHandshake   = "handshake"
	infoDHRatchet   = "dh_ratchet"
	infoHashRatchet = "hash_ratchet"
)

// DeriveSecrets expands ikm into two KeySize secrets.
func DeriveSecrets(ikm, salt []byte, info string) (first, second [KeySize]byte) {
	var okm [2 * KeySize]byte
	r := hkdf.New(sha256.New, ikm, salt, []byte(info))
	// HKDF-SHA256 can produce up to 255*32 bytes; 64 never fails.
	_, _ = io.ReadFull(r, okm[:])
	copy(first[:], okm[:KeySize])
	copy(second[:], okm[KeySize:])
	crypto.Wipe(okm[:])
	return first, second
}

// Handshake turns the concatenated triple-DH output into the initial root
// and chain keys.
func Handshake(master []byte) (RootKey, ChainKey) {
	rk, ck := DeriveSecrets(master, nil, infoHandshake)
	return RootKey{Key: rk}, ChainKey{Key: ck}
}

func hmacSum(key []byte, data string) [KeySize]byte {
	var out [KeySize]byte
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	h.Sum(out[:0])
	return out
}
