package ratchet

import (
	"encoding/binary"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrDecrypt is returned when a ciphertext fails authentication.
var ErrDecrypt = errors.New("ratchet: message authentication failed")

func (mk *MessageKeys) nonce() []byte {
	n := make([]byte, chacha20poly1305.NonceSize)
	binary.BigEndian.PutUint32(n[chacha20poly1305.NonceSize-4:], mk.Counter)
	return n
}

// Seal encrypts plaintext bound to ad.
func (mk *MessageKeys) Seal(plaintext, ad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(mk.Key[:])
	if err != nil {
		return nil, err
	}
	return aead.Seal(nil, mk.nonce(), plaintext, ad), nil
}

// Open decrypts ciphertext bound to ad.
func (mk *MessageKeys) Open(ciphertext, ad []byte) ([]byte, error) {
	aead, err := chacha20poly1305.New(mk.Key[:])
	if err != nil {
		return nil, err
	}
	pt, err := aead.Open(nil, mk.nonce(), ciphertext, ad)
	if err != nil {
		return nil, ErrDecrypt
	}
	return pt, nil
}
