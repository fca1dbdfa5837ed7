package store

import (
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/scrypt"

	"axolotl/internal/codec"
	"axolotl/internal/crypto"
)

const (
	// The current supported version of the sealed identity format.
	keystoreFormatVersion = 1

	saltSize = 16
)

// ErrWrongPassphrase is returned when the passphrase is incorrect or the
// sealed identity has been modified.
var ErrWrongPassphrase = errors.New("store: wrong passphrase or corrupted identity")

// KDFParams are the scrypt cost parameters used to seal new identities.
// Sealed blobs carry their own parameters, so changing these never breaks
// existing data.
type KDFParams struct {
	N, R, P int
}

// DefaultKDFParams is the interactive-login cost recommended for scrypt.
func DefaultKDFParams() KDFParams { return KDFParams{N: 1 << 15, R: 8, P: 1} }

// blob is the stored CBOR structure holding the ciphertext and KDF parameters.
type blob struct {
	V      uint8  `cbor:"0,keyasint"`
	Salt   []byte `cbor:"1,keyasint"`
	N      uint64 `cbor:"2,keyasint"`
	R      uint64 `cbor:"3,keyasint"`
	P      uint64 `cbor:"4,keyasint"`
	Cipher []byte `cbor:"5,keyasint"`
}

func deriveKey(passphrase string, salt []byte, n, r, p int) ([]byte, error) {
	return scrypt.Key([]byte(passphrase), salt, n, r, p, chacha20poly1305.KeySize)
}

// seal derives a key from passphrase and seals raw into a blob.
func seal(rand io.Reader, passphrase string, raw []byte, kdf KDFParams) ([]byte, error) {
	salt, err := crypto.RandomBytes(rand, saltSize)
	if err != nil {
		return nil, err
	}
	key, err := deriveKey(passphrase, salt, kdf.N, kdf.R, kdf.P)
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(key)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte // zero nonce; the key is unique per salt
	ct := aead.Seal(nil, nonce[:], raw, salt)

	return codec.Marshal(blob{
		V:      keystoreFormatVersion,
		Salt:   salt,
		N:      uint64(kdf.N),
		R:      uint64(kdf.R),
		P:      uint64(kdf.P),
		Cipher: ct,
	})
}

// open recovers the plaintext of a blob using a key derived from passphrase.
func open(passphrase string, b []byte) ([]byte, error) {
	m, err := codec.DecodeMap("SealedIdentity", b)
	if err != nil {
		return nil, err
	}
	v, err := m.Uint8(0)
	if err != nil {
		return nil, err
	}
	if v > keystoreFormatVersion {
		return nil, fmt.Errorf("store: unsupported keystore version %d", v)
	}
	salt, err := m.FixedBytes(1, saltSize)
	if err != nil {
		return nil, err
	}
	var params [3]int
	for i := range params {
		x, err := m.Uint(uint64(2+i), 1<<30)
		if err != nil {
			return nil, err
		}
		params[i] = int(x)
	}
	ct, err := m.Bytes(5)
	if err != nil {
		return nil, err
	}

	key, err := deriveKey(passphrase, salt, params[0], params[1], params[2])
	if err != nil {
		return nil, err
	}
	defer crypto.Wipe(key)
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	var nonce [chacha20poly1305.NonceSize]byte
	pt, err := aead.Open(nil, nonce[:], ct, salt)
	if err != nil {
		return nil, ErrWrongPassphrase
	}
	return pt, nil
}
