package keys

import (
	"crypto/ed25519"
	"crypto/subtle"
	"fmt"
	"io"

	"axolotl/internal/codec"
	"axolotl/internal/crypto"
)

const (
	// IdentityVersion is written by GenerateIdentityKeyPair.
	IdentityVersion uint8 = 2
	// LegacyIdentityVersion is assumed when a serialised pair has no
	// version field.
	LegacyIdentityVersion uint8 = 1
)

// IdentityPublicKey is the public half of an identity in both forms.
type IdentityPublicKey struct {
	PubEdward [ed25519.PublicKeySize]byte
	PubCurve  [crypto.KeySize]byte
}

// NewIdentityPublicKey builds the dual form from an Ed25519 public key.
func NewIdentityPublicKey(pubEdward []byte) (*IdentityPublicKey, error) {
	if len(pubEdward) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("%w: ed25519 public key is %d bytes", ErrConversion, len(pubEdward))
	}
	pc, err := crypto.Ed25519PublicToCurve(pubEdward)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConversion, err)
	}
	k := &IdentityPublicKey{PubCurve: pc}
	copy(k.PubEdward[:], pubEdward)
	return k, nil
}

// DH returns the curve form for use in key agreement.
func (k *IdentityPublicKey) DH() *DHPublicKey { return NewDHPublicKey(k.PubCurve) }

// Fingerprint returns the hex of the Ed25519 form.
func (k *IdentityPublicKey) Fingerprint() string { return crypto.Fingerprint(k.PubEdward[:]) }

// Equal compares both forms.
func (k *IdentityPublicKey) Equal(o *IdentityPublicKey) bool {
	if k == nil || o == nil {
		return k == o
	}
	ed := subtle.ConstantTimeCompare(k.PubEdward[:], o.PubEdward[:])
	curve := subtle.ConstantTimeCompare(k.PubCurve[:], o.PubCurve[:])
	return ed&curve == 1
}

type identityPublicWire struct {
	PubEdward []byte `cbor:"0,keyasint"`
	PubCurve  []byte `cbor:"1,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler.
func (k *IdentityPublicKey) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(identityPublicWire{PubEdward: k.PubEdward[:], PubCurve: k.PubCurve[:]})
}

// Serialise encodes k.
func (k *IdentityPublicKey) Serialise() ([]byte, error) { return k.MarshalCBOR() }

// DeserialiseIdentityPublicKey decodes an IdentityPublicKey. The Ed25519
// form is required; the curve form is derived when absent and must match
// the derivation when present.
func DeserialiseIdentityPublicKey(b []byte) (*IdentityPublicKey, error) {
	m, err := codec.DecodeMap("IdentityPublicKey", b)
	if err != nil {
		return nil, err
	}
	if !m.Has(0) {
		return nil, fmt.Errorf("%w: IdentityPublicKey is missing its Ed25519 form", ErrConversion)
	}
	pe, err := m.FixedBytes(0, ed25519.PublicKeySize)
	if err != nil {
		return nil, err
	}
	if !m.Has(1) {
		return NewIdentityPublicKey(pe)
	}
	pc, err := m.FixedBytes(1, crypto.KeySize)
	if err != nil {
		return nil, err
	}
	k, err := NewIdentityPublicKey(pe)
	if err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(k.PubCurve[:], pc) != 1 {
		return nil, fmt.Errorf("%w: IdentityPublicKey curve form does not match its Ed25519 form", ErrConversion)
	}
	return k, nil
}

// IdentityKey is a peer's long-term public identity.
type IdentityKey struct {
	PublicKey *IdentityPublicKey
}

// NewIdentityKey wraps pub.
func NewIdentityKey(pub *IdentityPublicKey) *IdentityKey { return &IdentityKey{PublicKey: pub} }

// Fingerprint returns the hex of the Ed25519 form.
func (k *IdentityKey) Fingerprint() string { return k.PublicKey.Fingerprint() }

// Equal compares two identities by their Ed25519 form.
func (k *IdentityKey) Equal(o *IdentityKey) bool {
	if k == nil || o == nil {
		return k == o
	}
	return k.PublicKey.Equal(o.PublicKey)
}

// Verify checks an Ed25519 signature over msg. It never panics; malformed
// signatures report false.
func (k *IdentityKey) Verify(sig, msg []byte) bool {
	return crypto.VerifyEd25519(k.PublicKey.PubEdward[:], msg, sig)
}

type identityKeyWire struct {
	PublicKey *IdentityPublicKey `cbor:"0,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler.
func (k *IdentityKey) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(identityKeyWire{PublicKey: k.PublicKey})
}

// Serialise encodes k.
func (k *IdentityKey) Serialise() ([]byte, error) { return k.MarshalCBOR() }

// DeserialiseIdentityKey decodes an IdentityKey.
func DeserialiseIdentityKey(b []byte) (*IdentityKey, error) {
	m, err := codec.DecodeMap("IdentityKey", b)
	if err != nil {
		return nil, err
	}
	raw, err := m.Raw(0)
	if err != nil {
		return nil, err
	}
	pub, err := DeserialiseIdentityPublicKey(raw)
	if err != nil {
		return nil, err
	}
	return NewIdentityKey(pub), nil
}

// IdentitySecretKey is the secret half of an identity in both forms.
type IdentitySecretKey struct {
	secEdward ed25519.PrivateKey
	secCurve  [crypto.KeySize]byte
}

// NewIdentitySecretKey derives the dual form from an Ed25519 private key.
func NewIdentitySecretKey(secEdward ed25519.PrivateKey) (*IdentitySecretKey, error) {
	if len(secEdward) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("%w: ed25519 private key is %d bytes", ErrConversion, len(secEdward))
	}
	return &IdentitySecretKey{
		secEdward: append(ed25519.PrivateKey(nil), secEdward...),
		secCurve:  crypto.Ed25519PrivateToCurve(secEdward),
	}, nil
}

// Sign returns an Ed25519 signature over msg.
func (k *IdentitySecretKey) Sign(msg []byte) []byte { return crypto.SignEd25519(k.secEdward, msg) }

// DH returns the curve form for use in key agreement.
func (k *IdentitySecretKey) DH() *DHSecretKey { return NewDHSecretKey(k.secCurve) }

// publicEdward returns the public key embedded in the Ed25519 private key.
func (k *IdentitySecretKey) publicEdward() []byte {
	return k.secEdward[ed25519.SeedSize:]
}

// Wipe zeroes both forms.
func (k *IdentitySecretKey) Wipe() {
	if k == nil {
		return
	}
	crypto.Wipe(k.secEdward)
	crypto.WipeKey(&k.secCurve)
}

type identitySecretWire struct {
	SecEdward []byte `cbor:"0,keyasint"`
	SecCurve  []byte `cbor:"1,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler.
func (k *IdentitySecretKey) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(identitySecretWire{SecEdward: k.secEdward, SecCurve: k.secCurve[:]})
}

// Serialise encodes k.
func (k *IdentitySecretKey) Serialise() ([]byte, error) { return k.MarshalCBOR() }

// DeserialiseIdentitySecretKey decodes an IdentitySecretKey. The Ed25519
// form is required; the curve form is derived when absent and must match
// the derivation when present.
func DeserialiseIdentitySecretKey(b []byte) (*IdentitySecretKey, error) {
	m, err := codec.DecodeMap("IdentitySecretKey", b)
	if err != nil {
		return nil, err
	}
	if !m.Has(0) {
		return nil, fmt.Errorf("%w: IdentitySecretKey is missing its Ed25519 form", ErrConversion)
	}
	se, err := m.FixedBytes(0, ed25519.PrivateKeySize)
	if err != nil {
		return nil, err
	}
	k, err := NewIdentitySecretKey(se)
	crypto.Wipe(se)
	if err != nil || !m.Has(1) {
		return k, err
	}
	sc, err := m.FixedBytes(1, crypto.KeySize)
	if err != nil {
		k.Wipe()
		return nil, err
	}
	match := subtle.ConstantTimeCompare(k.secCurve[:], sc)
	crypto.Wipe(sc)
	if match != 1 {
		k.Wipe()
		return nil, fmt.Errorf("%w: IdentitySecretKey curve form does not match its Ed25519 form", ErrConversion)
	}
	return k, nil
}

// IdentityKeyPair is the local long-term identity.
type IdentityKeyPair struct {
	Version   uint8
	SecretKey *IdentitySecretKey
	PublicKey *IdentityKey
}

// GenerateIdentityKeyPair creates a fresh identity from r (crypto/rand when
// nil).
func GenerateIdentityKeyPair(r io.Reader) (*IdentityKeyPair, error) {
	pub, priv, err := crypto.GenerateEd25519(r)
	if err != nil {
		return nil, err
	}
	sk, err := NewIdentitySecretKey(priv)
	crypto.Wipe(priv)
	if err != nil {
		return nil, err
	}
	pk, err := NewIdentityPublicKey(pub)
	if err != nil {
		return nil, err
	}
	return &IdentityKeyPair{Version: IdentityVersion, SecretKey: sk, PublicKey: NewIdentityKey(pk)}, nil
}

// Fingerprint returns the public identity fingerprint.
func (kp *IdentityKeyPair) Fingerprint() string { return kp.PublicKey.Fingerprint() }

// Wipe zeroes the secret half.
func (kp *IdentityKeyPair) Wipe() {
	if kp != nil {
		kp.SecretKey.Wipe()
	}
}

type identityKeyPairWire struct {
	Version   uint8              `cbor:"0,keyasint"`
	SecretKey *IdentitySecretKey `cbor:"1,keyasint"`
	PublicKey *IdentityKey       `cbor:"2,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler.
func (kp *IdentityKeyPair) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(identityKeyPairWire{Version: kp.Version, SecretKey: kp.SecretKey, PublicKey: kp.PublicKey})
}

// Serialise encodes kp.
func (kp *IdentityKeyPair) Serialise() ([]byte, error) { return kp.MarshalCBOR() }

// DeserialiseIdentityKeyPair decodes an IdentityKeyPair and checks that
// the secret and public halves belong together.
func DeserialiseIdentityKeyPair(b []byte) (*IdentityKeyPair, error) {
	m, err := codec.DecodeMap("IdentityKeyPair", b)
	if err != nil {
		return nil, err
	}
	kp := &IdentityKeyPair{Version: LegacyIdentityVersion}
	if m.Has(0) {
		if kp.Version, err = m.Uint8(0); err != nil {
			return nil, err
		}
	}
	raw, err := m.Raw(1)
	if err != nil {
		return nil, err
	}
	if kp.SecretKey, err = DeserialiseIdentitySecretKey(raw); err != nil {
		return nil, err
	}
	if raw, err = m.Raw(2); err != nil {
		return nil, err
	}
	if kp.PublicKey, err = DeserialiseIdentityKey(raw); err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(kp.SecretKey.publicEdward(), kp.PublicKey.PublicKey.PubEdward[:]) != 1 {
		kp.Wipe()
		return nil, fmt.Errorf("%w: identity secret and public keys do not match", ErrInvalidKey)
	}
	return kp, nil
}
