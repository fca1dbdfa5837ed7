package keys

import (
	"crypto/ed25519"
	"crypto/subtle"
	"fmt"
	"io"

	"axolotl/internal/codec"
	"axolotl/internal/crypto"
)

// DHPublicKey is an X25519 public point.
type DHPublicKey struct {
	PubCurve [crypto.KeySize]byte
}

// NewDHPublicKey wraps a raw X25519 point.
func NewDHPublicKey(pub [crypto.KeySize]byte) *DHPublicKey {
	return &DHPublicKey{PubCurve: pub}
}

// Equal reports whether both keys hold the same point.
func (k *DHPublicKey) Equal(o *DHPublicKey) bool {
	if k == nil || o == nil {
		return k == o
	}
	return subtle.ConstantTimeCompare(k.PubCurve[:], o.PubCurve[:]) == 1
}

// Fingerprint returns the hex of the curve point.
func (k *DHPublicKey) Fingerprint() string { return crypto.Fingerprint(k.PubCurve[:]) }

type dhPublicWire struct {
	PubCurve []byte `cbor:"1,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler.
func (k *DHPublicKey) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(dhPublicWire{PubCurve: k.PubCurve[:]})
}

// Serialise encodes k.
func (k *DHPublicKey) Serialise() ([]byte, error) { return k.MarshalCBOR() }

// DeserialiseDHPublicKey decodes a DHPublicKey. A missing curve form is
// derived from an Ed25519 form at tag 0.
func DeserialiseDHPublicKey(b []byte) (*DHPublicKey, error) {
	m, err := codec.DecodeMap("DHPublicKey", b)
	if err != nil {
		return nil, err
	}
	k := new(DHPublicKey)
	switch {
	case m.Has(1):
		pc, err := m.FixedBytes(1, crypto.KeySize)
		if err != nil {
			return nil, err
		}
		copy(k.PubCurve[:], pc)
	case m.Has(0):
		pe, err := m.FixedBytes(0, ed25519.PublicKeySize)
		if err != nil {
			return nil, err
		}
		if k.PubCurve, err = crypto.Ed25519PublicToCurve(pe); err != nil {
			return nil, fmt.Errorf("%w: DHPublicKey: %w", ErrConversion, err)
		}
	default:
		return nil, fmt.Errorf("%w: DHPublicKey has no key material", ErrConversion)
	}
	return k, nil
}

// DHSecretKey is a clamped X25519 scalar.
type DHSecretKey struct {
	secCurve [crypto.KeySize]byte
}

// NewDHSecretKey wraps a raw scalar.
func NewDHSecretKey(sec [crypto.KeySize]byte) *DHSecretKey {
	return &DHSecretKey{secCurve: sec}
}

// SharedSecret computes the X25519 agreement with pub. An all-zero result
// fails with an error matching both ErrInvalidKey and
// crypto.ErrZeroSharedSecret.
func (k *DHSecretKey) SharedSecret(pub *DHPublicKey) ([crypto.KeySize]byte, error) {
	out, err := crypto.X25519(k.secCurve, pub.PubCurve)
	if err != nil {
		return out, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return out, nil
}

// PublicKey recomputes the matching public point.
func (k *DHSecretKey) PublicKey() *DHPublicKey {
	return NewDHPublicKey(crypto.X25519Base(k.secCurve))
}

// Wipe zeroes the scalar.
func (k *DHSecretKey) Wipe() {
	if k != nil {
		crypto.WipeKey(&k.secCurve)
	}
}

type dhSecretWire struct {
	SecCurve []byte `cbor:"1,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler.
func (k *DHSecretKey) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(dhSecretWire{SecCurve: k.secCurve[:]})
}

// Serialise encodes k.
func (k *DHSecretKey) Serialise() ([]byte, error) { return k.MarshalCBOR() }

// DeserialiseDHSecretKey decodes a DHSecretKey. A missing curve form is
// derived from a 64-byte Ed25519 private key at tag 0.
func DeserialiseDHSecretKey(b []byte) (*DHSecretKey, error) {
	m, err := codec.DecodeMap("DHSecretKey", b)
	if err != nil {
		return nil, err
	}
	k := new(DHSecretKey)
	switch {
	case m.Has(1):
		sc, err := m.FixedBytes(1, crypto.KeySize)
		if err != nil {
			return nil, err
		}
		copy(k.secCurve[:], sc)
		crypto.Wipe(sc)
	case m.Has(0):
		se, err := m.FixedBytes(0, ed25519.PrivateKeySize)
		if err != nil {
			return nil, err
		}
		k.secCurve = crypto.Ed25519PrivateToCurve(ed25519.PrivateKey(se))
		crypto.Wipe(se)
	default:
		return nil, fmt.Errorf("%w: DHSecretKey has no key material", ErrConversion)
	}
	return k, nil
}

// DHKeyPair is an ephemeral X25519 key pair.
type DHKeyPair struct {
	SecretKey *DHSecretKey
	PublicKey *DHPublicKey
}

// GenerateDHKeyPair draws a fresh key pair from r (crypto/rand when nil).
func GenerateDHKeyPair(r io.Reader) (*DHKeyPair, error) {
	priv, pub, err := crypto.GenerateX25519(r)
	if err != nil {
		return nil, err
	}
	kp := &DHKeyPair{SecretKey: NewDHSecretKey(priv), PublicKey: NewDHPublicKey(pub)}
	crypto.WipeKey(&priv)
	return kp, nil
}

// Clone returns a deep copy of kp.
func (kp *DHKeyPair) Clone() *DHKeyPair {
	sk := *kp.SecretKey
	pk := *kp.PublicKey
	return &DHKeyPair{SecretKey: &sk, PublicKey: &pk}
}

// Wipe zeroes the secret half.
func (kp *DHKeyPair) Wipe() {
	if kp != nil {
		kp.SecretKey.Wipe()
	}
}

type dhKeyPairWire struct {
	SecretKey *DHSecretKey `cbor:"0,keyasint"`
	PublicKey *DHPublicKey `cbor:"1,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler.
func (kp *DHKeyPair) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(dhKeyPairWire{SecretKey: kp.SecretKey, PublicKey: kp.PublicKey})
}

// Serialise encodes kp.
func (kp *DHKeyPair) Serialise() ([]byte, error) { return kp.MarshalCBOR() }

// DeserialiseDHKeyPair decodes a DHKeyPair.
func DeserialiseDHKeyPair(b []byte) (*DHKeyPair, error) {
	m, err := codec.DecodeMap("DHKeyPair", b)
	if err != nil {
		return nil, err
	}
	raw, err := m.Raw(0)
	if err != nil {
		return nil, err
	}
	sk, err := DeserialiseDHSecretKey(raw)
	if err != nil {
		return nil, err
	}
	if raw, err = m.Raw(1); err != nil {
		return nil, err
	}
	pk, err := DeserialiseDHPublicKey(raw)
	if err != nil {
		return nil, err
	}
	return &DHKeyPair{SecretKey: sk, PublicKey: pk}, nil
}
