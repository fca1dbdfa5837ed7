package keys

import (
	"axolotl/internal/codec"
)

const bundleVersion uint8 = 1

// PreKeyAuth is the outcome of checking a bundle signature.
type PreKeyAuth int

const (
	// PreKeyAuthUnknown means the bundle carries no signature.
	PreKeyAuthUnknown PreKeyAuth = iota
	// PreKeyAuthValid means the identity signed the prekey.
	PreKeyAuthValid
	// PreKeyAuthInvalid means a signature is present but does not verify.
	PreKeyAuthInvalid
)

func (a PreKeyAuth) String() string {
	switch a {
	case PreKeyAuthValid:
		return "valid"
	case PreKeyAuthInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// PreKeyBundle is the public part of a prekey as handed to peers.
type PreKeyBundle struct {
	Version     uint8
	PreKeyID    uint16
	PublicKey   *DHPublicKey
	IdentityKey *IdentityKey
	Signature   []byte // nil when unsigned
}

// NewPreKeyBundle builds an unsigned bundle for pk.
func NewPreKeyBundle(identity *IdentityKey, pk *PreKey) *PreKeyBundle {
	return &PreKeyBundle{
		Version:     bundleVersion,
		PreKeyID:    pk.KeyID,
		PublicKey:   pk.KeyPair.PublicKey,
		IdentityKey: identity,
	}
}

// NewSignedPreKeyBundle builds a bundle whose prekey point is signed by the
// identity.
func NewSignedPreKeyBundle(identity *IdentityKeyPair, pk *PreKey) *PreKeyBundle {
	b := NewPreKeyBundle(identity.PublicKey, pk)
	b.Signature = identity.SecretKey.Sign(pk.KeyPair.PublicKey.PubCurve[:])
	return b
}

// Verify checks the bundle signature against its identity key.
func (b *PreKeyBundle) Verify() PreKeyAuth {
	if len(b.Signature) == 0 {
		return PreKeyAuthUnknown
	}
	if b.IdentityKey.Verify(b.Signature, b.PublicKey.PubCurve[:]) {
		return PreKeyAuthValid
	}
	return PreKeyAuthInvalid
}

type preKeyBundleWire struct {
	Version     uint8        `cbor:"0,keyasint"`
	PreKeyID    uint16       `cbor:"1,keyasint"`
	PublicKey   *DHPublicKey `cbor:"2,keyasint"`
	IdentityKey *IdentityKey `cbor:"3,keyasint"`
	Signature   []byte       `cbor:"4,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler.
func (b *PreKeyBundle) MarshalCBOR() ([]byte, error) {
	w := preKeyBundleWire{
		Version:     b.Version,
		PreKeyID:    b.PreKeyID,
		PublicKey:   b.PublicKey,
		IdentityKey: b.IdentityKey,
	}
	if len(b.Signature) > 0 {
		w.Signature = b.Signature
	}
	return codec.Marshal(w)
}

// Serialise encodes b.
func (b *PreKeyBundle) Serialise() ([]byte, error) { return b.MarshalCBOR() }

// DeserialisePreKeyBundle decodes a PreKeyBundle.
func DeserialisePreKeyBundle(data []byte) (*PreKeyBundle, error) {
	m, err := codec.DecodeMap("PreKeyBundle", data)
	if err != nil {
		return nil, err
	}
	b := &PreKeyBundle{Version: bundleVersion}
	if m.Has(0) {
		if b.Version, err = m.Uint8(0); err != nil {
			return nil, err
		}
	}
	if b.PreKeyID, err = m.Uint16(1); err != nil {
		return nil, err
	}
	raw, err := m.Raw(2)
	if err != nil {
		return nil, err
	}
	if b.PublicKey, err = DeserialiseDHPublicKey(raw); err != nil {
		return nil, err
	}
	if raw, err = m.Raw(3); err != nil {
		return nil, err
	}
	if b.IdentityKey, err = DeserialiseIdentityKey(raw); err != nil {
		return nil, err
	}
	if !m.IsNull(4) {
		if b.Signature, err = m.Bytes(4); err != nil {
			return nil, err
		}
	}
	return b, nil
}
