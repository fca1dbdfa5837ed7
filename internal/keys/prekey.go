package keys

import (
	"fmt"
	"io"

	"axolotl/internal/codec"
)

const (
	// MaxPreKeyID is reserved for the last-resort prekey, which is never
	// deleted after use.
	MaxPreKeyID uint16 = 0xFFFF

	preKeyVersion uint8 = 1
)

// PreKey is a published-once DH key pair a peer can start a session with.
type PreKey struct {
	Version uint8
	KeyID   uint16
	KeyPair *DHKeyPair
}

// NewPreKey generates a prekey with the given id.
func NewPreKey(r io.Reader, id uint16) (*PreKey, error) {
	kp, err := GenerateDHKeyPair(r)
	if err != nil {
		return nil, err
	}
	return &PreKey{Version: preKeyVersion, KeyID: id, KeyPair: kp}, nil
}

// NewLastResortPreKey generates the prekey with id MaxPreKeyID.
func NewLastResortPreKey(r io.Reader) (*PreKey, error) {
	return NewPreKey(r, MaxPreKeyID)
}

// GeneratePreKeys generates n prekeys with consecutive ids from start,
// wrapping before MaxPreKeyID so the last-resort id is never reused.
func GeneratePreKeys(r io.Reader, start uint16, n int) ([]*PreKey, error) {
	out := make([]*PreKey, 0, n)
	for i := 0; i < n; i++ {
		id := uint16((int(start) + i) % int(MaxPreKeyID))
		pk, err := NewPreKey(r, id)
		if err != nil {
			return nil, err
		}
		out = append(out, pk)
	}
	return out, nil
}

// IsLastResort reports whether pk must survive being used.
func (pk *PreKey) IsLastResort() bool { return pk.KeyID == MaxPreKeyID }

type preKeyWire struct {
	Version uint8      `cbor:"0,keyasint"`
	KeyID   uint16     `cbor:"1,keyasint"`
	KeyPair *DHKeyPair `cbor:"2,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler.
func (pk *PreKey) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(preKeyWire{Version: pk.Version, KeyID: pk.KeyID, KeyPair: pk.KeyPair})
}

// Serialise encodes pk.
func (pk *PreKey) Serialise() ([]byte, error) { return pk.MarshalCBOR() }

// DeserialisePreKey decodes a PreKey.
func DeserialisePreKey(b []byte) (*PreKey, error) {
	m, err := codec.DecodeMap("PreKey", b)
	if err != nil {
		return nil, err
	}
	pk := &PreKey{Version: preKeyVersion}
	if m.Has(0) {
		if pk.Version, err = m.Uint8(0); err != nil {
			return nil, err
		}
	}
	if pk.KeyID, err = m.Uint16(1); err != nil {
		return nil, err
	}
	raw, err := m.Raw(2)
	if err != nil {
		return nil, err
	}
	if pk.KeyPair, err = DeserialiseDHKeyPair(raw); err != nil {
		return nil, fmt.Errorf("prekey %d: %w", pk.KeyID, err)
	}
	return pk, nil
}
