package message

import (
	"axolotl/internal/codec"
	"axolotl/internal/keys"
)

// CipherMessage carries one ratchet-encrypted payload.
type CipherMessage struct {
	SessionTag  SessionTag
	Counter     uint32
	PrevCounter uint32
	RatchetKey  *keys.DHPublicKey
	CipherText  []byte
}

// NewCipherMessage assembles a CipherMessage.
func NewCipherMessage(tag SessionTag, counter, prev uint32, ratchetKey *keys.DHPublicKey, ct []byte) *CipherMessage {
	return &CipherMessage{
		SessionTag:  tag,
		Counter:     counter,
		PrevCounter: prev,
		RatchetKey:  ratchetKey,
		CipherText:  ct,
	}
}

// Type implements Message.
func (*CipherMessage) Type() Type { return TypeCipher }

type cipherWire struct {
	SessionTag  []byte            `cbor:"0,keyasint"`
	Counter     uint32            `cbor:"1,keyasint"`
	PrevCounter uint32            `cbor:"2,keyasint"`
	RatchetKey  *keys.DHPublicKey `cbor:"3,keyasint"`
	CipherText  []byte            `cbor:"4,keyasint"`
}

// MarshalCBOR encodes the map without the type byte.
func (m *CipherMessage) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(cipherWire{
		SessionTag:  m.SessionTag[:],
		Counter:     m.Counter,
		PrevCounter: m.PrevCounter,
		RatchetKey:  m.RatchetKey,
		CipherText:  m.CipherText,
	})
}

// Serialise implements Message.
func (m *CipherMessage) Serialise() ([]byte, error) {
	b, err := m.MarshalCBOR()
	return withType(TypeCipher, b, err)
}

// DeserialiseCipherMessage decodes the map form (no type byte).
func DeserialiseCipherMessage(b []byte) (*CipherMessage, error) {
	m, err := codec.DecodeMap("CipherMessage", b)
	if err != nil {
		return nil, err
	}
	msg := new(CipherMessage)
	tag, err := m.FixedBytes(0, SessionTagSize)
	if err != nil {
		return nil, err
	}
	copy(msg.SessionTag[:], tag)
	if msg.Counter, err = m.Uint32(1); err != nil {
		return nil, err
	}
	if msg.PrevCounter, err = m.Uint32(2); err != nil {
		return nil, err
	}
	raw, err := m.Raw(3)
	if err != nil {
		return nil, err
	}
	if msg.RatchetKey, err = keys.DeserialiseDHPublicKey(raw); err != nil {
		return nil, err
	}
	if msg.CipherText, err = m.Bytes(4); err != nil {
		return nil, err
	}
	return msg, nil
}
