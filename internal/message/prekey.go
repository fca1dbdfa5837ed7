package message

import (
	"axolotl/internal/codec"
	"axolotl/internal/keys"
)

// PreKeyMessage wraps the first CipherMessages of a session with what the
// responder needs to rebuild the handshake.
type PreKeyMessage struct {
	PreKeyID    uint16
	BaseKey     *keys.DHPublicKey
	IdentityKey *keys.IdentityKey
	Message     *CipherMessage
}

// NewPreKeyMessage assembles a PreKeyMessage around msg.
func NewPreKeyMessage(id uint16, base *keys.DHPublicKey, identity *keys.IdentityKey, msg *CipherMessage) *PreKeyMessage {
	return &PreKeyMessage{PreKeyID: id, BaseKey: base, IdentityKey: identity, Message: msg}
}

// Type implements Message.
func (*PreKeyMessage) Type() Type { return TypePreKey }

type preKeyWire struct {
	PreKeyID    uint16            `cbor:"0,keyasint"`
	BaseKey     *keys.DHPublicKey `cbor:"1,keyasint"`
	IdentityKey *keys.IdentityKey `cbor:"2,keyasint"`
	Message     *CipherMessage    `cbor:"3,keyasint"`
}

// MarshalCBOR encodes the map without the type byte.
func (m *PreKeyMessage) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(preKeyWire{
		PreKeyID:    m.PreKeyID,
		BaseKey:     m.BaseKey,
		IdentityKey: m.IdentityKey,
		Message:     m.Message,
	})
}

// Serialise implements Message.
func (m *PreKeyMessage) Serialise() ([]byte, error) {
	b, err := m.MarshalCBOR()
	return withType(TypePreKey, b, err)
}

// DeserialisePreKeyMessage decodes the map form (no type byte).
func DeserialisePreKeyMessage(b []byte) (*PreKeyMessage, error) {
	m, err := codec.DecodeMap("PreKeyMessage", b)
	if err != nil {
		return nil, err
	}
	msg := new(PreKeyMessage)
	if msg.PreKeyID, err = m.Uint16(0); err != nil {
		return nil, err
	}
	raw, err := m.Raw(1)
	if err != nil {
		return nil, err
	}
	if msg.BaseKey, err = keys.DeserialiseDHPublicKey(raw); err != nil {
		return nil, err
	}
	if raw, err = m.Raw(2); err != nil {
		return nil, err
	}
	if msg.IdentityKey, err = keys.DeserialiseIdentityKey(raw); err != nil {
		return nil, err
	}
	if raw, err = m.Raw(3); err != nil {
		return nil, err
	}
	if msg.Message, err = DeserialiseCipherMessage(raw); err != nil {
		return nil, err
	}
	return msg, nil
}
