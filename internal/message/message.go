package message

import (
	"errors"
	"fmt"

	"axolotl/internal/codec"
)

// Type identifies the envelope in the first byte of a serialised message.
type Type byte

const (
	TypeCipher Type = 1
	TypePreKey Type = 2
)

func (t Type) String() string {
	switch t {
	case TypeCipher:
		return "cipher"
	case TypePreKey:
		return "prekey"
	default:
		return fmt.Sprintf("type(%d)", byte(t))
	}
}

// ErrUnknownMessageType is returned for a type byte other than 1 or 2.
var ErrUnknownMessageType = errors.New("message: unknown message type")

// Message is either a *CipherMessage or a *PreKeyMessage.
type Message interface {
	// Type returns the envelope type byte.
	Type() Type
	// Serialise encodes the message with its leading type byte.
	Serialise() ([]byte, error)

	isMessage()
}

func (*CipherMessage) isMessage() {}
func (*PreKeyMessage) isMessage() {}

func withType(t Type, body []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	out := make([]byte, 0, len(body)+1)
	out = append(out, byte(t))
	return append(out, body...), nil
}

// Deserialise decodes a message produced by Serialise.
func Deserialise(data []byte) (Message, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty message", codec.ErrMalformed)
	}
	switch Type(data[0]) {
	case TypeCipher:
		return DeserialiseCipherMessage(data[1:])
	case TypePreKey:
		return DeserialisePreKeyMessage(data[1:])
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownMessageType, data[0])
	}
}
