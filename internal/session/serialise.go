package session

import (
	"fmt"

	"axolotl/internal/codec"
	"axolotl/internal/keys"
	"axolotl/internal/message"
)

const sessionVersion uint8 = 1

type pendingWire struct {
	PreKeyID uint16            `cbor:"0,keyasint"`
	BaseKey  *keys.DHPublicKey `cbor:"1,keyasint"`
}

type taggedStateWire struct {
	Tag   []byte `cbor:"0,keyasint"`
	State *State `cbor:"1,keyasint"`
}

type sessionWire struct {
	Version uint8             `cbor:"0,keyasint"`
	Tag     []byte            `cbor:"1,keyasint"`
	Local   *keys.IdentityKey `cbor:"2,keyasint"`
	Remote  *keys.IdentityKey `cbor:"3,keyasint"`
	Pending *pendingWire      `cbor:"4,keyasint"`
	States  []taggedStateWire `cbor:"5,keyasint"`
}

// Serialise encodes the session, including every retained State.
func (s *Session) Serialise() ([]byte, error) {
	w := sessionWire{
		Version: sessionVersion,
		Tag:     append([]byte(nil), s.tag[:]...),
		Local:   s.local.PublicKey,
		Remote:  s.remote,
		States:  make([]taggedStateWire, len(s.states)),
	}
	if s.pending != nil {
		w.Pending = &pendingWire{PreKeyID: s.pending.PreKeyID, BaseKey: s.pending.BaseKey}
	}
	for i, ts := range s.states {
		w.States[i] = taggedStateWire{Tag: append([]byte(nil), ts.tag[:]...), State: ts.state}
	}
	return codec.Marshal(w)
}

// Deserialise decodes a session written by Serialise. The stored local
// identity must match local, otherwise ErrLocalIdentityChanged is
// returned.
func Deserialise(local *keys.IdentityKeyPair, data []byte, opts ...Option) (*Session, error) {
	m, err := codec.DecodeMap("Session", data)
	if err != nil {
		return nil, err
	}
	version, err := m.Uint8(0)
	if err != nil {
		return nil, err
	}
	if version != sessionVersion {
		return nil, fmt.Errorf("%w: Session version %d", codec.ErrInvalidField, version)
	}

	raw, err := m.Raw(2)
	if err != nil {
		return nil, err
	}
	storedLocal, err := keys.DeserialiseIdentityKey(raw)
	if err != nil {
		return nil, err
	}
	if !storedLocal.Equal(local.PublicKey) {
		return nil, fmt.Errorf("%w: session belongs to %s", ErrLocalIdentityChanged, storedLocal.Fingerprint())
	}
	if raw, err = m.Raw(3); err != nil {
		return nil, err
	}
	remote, err := keys.DeserialiseIdentityKey(raw)
	if err != nil {
		return nil, err
	}

	s := newSession(newConfig(opts), local, remote)
	tagBytes, err := m.FixedBytes(1, message.SessionTagSize)
	if err != nil {
		return nil, err
	}
	copy(s.tag[:], tagBytes)

	if !m.IsNull(4) {
		if raw, err = m.Raw(4); err != nil {
			return nil, err
		}
		if s.pending, err = deserialisePending(raw); err != nil {
			return nil, err
		}
	}

	items, err := m.Array(5)
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		ts, err := deserialiseTaggedState(it)
		if err != nil {
			s.Wipe()
			return nil, err
		}
		if s.find(ts.tag) >= 0 {
			ts.state.Wipe()
			s.Wipe()
			return nil, fmt.Errorf("%w: duplicate session tag %s", codec.ErrInvalidField, ts.tag)
		}
		s.states = append(s.states, ts)
	}
	if s.find(s.tag) < 0 {
		s.Wipe()
		return nil, fmt.Errorf("%w: sending tag %s has no state", codec.ErrInvalidField, s.tag)
	}
	for len(s.states) > s.cfg.maxStates {
		last := len(s.states) - 1
		if s.states[last].tag == s.tag {
			break
		}
		s.states[last].state.Wipe()
		s.states = s.states[:last]
	}
	return s, nil
}

func deserialisePending(b []byte) (*PendingPreKey, error) {
	m, err := codec.DecodeMap("PendingPreKey", b)
	if err != nil {
		return nil, err
	}
	p := new(PendingPreKey)
	if p.PreKeyID, err = m.Uint16(0); err != nil {
		return nil, err
	}
	raw, err := m.Raw(1)
	if err != nil {
		return nil, err
	}
	if p.BaseKey, err = keys.DeserialiseDHPublicKey(raw); err != nil {
		return nil, err
	}
	return p, nil
}

func deserialiseTaggedState(b []byte) (taggedState, error) {
	var ts taggedState
	m, err := codec.DecodeMap("TaggedState", b)
	if err != nil {
		return ts, err
	}
	tag, err := m.FixedBytes(0, message.SessionTagSize)
	if err != nil {
		return ts, err
	}
	copy(ts.tag[:], tag)
	raw, err := m.Raw(1)
	if err != nil {
		return ts, err
	}
	if ts.state, err = DeserialiseState(raw); err != nil {
		return ts, err
	}
	return ts, nil
}

// Wipe zeroes the key material of every retained State. The Session is
// unusable afterwards.
func (s *Session) Wipe() {
	for _, ts := range s.states {
		ts.state.Wipe()
	}
	s.states = nil
}
