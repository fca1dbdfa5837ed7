package session

import (
	"errors"
	"fmt"

	"axolotl/internal/keys"
	"axolotl/internal/message"
)

// PendingPreKey is what an initiator repeats on every message until the
// peer answers: the prekey it used and its handshake base key.
type PendingPreKey struct {
	PreKeyID uint16
	BaseKey  *keys.DHPublicKey
}

type taggedState struct {
	tag   message.SessionTag
	state *State
}

// Session is the ratchet between the local identity and one remote
// identity.
type Session struct {
	cfg     config
	local   *keys.IdentityKeyPair
	remote  *keys.IdentityKey
	pending *PendingPreKey
	tag     message.SessionTag
	states  []taggedState // most recent first
}

func newSession(cfg config, local *keys.IdentityKeyPair, remote *keys.IdentityKey) *Session {
	return &Session{cfg: cfg, local: local, remote: remote}
}

// InitFromPreKey starts a session as initiator from the peer's bundle.
// Unsigned bundles are accepted; a bundle whose signature does not verify
// fails with ErrInvalidPreKeySignature.
func InitFromPreKey(local *keys.IdentityKeyPair, bundle *keys.PreKeyBundle, opts ...Option) (*Session, error) {
	if bundle.Verify() == keys.PreKeyAuthInvalid {
		return nil, ErrInvalidPreKeySignature
	}
	cfg := newConfig(opts)

	base, err := keys.GenerateDHKeyPair(cfg.rand)
	if err != nil {
		return nil, err
	}
	defer base.SecretKey.Wipe()

	st, err := newInitiatorState(cfg, local, base, bundle)
	if err != nil {
		return nil, fmt.Errorf("session: init from prekey %d: %w", bundle.PreKeyID, err)
	}
	tag, err := message.NewSessionTag(cfg.rand)
	if err != nil {
		st.Wipe()
		return nil, err
	}

	s := newSession(cfg, local, bundle.IdentityKey)
	s.pending = &PendingPreKey{PreKeyID: bundle.PreKeyID, BaseKey: base.PublicKey}
	s.insert(tag, st)
	return s, nil
}

// InitFromMessage starts a session as responder from the peer's first
// message and returns its plaintext. Only a PreKeyMessage can start a
// session. The prekey it names is deleted from store unless it is the
// last-resort prekey.
func InitFromMessage(local *keys.IdentityKeyPair, store PreKeyStore, msg message.Message, opts ...Option) (*Session, []byte, error) {
	pm, ok := msg.(*message.PreKeyMessage)
	if !ok {
		return nil, nil, ErrInvalidMessage
	}
	s := newSession(newConfig(opts), local, pm.IdentityKey)
	pt, err := s.acceptPreKeyMessage(store, pm)
	if err != nil {
		return nil, nil, err
	}
	return s, pt, nil
}

// LocalIdentity returns the local identity key pair.
func (s *Session) LocalIdentity() *keys.IdentityKeyPair { return s.local }

// RemoteIdentity returns the peer's identity key.
func (s *Session) RemoteIdentity() *keys.IdentityKey { return s.remote }

// SessionTag returns the tag new messages are sent under.
func (s *Session) SessionTag() message.SessionTag { return s.tag }

// PendingPreKey returns the prekey data still carried on outgoing messages,
// or nil once the peer has answered.
func (s *Session) PendingPreKey() *PendingPreKey { return s.pending }

// Tags lists the tags of the retained States, most recent first.
func (s *Session) Tags() []message.SessionTag {
	out := make([]message.SessionTag, len(s.states))
	for i, ts := range s.states {
		out[i] = ts.tag
	}
	return out
}

func (s *Session) find(tag message.SessionTag) int {
	for i, ts := range s.states {
		if ts.tag == tag {
			return i
		}
	}
	return -1
}

// insert makes st the sending state under tag, replacing any State with
// the same tag and evicting the oldest beyond the bound.
func (s *Session) insert(tag message.SessionTag, st *State) {
	if i := s.find(tag); i >= 0 {
		s.states[i].state.Wipe()
		s.states = append(s.states[:i], s.states[i+1:]...)
	}
	s.states = append([]taggedState{{tag: tag, state: st}}, s.states...)
	for len(s.states) > s.cfg.maxStates {
		last := len(s.states) - 1
		s.states[last].state.Wipe()
		s.states = s.states[:last]
	}
	s.tag = tag
}

// Encrypt seals plaintext on the sending state. While a prekey is pending
// the result is a PreKeyMessage.
func (s *Session) Encrypt(plaintext []byte) (message.Message, error) {
	i := s.find(s.tag)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrOutdatedSession, s.tag)
	}
	cm, err := s.states[i].state.encrypt(s.tag, plaintext)
	if err != nil {
		return nil, err
	}
	if s.pending != nil {
		base := keys.NewDHPublicKey(s.pending.BaseKey.PubCurve)
		return message.NewPreKeyMessage(s.pending.PreKeyID, base, s.local.PublicKey, cm), nil
	}
	return cm, nil
}

// Decrypt opens msg. A failure leaves the session exactly as it was.
func (s *Session) Decrypt(store PreKeyStore, msg message.Message) ([]byte, error) {
	switch m := msg.(type) {
	case *message.CipherMessage:
		return s.decryptCipher(m)
	case *message.PreKeyMessage:
		if !m.IdentityKey.Equal(s.remote) {
			return nil, fmt.Errorf("%w: got %s, have %s", ErrRemoteIdentityChanged, m.IdentityKey.Fingerprint(), s.remote.Fingerprint())
		}
		pt, err := s.decryptCipher(m.Message)
		if err == nil {
			return pt, nil
		}
		if !errors.Is(err, ErrOutdatedSession) && !errors.Is(err, ErrInvalidSignature) {
			return nil, err
		}
		pt, fallbackErr := s.acceptPreKeyMessage(store, m)
		if fallbackErr != nil && errors.Is(err, ErrInvalidSignature) && errors.Is(fallbackErr, ErrPreKeyNotFound) {
			// The state exists and the prekey is spent: the message itself is bad.
			return nil, err
		}
		return pt, fallbackErr
	default:
		return nil, ErrInvalidMessage
	}
}

func (s *Session) decryptCipher(m *message.CipherMessage) ([]byte, error) {
	i := s.find(m.SessionTag)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", ErrOutdatedSession, m.SessionTag)
	}
	st := s.states[i].state.clone()
	pt, err := st.decrypt(s.cfg, m)
	if err != nil {
		st.Wipe()
		return nil, err
	}
	s.states[i].state.Wipe()
	s.states[i].state = st
	s.pending = nil
	return pt, nil
}

// acceptPreKeyMessage builds a responder State from the named prekey,
// decrypts the embedded message with it and commits it on success.
func (s *Session) acceptPreKeyMessage(store PreKeyStore, m *message.PreKeyMessage) ([]byte, error) {
	pk, err := store.LoadPreKey(m.PreKeyID)
	if err != nil {
		return nil, fmt.Errorf("session: load prekey %d: %w", m.PreKeyID, err)
	}
	if pk == nil {
		return nil, fmt.Errorf("%w: %d", ErrPreKeyNotFound, m.PreKeyID)
	}

	st, err := newResponderState(s.local, pk.KeyPair, m.IdentityKey, m.BaseKey)
	if err != nil {
		return nil, err
	}
	pt, err := st.decrypt(s.cfg, m.Message)
	if err != nil {
		st.Wipe()
		return nil, err
	}
	if !pk.IsLastResort() {
		if err := store.DeletePreKey(pk.KeyID); err != nil {
			st.Wipe()
			return nil, fmt.Errorf("session: delete prekey %d: %w", pk.KeyID, err)
		}
	}
	s.insert(m.Message.SessionTag, st)
	s.pending = nil
	return pt, nil
}
