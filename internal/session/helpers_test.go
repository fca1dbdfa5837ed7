package session_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"axolotl/internal/keys"
	"axolotl/internal/message"
	"axolotl/internal/session"
)

type preKeyStore struct {
	prekeys map[uint16]*keys.PreKey
}

func (s *preKeyStore) LoadPreKey(id uint16) (*keys.PreKey, error) { return s.prekeys[id], nil }

func (s *preKeyStore) DeletePreKey(id uint16) error {
	delete(s.prekeys, id)
	return nil
}

type peer struct {
	identity *keys.IdentityKeyPair
	store    *preKeyStore
}

func newPeer(t *testing.T, ids ...uint16) *peer {
	t.Helper()
	id, err := keys.GenerateIdentityKeyPair(nil)
	require.NoError(t, err)
	p := &peer{identity: id, store: &preKeyStore{prekeys: map[uint16]*keys.PreKey{}}}
	for _, i := range ids {
		pk, err := keys.NewPreKey(nil, i)
		require.NoError(t, err)
		p.store.prekeys[i] = pk
	}
	return p
}

func (p *peer) bundle(t *testing.T, id uint16) *keys.PreKeyBundle {
	t.Helper()
	pk, ok := p.store.prekeys[id]
	require.True(t, ok, "no prekey %d", id)
	return keys.NewSignedPreKeyBundle(p.identity, pk)
}

// wire sends msg through its serialised form.
func wire(t *testing.T, msg message.Message) message.Message {
	t.Helper()
	b, err := msg.Serialise()
	require.NoError(t, err)
	out, err := message.Deserialise(b)
	require.NoError(t, err)
	return out
}

func encrypt(t *testing.T, s *session.Session, text string) message.Message {
	t.Helper()
	msg, err := s.Encrypt([]byte(text))
	require.NoError(t, err)
	return wire(t, msg)
}

func decrypt(t *testing.T, s *session.Session, store session.PreKeyStore, msg message.Message, want string) {
	t.Helper()
	pt, err := s.Decrypt(store, msg)
	require.NoError(t, err)
	require.Equal(t, want, string(pt))
}

// establish runs one full exchange so both sides hold a ratcheted session
// and Alice no longer sends PreKeyMessages.
func establish(t *testing.T, opts ...session.Option) (alice, bob *session.Session, a, b *peer) {
	t.Helper()
	a = newPeer(t)
	b = newPeer(t, 1)

	alice, err := session.InitFromPreKey(a.identity, b.bundle(t, 1), opts...)
	require.NoError(t, err)

	bob, pt, err := session.InitFromMessage(b.identity, b.store, encrypt(t, alice, "hello bob"), opts...)
	require.NoError(t, err)
	require.Equal(t, "hello bob", string(pt))

	decrypt(t, alice, a.store, encrypt(t, bob, "hello alice"), "hello alice")
	require.Nil(t, alice.PendingPreKey())
	return alice, bob, a, b
}
