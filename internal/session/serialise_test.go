package session_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axolotl/internal/codec"
	"axolotl/internal/message"
	"axolotl/internal/session"
)

func TestSerialise_RoundTripContinues(t *testing.T) {
	alice, bob, a, b := establish(t)

	pending := encrypt(t, alice, "in flight")
	skipped := encrypt(t, alice, "skipped")
	decrypt(t, bob, b.store, encrypt(t, alice, "latest"), "latest")

	enc, err := bob.Serialise()
	require.NoError(t, err)

	restored, err := session.Deserialise(b.identity, enc)
	require.NoError(t, err)
	assert.Equal(t, bob.SessionTag(), restored.SessionTag())
	assert.Equal(t, bob.Tags(), restored.Tags())
	assert.True(t, restored.RemoteIdentity().Equal(a.identity.PublicKey))

	again, err := restored.Serialise()
	require.NoError(t, err)
	assert.Equal(t, enc, again)

	// Cached skipped keys survive the round trip.
	decrypt(t, restored, b.store, skipped, "skipped")
	decrypt(t, restored, b.store, pending, "in flight")
	decrypt(t, alice, a.store, encrypt(t, restored, "after restore"), "after restore")
}

func TestSerialise_PendingPreKey(t *testing.T) {
	a := newPeer(t)
	b := newPeer(t, 3)

	alice, err := session.InitFromPreKey(a.identity, b.bundle(t, 3))
	require.NoError(t, err)

	enc, err := alice.Serialise()
	require.NoError(t, err)
	restored, err := session.Deserialise(a.identity, enc)
	require.NoError(t, err)

	require.NotNil(t, restored.PendingPreKey())
	assert.Equal(t, uint16(3), restored.PendingPreKey().PreKeyID)
	assert.True(t, restored.PendingPreKey().BaseKey.Equal(alice.PendingPreKey().BaseKey))

	msg := encrypt(t, restored, "resumed")
	_, ok := msg.(*message.PreKeyMessage)
	require.True(t, ok)

	_, pt, err := session.InitFromMessage(b.identity, b.store, msg)
	require.NoError(t, err)
	assert.Equal(t, "resumed", string(pt))
}

func TestSerialise_LocalIdentityChanged(t *testing.T) {
	_, bob, a, _ := establish(t)

	enc, err := bob.Serialise()
	require.NoError(t, err)

	_, err = session.Deserialise(a.identity, enc)
	require.ErrorIs(t, err, session.ErrLocalIdentityChanged)
	assert.Equal(t, session.SessionUnusable, session.Classify(err))
}

func TestSerialise_TrimsToMaxStates(t *testing.T) {
	a := newPeer(t)
	b := newPeer(t, 1, 2, 3)

	var bob *session.Session
	for _, id := range []uint16{1, 2, 3} {
		s, err := session.InitFromPreKey(a.identity, b.bundle(t, id))
		require.NoError(t, err)
		m := encrypt(t, s, "x")
		if bob == nil {
			bob, _, err = session.InitFromMessage(b.identity, b.store, m)
			require.NoError(t, err)
			continue
		}
		decrypt(t, bob, b.store, m, "x")
	}
	require.Len(t, bob.Tags(), 3)

	enc, err := bob.Serialise()
	require.NoError(t, err)
	restored, err := session.Deserialise(b.identity, enc, session.WithMaxSessionStates(1))
	require.NoError(t, err)
	assert.Equal(t, []message.SessionTag{bob.SessionTag()}, restored.Tags())
}

func TestSerialise_Malformed(t *testing.T) {
	_, bob, _, b := establish(t)
	enc, err := bob.Serialise()
	require.NoError(t, err)

	_, err = session.Deserialise(b.identity, enc[:len(enc)-1])
	require.ErrorIs(t, err, codec.ErrMalformed)

	_, err = session.Deserialise(b.identity, []byte{0xa0})
	require.ErrorIs(t, err, codec.ErrMissingField)
}

func TestState_RoundTrip(t *testing.T) {
	a := newPeer(t)
	b := newPeer(t, 1)

	alice, err := session.InitFromPreKey(a.identity, b.bundle(t, 1))
	require.NoError(t, err)
	_, _, err = session.InitFromMessage(b.identity, b.store, encrypt(t, alice, "x"))
	require.NoError(t, err)

	enc, err := alice.Serialise()
	require.NoError(t, err)
	m, err := codec.DecodeMap("Session", enc)
	require.NoError(t, err)
	items, err := m.Array(5)
	require.NoError(t, err)
	require.Len(t, items, 1)

	entry, err := codec.DecodeMap("TaggedState", items[0])
	require.NoError(t, err)
	raw, err := entry.Raw(1)
	require.NoError(t, err)

	st, err := session.DeserialiseState(raw)
	require.NoError(t, err)
	assert.Len(t, st.RecvChains, 1)
	assert.Equal(t, uint32(1), st.SendChain.ChainKey.Index)
	assert.Equal(t, uint32(0), st.PrevCounter)

	out, err := st.Serialise()
	require.NoError(t, err)
	assert.Equal(t, []byte(raw), out)

	st.Wipe()
	assert.Equal(t, [32]byte{}, st.RootKey.Key)
}
