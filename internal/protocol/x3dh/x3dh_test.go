package x3dh_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axolotl/internal/crypto"
	"axolotl/internal/keys"
	"axolotl/internal/protocol/x3dh"
)

type party struct {
	identity *keys.IdentityKeyPair
	dh       *keys.DHKeyPair
}

func newParty(t *testing.T) party {
	t.Helper()
	id, err := keys.GenerateIdentityKeyPair(nil)
	require.NoError(t, err)
	kp, err := keys.GenerateDHKeyPair(nil)
	require.NoError(t, err)
	return party{identity: id, dh: kp}
}

func TestHandshake_BothSidesAgree(t *testing.T) {
	alice := newParty(t) // dh is the base key
	bob := newParty(t)   // dh is the prekey

	rkA, ckA, err := x3dh.Initiator(alice.identity, alice.dh, bob.identity.PublicKey, bob.dh.PublicKey)
	require.NoError(t, err)
	rkB, ckB, err := x3dh.Responder(bob.identity, bob.dh, alice.identity.PublicKey, alice.dh.PublicKey)
	require.NoError(t, err)

	assert.Equal(t, rkA, rkB)
	assert.Equal(t, ckA, ckB)
	assert.Equal(t, uint32(0), ckA.Index)
}

func TestHandshake_WrongIdentityDiverges(t *testing.T) {
	alice := newParty(t)
	bob := newParty(t)
	mallory := newParty(t)

	rkA, _, err := x3dh.Initiator(alice.identity, alice.dh, bob.identity.PublicKey, bob.dh.PublicKey)
	require.NoError(t, err)
	rkB, _, err := x3dh.Responder(bob.identity, bob.dh, mallory.identity.PublicKey, alice.dh.PublicKey)
	require.NoError(t, err)

	assert.NotEqual(t, rkA, rkB)
}

func TestHandshake_LowOrderPreKey(t *testing.T) {
	alice := newParty(t)
	bob := newParty(t)

	_, _, err := x3dh.Initiator(alice.identity, alice.dh, bob.identity.PublicKey, keys.NewDHPublicKey([32]byte{}))
	require.ErrorIs(t, err, keys.ErrInvalidKey)
	require.ErrorIs(t, err, crypto.ErrZeroSharedSecret)
}
