package ratchet_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axolotl/internal/codec"
	"axolotl/internal/keys"
	"axolotl/internal/protocol/ratchet"
)

func TestChainKey_NextAdvancesAndDiffers(t *testing.T) {
	_, ck := ratchet.Handshake(bytes.Repeat([]byte{0x42}, 96))

	seen := map[[ratchet.KeySize]byte]bool{}
	for i := uint32(0); i < 8; i++ {
		require.Equal(t, i, ck.Index)
		mk := ck.MessageKeys()
		assert.Equal(t, i, mk.Counter)
		assert.False(t, seen[mk.Key], "message key repeated at %d", i)
		seen[mk.Key] = true

		next, err := ck.Next()
		require.NoError(t, err)
		assert.NotEqual(t, ck.Key, next.Key)
		ck = next
	}
}

func TestChainKey_Deterministic(t *testing.T) {
	rk1, ck1 := ratchet.Handshake([]byte("same input"))
	rk2, ck2 := ratchet.Handshake([]byte("same input"))
	assert.Equal(t, rk1, rk2)
	assert.Equal(t, ck1, ck2)
	assert.NotEqual(t, rk1.Key, ck1.Key)
}

func TestChainKey_Exhausted(t *testing.T) {
	ck := ratchet.ChainKey{Index: math.MaxUint32}
	_, err := ck.Next()
	require.ErrorIs(t, err, ratchet.ErrChainExhausted)
}

func TestRootKey_DHRatchetAgrees(t *testing.T) {
	a, err := keys.GenerateDHKeyPair(nil)
	require.NoError(t, err)
	b, err := keys.GenerateDHKeyPair(nil)
	require.NoError(t, err)

	rk, _ := ratchet.Handshake([]byte("root"))
	rkA, ckA, err := rk.DHRatchet(a.SecretKey, b.PublicKey)
	require.NoError(t, err)
	rkB, ckB, err := rk.DHRatchet(b.SecretKey, a.PublicKey)
	require.NoError(t, err)

	assert.Equal(t, rkA, rkB)
	assert.Equal(t, ckA, ckB)
	assert.Equal(t, uint32(0), ckA.Index)
	assert.NotEqual(t, rk, rkA)
}

func TestRootKey_DHRatchetRejectsLowOrder(t *testing.T) {
	a, err := keys.GenerateDHKeyPair(nil)
	require.NoError(t, err)

	rk, _ := ratchet.Handshake([]byte("root"))
	_, _, err = rk.DHRatchet(a.SecretKey, keys.NewDHPublicKey([32]byte{}))
	require.ErrorIs(t, err, keys.ErrInvalidKey)
}

func TestMessageKeys_SealOpen(t *testing.T) {
	_, ck := ratchet.Handshake([]byte("seal"))
	mk := ck.MessageKeys()
	ad := []byte("header")

	ct, err := mk.Seal([]byte("hello"), ad)
	require.NoError(t, err)

	pt, err := mk.Open(ct, ad)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), pt)

	_, err = mk.Open(ct, []byte("other"))
	require.ErrorIs(t, err, ratchet.ErrDecrypt)

	ct[0] ^= 1
	_, err = mk.Open(ct, ad)
	require.ErrorIs(t, err, ratchet.ErrDecrypt)
}

func TestMessageKeys_CounterInNonce(t *testing.T) {
	_, ck := ratchet.Handshake([]byte("nonce"))
	mk := ck.MessageKeys()
	ct, err := mk.Seal([]byte("x"), nil)
	require.NoError(t, err)

	other := mk
	other.Counter++
	_, err = other.Open(ct, nil)
	require.ErrorIs(t, err, ratchet.ErrDecrypt)
}

func TestKeys_RoundTrip(t *testing.T) {
	rk, ck := ratchet.Handshake([]byte("wire"))
	ck, err := ck.Next()
	require.NoError(t, err)
	mk := ck.MessageKeys()

	b, err := codec.Marshal(rk)
	require.NoError(t, err)
	gotRK, err := ratchet.DeserialiseRootKey(b)
	require.NoError(t, err)
	assert.Equal(t, rk, gotRK)

	b, err = codec.Marshal(ck)
	require.NoError(t, err)
	gotCK, err := ratchet.DeserialiseChainKey(b)
	require.NoError(t, err)
	assert.Equal(t, ck, gotCK)

	b, err = codec.Marshal(mk)
	require.NoError(t, err)
	gotMK, err := ratchet.DeserialiseMessageKeys(b)
	require.NoError(t, err)
	assert.Equal(t, mk, gotMK)
}

func TestKeys_ShortKeyRejected(t *testing.T) {
	// {0: h'0102', 1: 0}
	_, err := ratchet.DeserialiseChainKey([]byte{0xa2, 0x00, 0x42, 0x01, 0x02, 0x01, 0x00})
	require.ErrorIs(t, err, codec.ErrInvalidField)
}

func TestKeys_Wipe(t *testing.T) {
	rk, ck := ratchet.Handshake([]byte("wipe"))
	mk := ck.MessageKeys()
	rk.Wipe()
	ck.Wipe()
	mk.Wipe()
	assert.Equal(t, [ratchet.KeySize]byte{}, rk.Key)
	assert.Equal(t, [ratchet.KeySize]byte{}, ck.Key)
	assert.Equal(t, [ratchet.KeySize]byte{}, mk.Key)
}
