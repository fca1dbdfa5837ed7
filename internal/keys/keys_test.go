package keys_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"axolotl/internal/codec"
	"axolotl/internal/crypto"
	"axolotl/internal/keys"
)

const (
	fixtureEdward = "e2c9de21276b2890b03d64acbb4be2bb38e05daca03b170559879396ba23fbf4"
	fixtureCurve  = "efff40a940b5ae498c3bee844eb47ca81f566d898f856386c41530c2e4398f61"
	fixtureDH     = "31e4527395ff26e5124c23ee15c58aafb7a429732eca187e4a2c9390b617302e"
)

func unhex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func TestDHPublicKey_Fixture(t *testing.T) {
	enc := unhex(t, "a1015820"+fixtureDH)
	k, err := keys.DeserialiseDHPublicKey(enc)
	require.NoError(t, err)
	assert.Equal(t, fixtureDH, k.Fingerprint())

	out, err := k.Serialise()
	require.NoError(t, err)
	assert.Equal(t, enc, out)
}

func TestDHPublicKey_DerivedFromEdward(t *testing.T) {
	k, err := keys.DeserialiseDHPublicKey(unhex(t, "a1005820"+fixtureEdward))
	require.NoError(t, err)
	assert.Equal(t, fixtureCurve, k.Fingerprint())
}

func TestDHPublicKey_NoMaterial(t *testing.T) {
	_, err := keys.DeserialiseDHPublicKey(unhex(t, "a0"))
	require.ErrorIs(t, err, keys.ErrConversion)

	_, err = keys.DeserialiseDHPublicKey(unhex(t, "a1014101"))
	require.ErrorIs(t, err, codec.ErrInvalidField)
}

func TestDHKeyPair_SharedSecret(t *testing.T) {
	a, err := keys.GenerateDHKeyPair(nil)
	require.NoError(t, err)
	b, err := keys.GenerateDHKeyPair(nil)
	require.NoError(t, err)

	ab, err := a.SecretKey.SharedSecret(b.PublicKey)
	require.NoError(t, err)
	ba, err := b.SecretKey.SharedSecret(a.PublicKey)
	require.NoError(t, err)
	require.Equal(t, ab, ba)
	require.NotEqual(t, [crypto.KeySize]byte{}, ab)
	assert.True(t, a.SecretKey.PublicKey().Equal(a.PublicKey))
}

func TestDHKeyPair_ZeroSharedSecret(t *testing.T) {
	a, err := keys.GenerateDHKeyPair(nil)
	require.NoError(t, err)

	_, err = a.SecretKey.SharedSecret(keys.NewDHPublicKey([crypto.KeySize]byte{}))
	require.ErrorIs(t, err, keys.ErrInvalidKey)
	require.ErrorIs(t, err, crypto.ErrZeroSharedSecret)
}

func TestDHKeyPair_RoundTrip(t *testing.T) {
	kp, err := keys.GenerateDHKeyPair(nil)
	require.NoError(t, err)

	enc, err := kp.Serialise()
	require.NoError(t, err)
	got, err := keys.DeserialiseDHKeyPair(enc)
	require.NoError(t, err)
	again, err := got.Serialise()
	require.NoError(t, err)
	assert.Equal(t, enc, again)
	assert.True(t, got.PublicKey.Equal(kp.PublicKey))
}

func TestDHKeyPair_CloneIsIndependent(t *testing.T) {
	kp, err := keys.GenerateDHKeyPair(nil)
	require.NoError(t, err)
	c := kp.Clone()
	kp.Wipe()

	assert.True(t, c.SecretKey.PublicKey().Equal(c.PublicKey))
}

func TestDHSecretKey_DerivedFromEdward(t *testing.T) {
	id, err := keys.GenerateIdentityKeyPair(nil)
	require.NoError(t, err)
	enc, err := id.SecretKey.Serialise()
	require.NoError(t, err)

	m, err := codec.DecodeMap("IdentitySecretKey", enc)
	require.NoError(t, err)
	edRaw, err := m.Raw(0)
	require.NoError(t, err)

	// {0: sec_edward} only: the curve scalar is derived.
	onlyEdward := append([]byte{0xa1, 0x00}, edRaw...)
	sk, err := keys.DeserialiseDHSecretKey(onlyEdward)
	require.NoError(t, err)
	assert.Equal(t, id.PublicKey.PublicKey.PubCurve, sk.PublicKey().PubCurve)
}

func TestIdentityPublicKey_Fixture(t *testing.T) {
	enc := unhex(t, "a2005820"+fixtureEdward+"015820"+fixtureCurve)
	k, err := keys.DeserialiseIdentityPublicKey(enc)
	require.NoError(t, err)
	assert.Equal(t, fixtureEdward, k.Fingerprint())

	out, err := k.Serialise()
	require.NoError(t, err)
	assert.Equal(t, enc, out)
}

func TestIdentityPublicKey_CurveRecomputed(t *testing.T) {
	k, err := keys.DeserialiseIdentityPublicKey(unhex(t, "a1005820"+fixtureEdward))
	require.NoError(t, err)
	assert.Equal(t, fixtureCurve, hex.EncodeToString(k.PubCurve[:]))
}

func TestIdentityPublicKey_CurveOnlyRejected(t *testing.T) {
	_, err := keys.DeserialiseIdentityPublicKey(unhex(t, "a1015820"+fixtureCurve))
	require.ErrorIs(t, err, keys.ErrConversion)
}

func TestIdentityPublicKey_MismatchedCurveRejected(t *testing.T) {
	_, err := keys.DeserialiseIdentityPublicKey(unhex(t, "a2005820"+fixtureEdward+"015820"+fixtureDH))
	require.ErrorIs(t, err, keys.ErrConversion)

	_, err = keys.DeserialiseIdentityKey(unhex(t, "a100a2005820"+fixtureEdward+"015820"+fixtureDH))
	require.ErrorIs(t, err, keys.ErrConversion)
}

func TestIdentityPublicKey_EqualComparesBothForms(t *testing.T) {
	a, err := keys.DeserialiseIdentityPublicKey(unhex(t, "a1005820"+fixtureEdward))
	require.NoError(t, err)
	b := *a
	assert.True(t, a.Equal(&b))

	b.PubCurve[0] ^= 0xff
	assert.False(t, a.Equal(&b))
}

func TestIdentityKeyPair_Generate(t *testing.T) {
	kp, err := keys.GenerateIdentityKeyPair(nil)
	require.NoError(t, err)
	assert.Equal(t, keys.IdentityVersion, kp.Version)

	pub := kp.PublicKey.PublicKey
	derived, err := crypto.Ed25519PublicToCurve(pub.PubEdward[:])
	require.NoError(t, err)
	assert.Equal(t, pub.PubCurve, derived)
	assert.True(t, kp.SecretKey.DH().PublicKey().Equal(pub.DH()))
}

func TestIdentityKeyPair_RoundTrip(t *testing.T) {
	kp, err := keys.GenerateIdentityKeyPair(nil)
	require.NoError(t, err)

	enc, err := kp.Serialise()
	require.NoError(t, err)
	assert.Equal(t, "a30002", hex.EncodeToString(enc[:3]))

	got, err := keys.DeserialiseIdentityKeyPair(enc)
	require.NoError(t, err)
	again, err := got.Serialise()
	require.NoError(t, err)
	assert.Equal(t, enc, again)
	assert.Equal(t, kp.Fingerprint(), got.Fingerprint())
}

func TestIdentityKey_RoundTrip(t *testing.T) {
	kp, err := keys.GenerateIdentityKeyPair(nil)
	require.NoError(t, err)

	enc, err := kp.PublicKey.Serialise()
	require.NoError(t, err)
	got, err := keys.DeserialiseIdentityKey(enc)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicKey.Fingerprint(), got.Fingerprint())

	again, err := got.Serialise()
	require.NoError(t, err)
	assert.Equal(t, enc, again)
}

func TestIdentitySecretKey_RoundTrip(t *testing.T) {
	kp, err := keys.GenerateIdentityKeyPair(nil)
	require.NoError(t, err)

	enc, err := kp.SecretKey.Serialise()
	require.NoError(t, err)
	got, err := keys.DeserialiseIdentitySecretKey(enc)
	require.NoError(t, err)
	again, err := got.Serialise()
	require.NoError(t, err)
	assert.Equal(t, enc, again)
}

func TestIdentitySecretKey_CurveOnlyRejected(t *testing.T) {
	_, err := keys.DeserialiseIdentitySecretKey(unhex(t, "a1015820"+fixtureDH))
	require.ErrorIs(t, err, keys.ErrConversion)
}

func TestIdentitySecretKey_MismatchedCurveRejected(t *testing.T) {
	id, err := keys.GenerateIdentityKeyPair(nil)
	require.NoError(t, err)
	enc, err := id.SecretKey.Serialise()
	require.NoError(t, err)

	m, err := codec.DecodeMap("IdentitySecretKey", enc)
	require.NoError(t, err)
	edRaw, err := m.Raw(0)
	require.NoError(t, err)

	// {0: sec_edward, 1: someone else's scalar}
	mixed := append([]byte{0xa2, 0x00}, edRaw...)
	mixed = append(mixed, unhex(t, "015820"+fixtureDH)...)
	_, err = keys.DeserialiseIdentitySecretKey(mixed)
	require.ErrorIs(t, err, keys.ErrConversion)
}

func TestIdentityKeyPair_MismatchedHalves(t *testing.T) {
	a, err := keys.GenerateIdentityKeyPair(nil)
	require.NoError(t, err)
	b, err := keys.GenerateIdentityKeyPair(nil)
	require.NoError(t, err)

	mixed := &keys.IdentityKeyPair{Version: keys.IdentityVersion, SecretKey: a.SecretKey, PublicKey: b.PublicKey}
	enc, err := mixed.Serialise()
	require.NoError(t, err)

	_, err = keys.DeserialiseIdentityKeyPair(enc)
	require.ErrorIs(t, err, keys.ErrInvalidKey)
}

func TestIdentityKey_Verify(t *testing.T) {
	kp, err := keys.GenerateIdentityKeyPair(nil)
	require.NoError(t, err)

	msg := []byte("hello")
	sig := kp.SecretKey.Sign(msg)
	assert.True(t, kp.PublicKey.Verify(sig, msg))
	assert.False(t, kp.PublicKey.Verify(sig, []byte("hellO")))
	assert.False(t, kp.PublicKey.Verify([]byte{1, 2, 3}, msg))
	assert.False(t, kp.PublicKey.Verify(nil, msg))
}

func TestPreKey_RoundTrip(t *testing.T) {
	pk, err := keys.NewPreKey(nil, 42)
	require.NoError(t, err)
	assert.False(t, pk.IsLastResort())

	enc, err := pk.Serialise()
	require.NoError(t, err)
	assert.Equal(t, "a3000101182a", hex.EncodeToString(enc[:6]))

	got, err := keys.DeserialisePreKey(enc)
	require.NoError(t, err)
	assert.Equal(t, uint16(42), got.KeyID)
	assert.True(t, got.KeyPair.PublicKey.Equal(pk.KeyPair.PublicKey))
}

func TestPreKey_LastResortAndWrap(t *testing.T) {
	lr, err := keys.NewLastResortPreKey(nil)
	require.NoError(t, err)
	assert.True(t, lr.IsLastResort())

	batch, err := keys.GeneratePreKeys(nil, keys.MaxPreKeyID-2, 4)
	require.NoError(t, err)
	ids := make([]uint16, 0, len(batch))
	for _, pk := range batch {
		ids = append(ids, pk.KeyID)
	}
	assert.Equal(t, []uint16{keys.MaxPreKeyID - 2, keys.MaxPreKeyID - 1, 0, 1}, ids)
}

func TestPreKeyBundle_Verify(t *testing.T) {
	id, err := keys.GenerateIdentityKeyPair(nil)
	require.NoError(t, err)
	pk, err := keys.NewPreKey(nil, 7)
	require.NoError(t, err)

	unsigned := keys.NewPreKeyBundle(id.PublicKey, pk)
	assert.Equal(t, keys.PreKeyAuthUnknown, unsigned.Verify())

	signed := keys.NewSignedPreKeyBundle(id, pk)
	assert.Equal(t, keys.PreKeyAuthValid, signed.Verify())

	other, err := keys.NewPreKey(nil, 7)
	require.NoError(t, err)
	signed.PublicKey = other.KeyPair.PublicKey
	assert.Equal(t, keys.PreKeyAuthInvalid, signed.Verify())
}

func TestPreKeyBundle_RoundTrip(t *testing.T) {
	id, err := keys.GenerateIdentityKeyPair(nil)
	require.NoError(t, err)
	pk, err := keys.NewPreKey(nil, 300)
	require.NoError(t, err)

	for _, b := range []*keys.PreKeyBundle{
		keys.NewPreKeyBundle(id.PublicKey, pk),
		keys.NewSignedPreKeyBundle(id, pk),
	} {
		enc, err := b.Serialise()
		require.NoError(t, err)
		if b.Signature == nil {
			assert.Equal(t, byte(0xf6), enc[len(enc)-1])
		}

		got, err := keys.DeserialisePreKeyBundle(enc)
		require.NoError(t, err)
		assert.Equal(t, b.Verify(), got.Verify())
		assert.Equal(t, uint16(300), got.PreKeyID)
		assert.True(t, got.IdentityKey.Equal(id.PublicKey))

		again, err := got.Serialise()
		require.NoError(t, err)
		assert.Equal(t, enc, again)
	}
}
