// Package keys implements the key hierarchy: ephemeral X25519 key pairs,
// long-term identities with a dual Ed25519/Curve25519 form, and the prekeys
// and prekey bundles used to bootstrap sessions.
//
// # Dual form
//
// An identity key is an Ed25519 key. Its Curve25519 image is computed once,
// at generation or decode time, and stored next to it; the Ed25519 form is
// canonical. When decoding, a stored curve form is used as-is and only a
// missing one is derived. The same rule applies to DH public and secret keys.
// Input that carries a curve form but no Ed25519 form is rejected for
// identity keys with ErrConversion, because the signing half cannot be
// recovered.
//
// # Encoding
//
// Every type has Serialise and a matching Deserialise function producing the
// integer-keyed maps of package codec:
//
//	DHPublicKey        {1: pub_curve}
//	DHSecretKey        {1: sec_curve}
//	DHKeyPair          {0: secret, 1: public}
//	IdentityPublicKey  {0: pub_edward, 1: pub_curve}
//	IdentityKey        {0: IdentityPublicKey}
//	IdentitySecretKey  {0: sec_edward, 1: sec_curve}
//	IdentityKeyPair    {0: version, 1: secret, 2: public}
//	PreKey             {0: version, 1: key_id, 2: key_pair}
//	PreKeyBundle       {0: version, 1: prekey_id, 2: public_key,
//	                    3: identity_key, 4: signature | null}
//
// The types also implement cbor.Marshaler so they nest inside other
// schemas.
package keys
