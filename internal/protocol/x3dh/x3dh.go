package x3dh

import (
	"fmt"

	"axolotl/internal/crypto"
	"axolotl/internal/keys"
	"axolotl/internal/protocol/ratchet"
)

// Initiator derives the handshake keys for the side that fetched the bundle.
func Initiator(
	ours *keys.IdentityKeyPair,
	base *keys.DHKeyPair,
	peerIdentity *keys.IdentityKey,
	peerPreKey *keys.DHPublicKey,
) (ratchet.RootKey, ratchet.ChainKey, error) {
	identity := ours.SecretKey.DH()
	defer identity.Wipe()

	return derive(
		agreement{"DH(IKa, PKb)", identity, peerPreKey},
		agreement{"DH(EKa, IKb)", base.SecretKey, peerIdentity.PublicKey.DH()},
		agreement{"DH(EKa, PKb)", base.SecretKey, peerPreKey},
	)
}

// Responder derives the handshake keys for the side that published the
// prekey.
func Responder(
	ours *keys.IdentityKeyPair,
	preKey *keys.DHKeyPair,
	peerIdentity *keys.IdentityKey,
	peerBase *keys.DHPublicKey,
) (ratchet.RootKey, ratchet.ChainKey, error) {
	identity := ours.SecretKey.DH()
	defer identity.Wipe()

	return derive(
		agreement{"DH(PKb, IKa)", preKey.SecretKey, peerIdentity.PublicKey.DH()},
		agreement{"DH(IKb, EKa)", identity, peerBase},
		agreement{"DH(PKb, EKa)", preKey.SecretKey, peerBase},
	)
}

type agreement struct {
	label  string
	secret *keys.DHSecretKey
	public *keys.DHPublicKey
}

func derive(steps ...agreement) (ratchet.RootKey, ratchet.ChainKey, error) {
	master := make([]byte, 0, len(steps)*crypto.KeySize)
	defer func() { crypto.Wipe(master) }()

	for _, s := range steps {
		ss, err := s.secret.SharedSecret(s.public)
		if err != nil {
			return ratchet.RootKey{}, ratchet.ChainKey{}, fmt.Errorf("x3dh %s: %w", s.label, err)
		}
		master = append(master, ss[:]...)
		crypto.WipeKey(&ss)
	}
	rk, ck := ratchet.Handshake(master)
	return rk, ck, nil
}
