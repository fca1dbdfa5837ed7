package ratchet

import (
	"errors"
	"fmt"
	"math"

	"axolotl/internal/codec"
	"axolotl/internal/crypto"
	"axolotl/internal/keys"
)

// ErrChainExhausted is returned when a chain index would overflow.
var ErrChainExhausted = errors.New("ratchet: chain index exhausted")

// RootKey seeds every new chain pair.
type RootKey struct {
	Key [KeySize]byte
}

// DHRatchet mixes DH(ours, theirs) into the root and returns the next root
// together with a fresh chain at index 0.
func (rk RootKey) DHRatchet(ours *keys.DHSecretKey, theirs *keys.DHPublicKey) (RootKey, ChainKey, error) {
	ss, err := ours.SharedSecret(theirs)
	if err != nil {
		return RootKey{}, ChainKey{}, err
	}
	next, ck := DeriveSecrets(ss[:], rk.Key[:], infoDHRatchet)
	crypto.WipeKey(&ss)
	return RootKey{Key: next}, ChainKey{Key: ck}, nil
}

// Wipe zeroes the key.
func (rk *RootKey) Wipe() { crypto.WipeKey(&rk.Key) }

type rootKeyWire struct {
	Key []byte `cbor:"0,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler.
func (rk RootKey) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(rootKeyWire{Key: rk.Key[:]})
}

// DeserialiseRootKey decodes {0: key}.
func DeserialiseRootKey(b []byte) (RootKey, error) {
	var rk RootKey
	m, err := codec.DecodeMap("RootKey", b)
	if err != nil {
		return rk, err
	}
	k, err := m.FixedBytes(0, KeySize)
	if err != nil {
		return rk, err
	}
	copy(rk.Key[:], k)
	crypto.Wipe(k)
	return rk, nil
}

// ChainKey is one link of a symmetric chain.
type ChainKey struct {
	Key   [KeySize]byte
	Index uint32
}

// Next returns the following link.
func (ck ChainKey) Next() (ChainKey, error) {
	if ck.Index == math.MaxUint32 {
		return ChainKey{}, ErrChainExhausted
	}
	return ChainKey{Key: hmacSum(ck.Key[:], "1"), Index: ck.Index + 1}, nil
}

// MessageKeys derives the one-shot key for the current index.
func (ck ChainKey) MessageKeys() MessageKeys {
	base := hmacSum(ck.Key[:], "0")
	cipher, _ := DeriveSecrets(base[:], nil, infoHashRatchet)
	crypto.WipeKey(&base)
	return MessageKeys{Key: cipher, Counter: ck.Index}
}

// Wipe zeroes the key.
func (ck *ChainKey) Wipe() { crypto.WipeKey(&ck.Key) }

type chainKeyWire struct {
	Key   []byte `cbor:"0,keyasint"`
	Index uint32 `cbor:"1,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler.
func (ck ChainKey) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(chainKeyWire{Key: ck.Key[:], Index: ck.Index})
}

// DeserialiseChainKey decodes {0: key, 1: idx}.
func DeserialiseChainKey(b []byte) (ChainKey, error) {
	var ck ChainKey
	m, err := codec.DecodeMap("ChainKey", b)
	if err != nil {
		return ck, err
	}
	k, err := m.FixedBytes(0, KeySize)
	if err != nil {
		return ck, err
	}
	copy(ck.Key[:], k)
	crypto.Wipe(k)
	if ck.Index, err = m.Uint32(1); err != nil {
		return ChainKey{}, err
	}
	return ck, nil
}

// MessageKeys encrypts exactly one message.
type MessageKeys struct {
	Key     [KeySize]byte
	Counter uint32
}

// Wipe zeroes the key.
func (mk *MessageKeys) Wipe() { crypto.WipeKey(&mk.Key) }

type messageKeysWire struct {
	Key     []byte `cbor:"0,keyasint"`
	Counter uint32 `cbor:"1,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler.
func (mk MessageKeys) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(messageKeysWire{Key: mk.Key[:], Counter: mk.Counter})
}

// DeserialiseMessageKeys decodes {0: key, 1: counter}.
func DeserialiseMessageKeys(b []byte) (MessageKeys, error) {
	var mk MessageKeys
	m, err := codec.DecodeMap("MessageKeys", b)
	if err != nil {
		return mk, err
	}
	k, err := m.FixedBytes(0, KeySize)
	if err != nil {
		return mk, err
	}
	copy(mk.Key[:], k)
	crypto.Wipe(k)
	if mk.Counter, err = m.Uint32(1); err != nil {
		return MessageKeys{}, fmt.Errorf("message keys: %w", err)
	}
	return mk, nil
}
