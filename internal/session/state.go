package session

import (
	"encoding/binary"
	"fmt"

	"axolotl/internal/codec"
	"axolotl/internal/keys"
	"axolotl/internal/message"
	"axolotl/internal/protocol/ratchet"
	"axolotl/internal/protocol/x3dh"
)

// State is one ratchet between the two identities of a Session.
type State struct {
	RecvChains  []*RecvChain // most recent first
	SendChain   SendChain
	RootKey     ratchet.RootKey
	PrevCounter uint32
}

func newInitiatorState(cfg config, local *keys.IdentityKeyPair, base *keys.DHKeyPair, bundle *keys.PreKeyBundle) (*State, error) {
	rk, ck, err := x3dh.Initiator(local, base, bundle.IdentityKey, bundle.PublicKey)
	if err != nil {
		return nil, err
	}
	defer rk.Wipe()

	sendRatchet, err := keys.GenerateDHKeyPair(cfg.rand)
	if err != nil {
		return nil, err
	}
	root, sendCK, err := rk.DHRatchet(sendRatchet.SecretKey, bundle.PublicKey)
	if err != nil {
		sendRatchet.Wipe()
		return nil, err
	}
	return &State{
		RecvChains: []*RecvChain{{ChainKey: ck, RatchetKey: keys.NewDHPublicKey(bundle.PublicKey.PubCurve)}},
		SendChain:  SendChain{ChainKey: sendCK, RatchetKey: sendRatchet},
		RootKey:    root,
	}, nil
}

func newResponderState(local *keys.IdentityKeyPair, preKey *keys.DHKeyPair, peerIdentity *keys.IdentityKey, peerBase *keys.DHPublicKey) (*State, error) {
	rk, ck, err := x3dh.Responder(local, preKey, peerIdentity, peerBase)
	if err != nil {
		return nil, err
	}
	return &State{
		RecvChains: []*RecvChain{},
		SendChain:  SendChain{ChainKey: ck, RatchetKey: preKey.Clone()},
		RootKey:    rk,
	}, nil
}

func (st *State) clone() *State {
	c := &State{
		RecvChains:  make([]*RecvChain, len(st.RecvChains)),
		SendChain:   st.SendChain.clone(),
		RootKey:     st.RootKey,
		PrevCounter: st.PrevCounter,
	}
	for i, rc := range st.RecvChains {
		c.RecvChains[i] = rc.clone()
	}
	return c
}

// Wipe zeroes every secret held by st.
func (st *State) Wipe() {
	if st == nil {
		return
	}
	st.RootKey.Wipe()
	st.SendChain.wipe()
	for _, rc := range st.RecvChains {
		rc.wipe()
	}
}

func associatedData(m *message.CipherMessage) []byte {
	ad := make([]byte, 0, message.SessionTagSize+8+len(m.RatchetKey.PubCurve))
	ad = append(ad, m.SessionTag[:]...)
	ad = binary.BigEndian.AppendUint32(ad, m.Counter)
	ad = binary.BigEndian.AppendUint32(ad, m.PrevCounter)
	return append(ad, m.RatchetKey.PubCurve[:]...)
}

func (st *State) encrypt(tag message.SessionTag, plaintext []byte) (*message.CipherMessage, error) {
	mk := st.SendChain.ChainKey.MessageKeys()
	defer mk.Wipe()
	next, err := st.SendChain.ChainKey.Next()
	if err != nil {
		return nil, err
	}

	m := message.NewCipherMessage(tag, mk.Counter, st.PrevCounter,
		keys.NewDHPublicKey(st.SendChain.RatchetKey.PublicKey.PubCurve), nil)
	if m.CipherText, err = mk.Seal(plaintext, associatedData(m)); err != nil {
		return nil, err
	}
	st.SendChain.ChainKey.Wipe()
	st.SendChain.ChainKey = next
	return m, nil
}

func (st *State) recvChain(ratchetKey *keys.DHPublicKey) *RecvChain {
	for _, rc := range st.RecvChains {
		if rc.RatchetKey.Equal(ratchetKey) {
			return rc
		}
	}
	return nil
}

// ratchet performs the DH step for a new remote ratchet key.
func (st *State) ratchet(cfg config, m *message.CipherMessage) (*RecvChain, error) {
	if len(st.RecvChains) > 0 {
		if err := st.RecvChains[0].stageTo(m.PrevCounter, cfg.maxCounterGap); err != nil {
			return nil, err
		}
	}

	root, recvCK, err := st.RootKey.DHRatchet(st.SendChain.RatchetKey.SecretKey, m.RatchetKey)
	if err != nil {
		return nil, err
	}
	sendRatchet, err := keys.GenerateDHKeyPair(cfg.rand)
	if err != nil {
		return nil, err
	}
	nextRoot, sendCK, err := root.DHRatchet(sendRatchet.SecretKey, m.RatchetKey)
	root.Wipe()
	if err != nil {
		sendRatchet.Wipe()
		return nil, err
	}

	rc := &RecvChain{ChainKey: recvCK, RatchetKey: keys.NewDHPublicKey(m.RatchetKey.PubCurve)}
	st.PrevCounter = st.SendChain.ChainKey.Index
	st.SendChain.wipe()
	st.SendChain = SendChain{ChainKey: sendCK, RatchetKey: sendRatchet}
	st.RootKey.Wipe()
	st.RootKey = nextRoot

	st.RecvChains = append([]*RecvChain{rc}, st.RecvChains...)
	if len(st.RecvChains) > cfg.maxRecvChains {
		for _, old := range st.RecvChains[cfg.maxRecvChains:] {
			old.wipe()
		}
		st.RecvChains = st.RecvChains[:cfg.maxRecvChains]
	}
	return rc, nil
}

// decrypt mutates st; callers pass a clone.
func (st *State) decrypt(cfg config, m *message.CipherMessage) ([]byte, error) {
	rc := st.recvChain(m.RatchetKey)
	if rc == nil {
		var err error
		if rc, err = st.ratchet(cfg, m); err != nil {
			return nil, err
		}
	}
	mk, err := rc.keyFor(m.Counter, cfg.maxCounterGap)
	if err != nil {
		return nil, err
	}
	defer mk.Wipe()

	pt, err := mk.Open(m.CipherText, associatedData(m))
	if err != nil {
		return nil, fmt.Errorf("%w: counter %d", ErrInvalidSignature, m.Counter)
	}
	return pt, nil
}

type stateWire struct {
	RecvChains  []*RecvChain    `cbor:"0,keyasint"`
	SendChain   SendChain       `cbor:"1,keyasint"`
	RootKey     ratchet.RootKey `cbor:"2,keyasint"`
	PrevCounter uint32          `cbor:"3,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler.
func (st *State) MarshalCBOR() ([]byte, error) {
	recv := make([]*RecvChain, len(st.RecvChains))
	copy(recv, st.RecvChains)
	return codec.Marshal(stateWire{
		RecvChains:  recv,
		SendChain:   st.SendChain,
		RootKey:     st.RootKey,
		PrevCounter: st.PrevCounter,
	})
}

// Serialise encodes st.
func (st *State) Serialise() ([]byte, error) { return st.MarshalCBOR() }

// DeserialiseState decodes a State.
func DeserialiseState(b []byte) (*State, error) {
	m, err := codec.DecodeMap("SessionState", b)
	if err != nil {
		return nil, err
	}
	st := &State{RecvChains: []*RecvChain{}}
	if !m.IsNull(0) {
		items, err := m.Array(0)
		if err != nil {
			return nil, err
		}
		for _, it := range items {
			rc, err := deserialiseRecvChain(it)
			if err != nil {
				return nil, err
			}
			st.RecvChains = append(st.RecvChains, rc)
		}
	}
	raw, err := m.Raw(1)
	if err != nil {
		return nil, err
	}
	if st.SendChain, err = deserialiseSendChain(raw); err != nil {
		return nil, err
	}
	if raw, err = m.Raw(2); err != nil {
		return nil, err
	}
	if st.RootKey, err = ratchet.DeserialiseRootKey(raw); err != nil {
		return nil, err
	}
	if st.PrevCounter, err = m.Uint32(3); err != nil {
		return nil, err
	}
	return st, nil
}
