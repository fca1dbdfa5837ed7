package session

import (
	"fmt"

	"axolotl/internal/codec"
	"axolotl/internal/keys"
	"axolotl/internal/protocol/ratchet"
)

// SendChain is the local sending chain and the ratchet key advertised on
// every message it produces.
type SendChain struct {
	ChainKey   ratchet.ChainKey
	RatchetKey *keys.DHKeyPair
}

func (sc *SendChain) clone() SendChain {
	return SendChain{ChainKey: sc.ChainKey, RatchetKey: sc.RatchetKey.Clone()}
}

func (sc *SendChain) wipe() {
	sc.ChainKey.Wipe()
	sc.RatchetKey.Wipe()
}

type sendChainWire struct {
	ChainKey   ratchet.ChainKey `cbor:"0,keyasint"`
	RatchetKey *keys.DHKeyPair  `cbor:"1,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler.
func (sc SendChain) MarshalCBOR() ([]byte, error) {
	return codec.Marshal(sendChainWire{ChainKey: sc.ChainKey, RatchetKey: sc.RatchetKey})
}

func deserialiseSendChain(b []byte) (SendChain, error) {
	var sc SendChain
	m, err := codec.DecodeMap("SendChain", b)
	if err != nil {
		return sc, err
	}
	raw, err := m.Raw(0)
	if err != nil {
		return sc, err
	}
	if sc.ChainKey, err = ratchet.DeserialiseChainKey(raw); err != nil {
		return sc, err
	}
	if raw, err = m.Raw(1); err != nil {
		return sc, err
	}
	if sc.RatchetKey, err = keys.DeserialiseDHKeyPair(raw); err != nil {
		return sc, err
	}
	return sc, nil
}

// RecvChain follows one remote ratchet key. Skipped holds the keys of
// messages not yet received, in ascending counter order.
type RecvChain struct {
	ChainKey   ratchet.ChainKey
	RatchetKey *keys.DHPublicKey
	Skipped    []ratchet.MessageKeys
}

func (rc *RecvChain) clone() *RecvChain {
	return &RecvChain{
		ChainKey:   rc.ChainKey,
		RatchetKey: keys.NewDHPublicKey(rc.RatchetKey.PubCurve),
		Skipped:    append([]ratchet.MessageKeys(nil), rc.Skipped...),
	}
}

func (rc *RecvChain) wipe() {
	rc.ChainKey.Wipe()
	for i := range rc.Skipped {
		rc.Skipped[i].Wipe()
	}
	rc.Skipped = nil
}

// stageTo caches the keys for every counter below target and leaves the
// chain at index target.
func (rc *RecvChain) stageTo(target, maxGap uint32) error {
	if target <= rc.ChainKey.Index {
		return nil
	}
	if target-rc.ChainKey.Index > maxGap {
		return fmt.Errorf("%w: counter %d, chain at %d", ErrTooDistantFuture, target, rc.ChainKey.Index)
	}
	for rc.ChainKey.Index < target {
		rc.Skipped = append(rc.Skipped, rc.ChainKey.MessageKeys())
		next, err := rc.ChainKey.Next()
		if err != nil {
			return err
		}
		rc.ChainKey.Wipe()
		rc.ChainKey = next
	}
	if excess := len(rc.Skipped) - int(maxGap); excess > 0 {
		for i := 0; i < excess; i++ {
			rc.Skipped[i].Wipe()
		}
		rc.Skipped = append(rc.Skipped[:0], rc.Skipped[excess:]...)
	}
	return nil
}

// take removes and returns the cached key for counter. A counter below the
// cache window was either consumed or evicted, so the error matches both
// ErrDuplicateMessage and ErrOutdatedMessage.
func (rc *RecvChain) take(counter uint32) (ratchet.MessageKeys, error) {
	if len(rc.Skipped) > 0 && counter < rc.Skipped[0].Counter {
		return ratchet.MessageKeys{}, fmt.Errorf("%w: counter %d: %w", ErrDuplicateMessage, counter, ErrOutdatedMessage)
	}
	for i, mk := range rc.Skipped {
		if mk.Counter == counter {
			rc.Skipped = append(rc.Skipped[:i], rc.Skipped[i+1:]...)
			return mk, nil
		}
	}
	return ratchet.MessageKeys{}, fmt.Errorf("%w: counter %d", ErrDuplicateMessage, counter)
}

// keyFor resolves the message key for counter, advancing the chain when
// counter is at or beyond its index.
func (rc *RecvChain) keyFor(counter, maxGap uint32) (ratchet.MessageKeys, error) {
	if counter < rc.ChainKey.Index {
		return rc.take(counter)
	}
	if err := rc.stageTo(counter, maxGap); err != nil {
		return ratchet.MessageKeys{}, err
	}
	mk := rc.ChainKey.MessageKeys()
	next, err := rc.ChainKey.Next()
	if err != nil {
		mk.Wipe()
		return ratchet.MessageKeys{}, err
	}
	rc.ChainKey.Wipe()
	rc.ChainKey = next
	return mk, nil
}

type recvChainWire struct {
	ChainKey   ratchet.ChainKey      `cbor:"0,keyasint"`
	RatchetKey *keys.DHPublicKey     `cbor:"1,keyasint"`
	Skipped    []ratchet.MessageKeys `cbor:"2,keyasint"`
}

// MarshalCBOR implements cbor.Marshaler.
func (rc *RecvChain) MarshalCBOR() ([]byte, error) {
	skipped := make([]ratchet.MessageKeys, len(rc.Skipped))
	copy(skipped, rc.Skipped)
	return codec.Marshal(recvChainWire{ChainKey: rc.ChainKey, RatchetKey: rc.RatchetKey, Skipped: skipped})
}

func deserialiseRecvChain(b []byte) (*RecvChain, error) {
	m, err := codec.DecodeMap("RecvChain", b)
	if err != nil {
		return nil, err
	}
	rc := new(RecvChain)
	raw, err := m.Raw(0)
	if err != nil {
		return nil, err
	}
	if rc.ChainKey, err = ratchet.DeserialiseChainKey(raw); err != nil {
		return nil, err
	}
	if raw, err = m.Raw(1); err != nil {
		return nil, err
	}
	if rc.RatchetKey, err = keys.DeserialiseDHPublicKey(raw); err != nil {
		return nil, err
	}
	if m.IsNull(2) {
		return rc, nil
	}
	items, err := m.Array(2)
	if err != nil {
		return nil, err
	}
	rc.Skipped = make([]ratchet.MessageKeys, 0, len(items))
	for _, it := range items {
		mk, err := ratchet.DeserialiseMessageKeys(it)
		if err != nil {
			return nil, err
		}
		if n := len(rc.Skipped); n > 0 && mk.Counter <= rc.Skipped[n-1].Counter {
			return nil, fmt.Errorf("%w: RecvChain skipped keys out of order", codec.ErrInvalidField)
		}
		rc.Skipped = append(rc.Skipped, mk)
	}
	return rc, nil
}
