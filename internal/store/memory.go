package store

import (
	"sort"
	"sync"

	"axolotl/internal/crypto"
	"axolotl/internal/domain"
	"axolotl/internal/keys"
)

// Memory is an in-memory keystore with the same semantics as Store. The
// identity is still sealed, so passphrase checks behave identically.
type Memory struct {
	mu       sync.Mutex
	opts     options
	identity []byte
	prekeys  map[uint16][]byte
	sessions map[domain.Username][]byte
	nextID   uint16
	account  *domain.AccountProfile
}

// NewMemory returns an empty Memory.
func NewMemory(opts ...Option) *Memory {
	return &Memory{
		opts:     newOptions(opts),
		prekeys:  make(map[uint16][]byte),
		sessions: make(map[domain.Username][]byte),
	}
}

func (m *Memory) SaveIdentity(passphrase string, id *keys.IdentityKeyPair) error {
	raw, err := id.Serialise()
	if err != nil {
		return err
	}
	sealed, err := seal(m.opts.rand, passphrase, raw, m.opts.kdf)
	crypto.Wipe(raw)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.identity = sealed
	m.mu.Unlock()
	return nil
}

func (m *Memory) LoadIdentity(passphrase string) (*keys.IdentityKeyPair, error) {
	m.mu.Lock()
	sealed := copyBytes(m.identity)
	m.mu.Unlock()
	return openIdentity(passphrase, sealed)
}

func (m *Memory) HasIdentity() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity != nil, nil
}

func (m *Memory) SavePreKeys(prekeys []*keys.PreKey) error {
	enc := make(map[uint16][]byte, len(prekeys))
	for _, pk := range prekeys {
		raw, err := pk.Serialise()
		if err != nil {
			return err
		}
		enc[pk.KeyID] = raw
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, raw := range enc {
		m.prekeys[id] = raw
	}
	return nil
}

func (m *Memory) LoadPreKey(id uint16) (*keys.PreKey, error) {
	m.mu.Lock()
	raw, ok := m.prekeys[id]
	m.mu.Unlock()
	if !ok {
		return nil, nil
	}
	return keys.DeserialisePreKey(raw)
}

func (m *Memory) DeletePreKey(id uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if raw, ok := m.prekeys[id]; ok {
		crypto.Wipe(raw)
		delete(m.prekeys, id)
	}
	return nil
}

func (m *Memory) CountPreKeys() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prekeys), nil
}

func (m *Memory) NextPreKeyID() (uint16, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nextID, nil
}

func (m *Memory) SetNextPreKeyID(id uint16) error {
	m.mu.Lock()
	m.nextID = id
	m.mu.Unlock()
	return nil
}

func (m *Memory) SaveSession(peer domain.Username, data []byte) error {
	m.mu.Lock()
	m.sessions[peer] = copyBytes(data)
	m.mu.Unlock()
	return nil
}

func (m *Memory) LoadSession(peer domain.Username) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.sessions[peer]
	return copyBytes(raw), ok, nil
}

func (m *Memory) DeleteSession(peer domain.Username) error {
	m.mu.Lock()
	delete(m.sessions, peer)
	m.mu.Unlock()
	return nil
}

// ListSessions returns the peers with a stored session, sorted.
func (m *Memory) ListSessions() ([]domain.Username, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	peers := make([]domain.Username, 0, len(m.sessions))
	for p := range m.sessions {
		peers = append(peers, p)
	}
	sort.Slice(peers, func(i, j int) bool { return peers[i] < peers[j] })
	return peers, nil
}

func (m *Memory) SaveAccountProfile(p domain.AccountProfile) error {
	m.mu.Lock()
	m.account = &p
	m.mu.Unlock()
	return nil
}

func (m *Memory) LoadAccountProfile() (domain.AccountProfile, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.account == nil {
		return domain.AccountProfile{}, false, nil
	}
	return *m.account, true, nil
}

var (
	_ domain.IdentityStore = (*Memory)(nil)
	_ domain.PreKeyStore   = (*Memory)(nil)
	_ domain.SessionStore  = (*Memory)(nil)
	_ domain.AccountStore  = (*Memory)(nil)
)
