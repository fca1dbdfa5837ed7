package interfaces

import (
	"axolotl/internal/keys"

	domaintypes "axolotl/internal/domain/types"
)

// IdentityStore persists the long-term identity, encrypted under a
// passphrase.
type IdentityStore interface {
	SaveIdentity(passphrase string, id *keys.IdentityKeyPair) error
	LoadIdentity(passphrase string) (*keys.IdentityKeyPair, error)
	HasIdentity() (bool, error)
}

// PreKeyStore holds the local prekeys, keyed by id.
type PreKeyStore interface {
	SavePreKeys(prekeys []*keys.PreKey) error
	// LoadPreKey returns nil, nil when id is unknown.
	LoadPreKey(id uint16) (*keys.PreKey, error)
	DeletePreKey(id uint16) error
	CountPreKeys() (int, error)

	// NextPreKeyID is the id the next generated batch starts at.
	NextPreKeyID() (uint16, error)
	SetNextPreKeyID(id uint16) error
}

// SessionStore persists serialised sessions per peer.
type SessionStore interface {
	SaveSession(peer domaintypes.Username, data []byte) error
	LoadSession(peer domaintypes.Username) ([]byte, bool, error)
	DeleteSession(peer domaintypes.Username) error
	ListSessions() ([]domaintypes.Username, error)
}
