package session

import "axolotl/internal/keys"

// PreKeyStore gives the engine access to the local prekeys while it
// answers a PreKeyMessage.
type PreKeyStore interface {
	// LoadPreKey returns nil, nil when id is unknown.
	LoadPreKey(id uint16) (*keys.PreKey, error)
	DeletePreKey(id uint16) error
}
