package interfaces

import (
	"context"

	"axolotl/internal/keys"
	"axolotl/internal/message"
	"axolotl/internal/session"

	domaintypes "axolotl/internal/domain/types"
)

// IdentityService creates, retrieves, and inspects your identity keys.
type IdentityService interface {
	GenerateIdentity(passphrase string) (
		*keys.IdentityKeyPair,
		domaintypes.Fingerprint,
		error,
	)
	LoadIdentity(passphrase string) (*keys.IdentityKeyPair, error)
	FingerprintIdentity(passphrase string) (domaintypes.Fingerprint, error)
}

// PreKeyService generates and publishes prekeys, and serves them back to
// the session engine when a peer's first message arrives.
type PreKeyService interface {
	session.PreKeyStore

	GeneratePreKeys(passphrase string, count int) ([]*keys.PreKeyBundle, error)
	RegisterPreKeys(
		ctx context.Context,
		passphrase string,
		username domaintypes.Username,
		count int,
	) (int, error)
}

// SessionService establishes, loads and stores ratchet sessions.
type SessionService interface {
	InitiateSession(
		ctx context.Context,
		passphrase string,
		peer domaintypes.Username,
	) (domaintypes.SessionInfo, error)
	GetSession(passphrase string, peer domaintypes.Username) (domaintypes.SessionInfo, bool, error)
	ListSessions(passphrase string) ([]domaintypes.SessionInfo, error)

	LoadSession(local *keys.IdentityKeyPair, peer domaintypes.Username) (*session.Session, bool, error)
	SaveSession(peer domaintypes.Username, s *session.Session) error
	CreateSession(ctx context.Context, local *keys.IdentityKeyPair, peer domaintypes.Username) (*session.Session, error)
	AcceptSession(
		local *keys.IdentityKeyPair,
		prekeys session.PreKeyStore,
		peer domaintypes.Username,
		msg message.Message,
	) (*session.Session, []byte, error)
}

// MessageService encrypts, sends, fetches and decrypts messages.
type MessageService interface {
	SendMessage(
		ctx context.Context,
		passphrase string,
		from domaintypes.Username,
		to domaintypes.Username,
		plaintext []byte,
	) error
	ReceiveMessage(
		ctx context.Context,
		passphrase string,
		me domaintypes.Username,
		limit int,
	) ([]domaintypes.DecryptedMessage, error)
}
