package identity

import (
	"errors"
	"fmt"
	"unicode"

	"github.com/rs/zerolog"

	"axolotl/internal/domain"
	"axolotl/internal/keys"
)

const (
	// minPassphraseLength defines the minimum number of characters required for a passphrase.
	minPassphraseLength = 12
)

var (
	// ErrWeakPassphrase is returned when the passphrase fails the strength policy.
	ErrWeakPassphrase = fmt.Errorf(
		"passphrase is too weak (must be at least %d characters and include upper, lower, "+
			"number, and symbol)",
		minPassphraseLength,
	)

	// ErrIdentityExists is returned by GenerateIdentity when an identity is
	// already stored. Replacing it would orphan every session and prekey.
	ErrIdentityExists = errors.New("identity already exists")
)

// Service manages identity key creation and access using a backing store.
//
// The identity is one Ed25519 key pair. Its X25519 form, used in the
// handshake, is derived from it.
type Service struct {
	store domain.IdentityStore
	log   zerolog.Logger
}

// New returns an identity service backed by the given store.
func New(s domain.IdentityStore, logger zerolog.Logger) *Service {
	return &Service{store: s, log: logger.With().Str("component", "identity").Logger()}
}

// GenerateIdentity creates a new identity, saves it encrypted with the passphrase,
// and returns the identity plus its fingerprint.
func (s *Service) GenerateIdentity(
	passphrase string,
) (*keys.IdentityKeyPair, domain.Fingerprint, error) {
	if !isSecurePassphrase(passphrase) {
		return nil, "", ErrWeakPassphrase
	}
	exists, err := s.store.HasIdentity()
	if err != nil {
		return nil, "", err
	}
	if exists {
		return nil, "", ErrIdentityExists
	}

	id, err := keys.GenerateIdentityKeyPair(nil)
	if err != nil {
		return nil, "", err
	}
	if err := s.store.SaveIdentity(passphrase, id); err != nil {
		id.Wipe()
		return nil, "", err
	}
	fp := domain.Fingerprint(id.Fingerprint())
	s.log.Info().Str("fingerprint", fp.String()).Msg("identity created")
	return id, fp, nil
}

// LoadIdentity decrypts and returns the local identity.
func (s *Service) LoadIdentity(passphrase string) (*keys.IdentityKeyPair, error) {
	return s.store.LoadIdentity(passphrase)
}

// FingerprintIdentity returns the fingerprint of the local identity.
func (s *Service) FingerprintIdentity(passphrase string) (domain.Fingerprint, error) {
	id, err := s.store.LoadIdentity(passphrase)
	if err != nil {
		return "", err
	}
	defer id.Wipe()
	return domain.Fingerprint(id.Fingerprint()), nil
}

// isSecurePassphrase enforces a basic strength policy.
func isSecurePassphrase(passphrase string) bool {
	var hasUpper, hasLower, hasDigit, hasSymbol bool
	if len(passphrase) < minPassphraseLength {
		return false
	}
	for _, r := range passphrase {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			hasSymbol = true
		}
	}
	return hasUpper && hasLower && hasDigit && hasSymbol
}

// Compile-time assertion that Service implements domain.IdentityService.
var _ domain.IdentityService = (*Service)(nil)
