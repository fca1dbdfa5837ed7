package prekey

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"axolotl/internal/domain"
	"axolotl/internal/keys"
	"axolotl/internal/session"
)

// Service manages prekeys and builds the public bundles.
type Service struct {
	ids      domain.IdentityStore
	ps       domain.PreKeyStore
	accounts domain.AccountStore
	relay    domain.RelayClient
	relayURL string
	log      zerolog.Logger
	now      func() time.Time
}

// New returns a prekey service. relay may be nil when only local
// generation is needed.
func New(
	ids domain.IdentityStore,
	ps domain.PreKeyStore,
	accounts domain.AccountStore,
	relay domain.RelayClient,
	relayURL string,
	logger zerolog.Logger,
) *Service {
	return &Service{
		ids:      ids,
		ps:       ps,
		accounts: accounts,
		relay:    relay,
		relayURL: relayURL,
		log:      logger.With().Str("component", "prekey").Logger(),
		now:      time.Now,
	}
}

// GeneratePreKeys creates count one-time prekeys numbered from the stored
// next id, creates the last-resort prekey if there is none yet, stores them,
// and returns signed bundles for the new batch followed by the last resort.
func (s *Service) GeneratePreKeys(passphrase string, count int) ([]*keys.PreKeyBundle, error) {
	if count < 0 || count >= int(keys.MaxPreKeyID) {
		return nil, fmt.Errorf("prekey: count %d out of range", count)
	}
	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return nil, err
	}
	defer id.Wipe()

	start, err := s.ps.NextPreKeyID()
	if err != nil {
		return nil, err
	}
	pks, err := keys.GeneratePreKeys(nil, start, count)
	if err != nil {
		return nil, err
	}
	fresh := pks

	lastResort, err := s.ps.LoadPreKey(keys.MaxPreKeyID)
	if err != nil {
		return nil, err
	}
	if lastResort == nil {
		if lastResort, err = keys.NewLastResortPreKey(nil); err != nil {
			return nil, err
		}
		fresh = append(fresh, lastResort)
	}
	if err := s.ps.SavePreKeys(fresh); err != nil {
		return nil, err
	}
	next := uint16((int(start) + count) % int(keys.MaxPreKeyID))
	if err := s.ps.SetNextPreKeyID(next); err != nil {
		return nil, err
	}

	bundles := make([]*keys.PreKeyBundle, 0, len(pks)+1)
	for _, pk := range append(pks, lastResort) {
		bundles = append(bundles, keys.NewSignedPreKeyBundle(id, pk))
	}
	s.log.Info().Uint16("first_id", start).Int("count", count).Uint16("next_id", next).Msg("prekeys generated")
	return bundles, nil
}

// RegisterPreKeys generates a batch and publishes it to the relay under
// username, replacing whatever was published before. It returns the number
// of bundles uploaded.
func (s *Service) RegisterPreKeys(
	ctx context.Context,
	passphrase string,
	username domain.Username,
	count int,
) (int, error) {
	if s.relay == nil {
		return 0, fmt.Errorf("prekey: no relay configured")
	}
	bundles, err := s.GeneratePreKeys(passphrase, count)
	if err != nil {
		return 0, err
	}
	if err := s.relay.RegisterPreKeyBundles(ctx, username, bundles); err != nil {
		return 0, fmt.Errorf("prekey: publish: %w", err)
	}
	profile := domain.AccountProfile{RelayURL: s.relayURL, Username: username, RegisteredAt: s.now().Unix()}
	if err := s.accounts.SaveAccountProfile(profile); err != nil {
		return 0, err
	}
	s.log.Info().Str("user", username.String()).Int("bundles", len(bundles)).Msg("prekeys published")
	return len(bundles), nil
}

// LoadPreKey implements session.PreKeyStore.
func (s *Service) LoadPreKey(id uint16) (*keys.PreKey, error) {
	return s.ps.LoadPreKey(id)
}

// DeletePreKey implements session.PreKeyStore.
func (s *Service) DeletePreKey(id uint16) error {
	if err := s.ps.DeletePreKey(id); err != nil {
		return err
	}
	s.log.Debug().Uint16("id", id).Msg("prekey consumed")
	return nil
}

var (
	_ domain.PreKeyService = (*Service)(nil)
	_ session.PreKeyStore  = (*Service)(nil)
)
