package session

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"axolotl/internal/crypto"
	"axolotl/internal/domain"
	"axolotl/internal/keys"
	"axolotl/internal/message"
	"axolotl/internal/metrics"
	"axolotl/internal/session"
)

// Service establishes sessions from relay bundles and persists them.
type Service struct {
	ids      domain.IdentityStore
	sessions domain.SessionStore
	relay    domain.RelayClient
	metrics  *metrics.Metrics
	opts     []session.Option
	log      zerolog.Logger
}

// New constructs a session service. opts are passed to every session the
// service creates or loads.
func New(
	ids domain.IdentityStore,
	sessions domain.SessionStore,
	relay domain.RelayClient,
	m *metrics.Metrics,
	logger zerolog.Logger,
	opts ...session.Option,
) *Service {
	return &Service{
		ids:      ids,
		sessions: sessions,
		relay:    relay,
		metrics:  m,
		opts:     opts,
		log:      logger.With().Str("component", "session").Logger(),
	}
}

// InitiateSession fetches a bundle for peer, verifies it and stores a new
// session built from it. An existing session with peer is replaced.
func (s *Service) InitiateSession(
	ctx context.Context,
	passphrase string,
	peer domain.Username,
) (domain.SessionInfo, error) {
	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return domain.SessionInfo{}, err
	}
	defer id.Wipe()

	sess, err := s.CreateSession(ctx, id, peer)
	if err != nil {
		return domain.SessionInfo{}, err
	}
	defer sess.Wipe()
	return Info(peer, sess), nil
}

// CreateSession runs the initiator handshake against a freshly fetched
// bundle and persists the result.
func (s *Service) CreateSession(ctx context.Context, local *keys.IdentityKeyPair, peer domain.Username) (*session.Session, error) {
	if s.relay == nil {
		return nil, fmt.Errorf("session: no relay configured")
	}
	bundle, err := s.relay.FetchPreKeyBundle(ctx, peer)
	if err != nil {
		return nil, fmt.Errorf("session: fetch bundle for %s: %w", peer, err)
	}
	if bundle.Verify() != keys.PreKeyAuthValid {
		s.log.Warn().Str("peer", peer.String()).Str("auth", bundle.Verify().String()).Msg("bundle signature not valid")
	}
	sess, err := session.InitFromPreKey(local, bundle, s.opts...)
	if err != nil {
		return nil, err
	}
	if _, exists, err := s.sessions.LoadSession(peer); err == nil && exists {
		s.log.Warn().Str("peer", peer.String()).Msg("replacing existing session")
	}
	if err := s.SaveSession(peer, sess); err != nil {
		sess.Wipe()
		return nil, err
	}
	s.metrics.SessionCreated(metrics.RoleInitiator)
	s.log.Info().
		Str("peer", peer.String()).
		Str("fingerprint", crypto.ShortFingerprint(bundle.IdentityKey.PublicKey.PubEdward[:])).
		Str("tag", sess.SessionTag().String()).
		Uint16("prekey_id", bundle.PreKeyID).
		Msg("session created")
	return sess, nil
}

// AcceptSession starts a session as responder from peer's first message,
// persists it and returns the plaintext.
func (s *Service) AcceptSession(
	local *keys.IdentityKeyPair,
	prekeys session.PreKeyStore,
	peer domain.Username,
	msg message.Message,
) (*session.Session, []byte, error) {
	sess, pt, err := session.InitFromMessage(local, prekeys, msg, s.opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := s.SaveSession(peer, sess); err != nil {
		sess.Wipe()
		return nil, nil, err
	}
	s.metrics.SessionCreated(metrics.RoleResponder)
	s.log.Info().
		Str("peer", peer.String()).
		Str("fingerprint", crypto.ShortFingerprint(sess.RemoteIdentity().PublicKey.PubEdward[:])).
		Str("tag", sess.SessionTag().String()).
		Msg("session accepted")
	return sess, pt, nil
}

// LoadSession decodes the stored session with peer.
func (s *Service) LoadSession(local *keys.IdentityKeyPair, peer domain.Username) (*session.Session, bool, error) {
	raw, ok, err := s.sessions.LoadSession(peer)
	if err != nil || !ok {
		return nil, false, err
	}
	sess, err := session.Deserialise(local, raw, s.opts...)
	if err != nil {
		return nil, false, fmt.Errorf("session: load %s: %w", peer, err)
	}
	return sess, true, nil
}

// SaveSession persists sess as the session with peer.
func (s *Service) SaveSession(peer domain.Username, sess *session.Session) error {
	raw, err := sess.Serialise()
	if err != nil {
		return err
	}
	return s.sessions.SaveSession(peer, raw)
}

// GetSession summarises the stored session with peer.
func (s *Service) GetSession(passphrase string, peer domain.Username) (domain.SessionInfo, bool, error) {
	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return domain.SessionInfo{}, false, err
	}
	defer id.Wipe()

	sess, ok, err := s.LoadSession(id, peer)
	if err != nil || !ok {
		return domain.SessionInfo{}, false, err
	}
	defer sess.Wipe()
	return Info(peer, sess), true, nil
}

// ListSessions summarises every stored session.
func (s *Service) ListSessions(passphrase string) ([]domain.SessionInfo, error) {
	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return nil, err
	}
	defer id.Wipe()

	peers, err := s.sessions.ListSessions()
	if err != nil {
		return nil, err
	}
	out := make([]domain.SessionInfo, 0, len(peers))
	for _, peer := range peers {
		sess, ok, err := s.LoadSession(id, peer)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, Info(peer, sess))
		sess.Wipe()
	}
	return out, nil
}

// Info summarises sess.
func Info(peer domain.Username, sess *session.Session) domain.SessionInfo {
	return domain.SessionInfo{
		Peer:              peer,
		RemoteFingerprint: domain.Fingerprint(sess.RemoteIdentity().Fingerprint()),
		SessionTag:        sess.SessionTag().String(),
		States:            len(sess.Tags()),
		PendingPreKey:     sess.PendingPreKey() != nil,
	}
}

// Compile-time assertion that Service implements domain.SessionService.
var _ domain.SessionService = (*Service)(nil)
