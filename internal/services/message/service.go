package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"axolotl/internal/domain"
	"axolotl/internal/keys"
	"axolotl/internal/message"
	"axolotl/internal/metrics"
	"axolotl/internal/session"
)

// Service sends and receives messages over the relay.
//
// High-level flow:
//   - Send: load the session with the peer, creating it from a relay bundle
//     when there is none, encrypt, persist the advanced state, then post.
//   - Receive: fetch envelopes in order; for each, decode it, bootstrap a
//     responder session or decrypt on the existing one, and persist. The
//     processed prefix is acked.
type Service struct {
	ids      domain.IdentityStore
	prekeys  session.PreKeyStore
	sessions domain.SessionService
	relay    domain.RelayClient
	metrics  *metrics.Metrics
	locks    *peerLocks
	log      zerolog.Logger
	now      func() time.Time
}

// ErrNoRelay is returned when the service was built without a relay.
var ErrNoRelay = errors.New("message: no relay configured")

// New constructs a message service.
func New(
	ids domain.IdentityStore,
	prekeys session.PreKeyStore,
	sessions domain.SessionService,
	relay domain.RelayClient,
	m *metrics.Metrics,
	logger zerolog.Logger,
) *Service {
	return &Service{
		ids:      ids,
		prekeys:  prekeys,
		sessions: sessions,
		relay:    relay,
		metrics:  m,
		locks:    newPeerLocks(),
		log:      logger.With().Str("component", "message").Logger(),
		now:      time.Now,
	}
}

// SendMessage encrypts plaintext for to and posts it. The session state is
// persisted before the envelope leaves, so a crash never reuses a key.
func (s *Service) SendMessage(
	ctx context.Context,
	passphrase string,
	from domain.Username,
	to domain.Username,
	plaintext []byte,
) error {
	if s.relay == nil {
		return ErrNoRelay
	}
	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return err
	}
	defer id.Wipe()

	unlock := s.locks.lock(to)
	defer unlock()

	sess, err := s.loadOrCreate(ctx, id, to)
	if err != nil {
		return err
	}
	defer sess.Wipe()

	m, err := sess.Encrypt(plaintext)
	if err != nil {
		return err
	}
	payload, err := m.Serialise()
	if err != nil {
		return err
	}
	if err := s.sessions.SaveSession(to, sess); err != nil {
		return err
	}
	s.metrics.Encrypted()

	env := domain.Envelope{
		From:      from,
		To:        to,
		Payload:   payload,
		Timestamp: s.now().Unix(),
	}
	if err := s.relay.SendMessage(ctx, env); err != nil {
		return fmt.Errorf("message: send to %s: %w", to, err)
	}
	s.log.Debug().Str("peer", to.String()).Stringer("type", m.Type()).Msg("message sent")
	return nil
}

func (s *Service) loadOrCreate(ctx context.Context, id *keys.IdentityKeyPair, peer domain.Username) (*session.Session, error) {
	sess, ok, err := s.sessions.LoadSession(id, peer)
	if err != nil {
		return nil, err
	}
	if ok {
		return sess, nil
	}
	return s.sessions.CreateSession(ctx, id, peer)
}

// ReceiveMessage fetches up to limit envelopes for me and decrypts them in
// order.
//
// Envelopes that fail with a session.DropMessage disposition are counted,
// logged and acked, so a bad message is never redelivered. Any other error
// stops processing: the messages decrypted so far are returned together
// with the error, and only the processed prefix is acked.
func (s *Service) ReceiveMessage(
	ctx context.Context,
	passphrase string,
	me domain.Username,
	limit int,
) ([]domain.DecryptedMessage, error) {
	if s.relay == nil {
		return nil, ErrNoRelay
	}
	id, err := s.ids.LoadIdentity(passphrase)
	if err != nil {
		return nil, err
	}
	defer id.Wipe()

	envs, err := s.relay.FetchMessages(ctx, me, limit)
	if err != nil {
		return nil, err
	}
	out := make([]domain.DecryptedMessage, 0, len(envs))
	processed := 0
	var stopErr error

	for _, env := range envs {
		pt, err := s.receiveOne(id, env)
		if err != nil {
			d := session.Classify(err)
			s.metrics.DecryptFailed(d.String())
			s.log.Warn().
				Err(err).
				Str("peer", env.From.String()).
				Str("id", env.ID).
				Stringer("disposition", d).
				Msg("decrypt failed")
			if d == session.DropMessage {
				processed++
				continue
			}
			stopErr = fmt.Errorf("message: from %s: %w", env.From, err)
			break
		}
		s.metrics.Decrypted()
		out = append(out, domain.DecryptedMessage{
			ID:        env.ID,
			From:      env.From,
			To:        env.To,
			Plaintext: pt,
			Timestamp: env.Timestamp,
		})
		processed++
	}

	if processed > 0 {
		if err := s.relay.AckMessages(ctx, me, processed); err != nil {
			return out, errors.Join(stopErr, fmt.Errorf("message: ack: %w", err))
		}
	}
	return out, stopErr
}

func (s *Service) receiveOne(id *keys.IdentityKeyPair, env domain.Envelope) ([]byte, error) {
	m, err := message.Deserialise(env.Payload)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(env.From)
	defer unlock()

	sess, ok, err := s.sessions.LoadSession(id, env.From)
	if err != nil {
		return nil, err
	}
	if !ok {
		sess, pt, err := s.sessions.AcceptSession(id, s.prekeys, env.From, m)
		if err != nil {
			return nil, err
		}
		sess.Wipe()
		return pt, nil
	}
	defer sess.Wipe()

	pt, err := sess.Decrypt(s.prekeys, m)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.SaveSession(env.From, sess); err != nil {
		return nil, err
	}
	return pt, nil
}

// Compile-time assertion that Service implements domain.MessageService.
var _ domain.MessageService = (*Service)(nil)
