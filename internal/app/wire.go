package app

import (
	"net/http"

	"github.com/rs/zerolog"

	"axolotl/internal/domain"
	"axolotl/internal/metrics"
	"axolotl/internal/relay"
	identitysvc "axolotl/internal/services/identity"
	messagesvc "axolotl/internal/services/message"
	prekeysvc "axolotl/internal/services/prekey"
	sessionsvc "axolotl/internal/services/session"
	"axolotl/internal/store"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Config   Config
	Log      zerolog.Logger
	Store    *store.Store
	Accounts domain.AccountStore
	Identity domain.IdentityService
	PreKeys  domain.PreKeyService
	Sessions domain.SessionService
	Messages domain.MessageService
	Relay    domain.RelayClient // nil without a relay URL
}

// NewWire constructs the dependency graph from cfg. The caller must Close
// the result.
func NewWire(cfg Config, logger zerolog.Logger) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	db, err := store.Open(cfg.Home)
	if err != nil {
		return nil, err
	}

	var rc domain.RelayClient
	if cfg.RelayURL != "" {
		rc = relay.NewClient(cfg.RelayURL, &http.Client{Timeout: cfg.HTTPTimeout}, logger.With().Str("component", "relay").Logger())
	}

	m := metrics.New(nil)
	identity := identitysvc.New(db, logger)
	prekeys := prekeysvc.New(db, db, db, rc, cfg.RelayURL, logger)
	sessions := sessionsvc.New(db, db, rc, m, logger, cfg.SessionOptions()...)
	messages := messagesvc.New(db, prekeys, sessions, rc, m, logger)

	return &Wire{
		Config:   cfg,
		Log:      logger,
		Store:    db,
		Accounts: db,
		Identity: identity,
		PreKeys:  prekeys,
		Sessions: sessions,
		Messages: messages,
		Relay:    rc,
	}, nil
}

// Close releases the database.
func (w *Wire) Close() error { return w.Store.Close() }
