package domain

import (
	interfaces "axolotl/internal/domain/interfaces"
	types "axolotl/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	Username         = types.Username
	Fingerprint      = types.Fingerprint
	AccountProfile   = types.AccountProfile
	Envelope         = types.Envelope
	DecryptedMessage = types.DecryptedMessage
	SessionInfo      = types.SessionInfo
	PublishedPreKey  = types.PublishedPreKey
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	IdentityService = interfaces.IdentityService
	PreKeyService   = interfaces.PreKeyService
	SessionService  = interfaces.SessionService
	MessageService  = interfaces.MessageService
	RelayClient     = interfaces.RelayClient
	IdentityStore   = interfaces.IdentityStore
	PreKeyStore     = interfaces.PreKeyStore
	SessionStore    = interfaces.SessionStore
	AccountStore    = interfaces.AccountStore
)
