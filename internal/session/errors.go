package session

import (
	"errors"

	"axolotl/internal/codec"
	"axolotl/internal/keys"
	"axolotl/internal/message"
	"axolotl/internal/protocol/ratchet"
)

var (
	ErrInvalidSignature       = errors.New("session: message authentication failed")
	ErrOutdatedSession        = errors.New("session: unknown or evicted session tag")
	ErrTooDistantFuture       = errors.New("session: message counter too far ahead")
	ErrDuplicateMessage       = errors.New("session: duplicate message")
	ErrOutdatedMessage        = errors.New("session: message key no longer cached")
	ErrRemoteIdentityChanged  = errors.New("session: remote identity changed")
	ErrLocalIdentityChanged   = errors.New("session: local identity changed")
	ErrPreKeyNotFound         = errors.New("session: prekey not found")
	ErrInvalidMessage         = errors.New("session: message cannot start a session")
	ErrInvalidPreKeySignature = errors.New("session: prekey bundle signature is invalid")
)

// Disposition tells a caller what a failure means for the session.
type Disposition int

const (
	// Unknown is any error not produced by the engine itself.
	Unknown Disposition = iota
	// DropMessage means the message is unusable but the session is fine.
	DropMessage
	// SessionUnusable means a new session must be established.
	SessionUnusable
)

func (d Disposition) String() string {
	switch d {
	case DropMessage:
		return "drop_message"
	case SessionUnusable:
		return "session_unusable"
	default:
		return "unknown"
	}
}

var (
	unusable = []error{
		ErrRemoteIdentityChanged,
		ErrLocalIdentityChanged,
		ErrInvalidPreKeySignature,
		ratchet.ErrChainExhausted,
	}
	droppable = []error{
		ErrOutdatedSession,
		ErrPreKeyNotFound,
		ErrInvalidSignature,
		ErrTooDistantFuture,
		ErrDuplicateMessage,
		ErrOutdatedMessage,
		ErrInvalidMessage,
		message.ErrUnknownMessageType,
		codec.ErrMalformed,
		codec.ErrMissingField,
		codec.ErrInvalidField,
		keys.ErrConversion,
		keys.ErrInvalidKey,
	}
)

// Classify maps err onto a Disposition.
func Classify(err error) Disposition {
	if err == nil {
		return Unknown
	}
	for _, target := range unusable {
		if errors.Is(err, target) {
			return SessionUnusable
		}
	}
	for _, target := range droppable {
		if errors.Is(err, target) {
			return DropMessage
		}
	}
	return Unknown
}
