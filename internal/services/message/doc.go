// Package message sends and receives encrypted messages over the relay.
//
// Work on one peer's session is serialised so concurrent sends and
// receives never race on the stored ratchet state.
package message
