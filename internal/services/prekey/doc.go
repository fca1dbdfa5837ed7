// Package prekey manages the local prekeys used to bootstrap sessions.
//
// It generates numbered one-time prekeys plus a single last-resort prekey,
// signs their bundles with the identity, publishes them to the relay, and
// serves them back to the session engine when a PreKeyMessage arrives.
package prekey
