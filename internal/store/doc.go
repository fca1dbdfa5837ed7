// Package store persists the local keystore.
//
// Store keeps everything in one bbolt database, axolotl.db, under the
// configured home directory:
//   - identity: the identity key pair, sealed under a passphrase
//   - prekeys: serialised keys.PreKey values keyed by big-endian id
//   - sessions: serialised session.Session values keyed by peer username
//   - meta: schema version, next prekey id and the account profile
//
// Memory is an in-memory twin with the same behaviour, for tests.
package store
