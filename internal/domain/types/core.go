package types

// Username is the name an account is registered under on the relay.
type Username string

// String returns the string form of the username.
func (u Username) String() string { return string(u) }

// Fingerprint is the hex form of an identity's Ed25519 public key, shown to
// users for out-of-band comparison.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }
