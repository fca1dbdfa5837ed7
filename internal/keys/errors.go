package keys

import "errors"

var (
	// ErrConversion reports a key that cannot be brought into the form it
	// is needed in, such as an identity lacking its Ed25519 half.
	ErrConversion = errors.New("keys: key conversion failed")
	// ErrInvalidKey reports key material that is present but unusable,
	// including DH agreements that produce the all-zero secret.
	ErrInvalidKey = errors.New("keys: invalid key")
)
