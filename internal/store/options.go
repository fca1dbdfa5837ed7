package store

import "io"

type options struct {
	rand io.Reader
	kdf  KDFParams
}

// Option configures a Store or Memory.
type Option func(*options)

// WithRand sets the randomness source for identity salts.
func WithRand(r io.Reader) Option { return func(o *options) { o.rand = r } }

// WithKDFParams sets the scrypt cost used when sealing the identity.
func WithKDFParams(p KDFParams) Option { return func(o *options) { o.kdf = p } }

func newOptions(opts []Option) options {
	o := options{kdf: DefaultKDFParams()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
