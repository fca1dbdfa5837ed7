package session

import (
	"io"

	"axolotl/internal/crypto"
)

const (
	DefaultMaxSessionStates = 4
	DefaultMaxRecvChains    = 5
	DefaultMaxCounterGap    = 1000
)

type config struct {
	rand          io.Reader
	maxStates     int
	maxRecvChains int
	maxCounterGap uint32
}

func newConfig(opts []Option) config {
	c := config{
		maxStates:     DefaultMaxSessionStates,
		maxRecvChains: DefaultMaxRecvChains,
		maxCounterGap: DefaultMaxCounterGap,
	}
	for _, o := range opts {
		o(&c)
	}
	c.rand = crypto.Reader(c.rand)
	return c
}

// Option tunes a Session.
type Option func(*config)

// WithRand sets the randomness source for ratchet keys and session tags.
func WithRand(r io.Reader) Option {
	return func(c *config) { c.rand = r }
}

// WithMaxSessionStates bounds the States kept per Session. Values below 1
// are ignored.
func WithMaxSessionStates(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxStates = n
		}
	}
}

// WithMaxRecvChains bounds the receive chains kept per State. Values below
// 1 are ignored.
func WithMaxRecvChains(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxRecvChains = n
		}
	}
}

// WithMaxCounterGap bounds counter jumps and the skipped-key cache. Zero is
// ignored.
func WithMaxCounterGap(n uint32) Option {
	return func(c *config) {
		if n > 0 {
			c.maxCounterGap = n
		}
	}
}
