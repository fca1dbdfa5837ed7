package message

import (
	"sync"

	"axolotl/internal/domain"
)

// peerLocks hands out one mutex per peer.
type peerLocks struct {
	mu sync.Mutex
	m  map[domain.Username]*sync.Mutex
}

func newPeerLocks() *peerLocks {
	return &peerLocks{m: make(map[domain.Username]*sync.Mutex)}
}

// lock blocks until peer is free and returns the matching unlock.
func (l *peerLocks) lock(peer domain.Username) func() {
	l.mu.Lock()
	mu, ok := l.m[peer]
	if !ok {
		mu = new(sync.Mutex)
		l.m[peer] = mu
	}
	l.mu.Unlock()
	mu.Lock()
	return mu.Unlock
}
