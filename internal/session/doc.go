// Package session implements the Double Ratchet session engine.
//
// A Session binds the local identity to one remote identity and keeps a
// small, most-recent-first list of ratchet States, each addressed by the
// SessionTag carried on the wire. Two parties that bootstrap towards each
// other at the same time end up with two States and keep working.
//
// Every decrypt runs on a deep clone of the addressed State. The clone
// replaces the stored State only when the message authenticates, so a bad
// message never moves the ratchet.
//
// # Bounds
//
//   - MaxSessionStates (default 4) States per Session; the oldest is
//     evicted and its tag then fails with ErrOutdatedSession.
//   - MaxRecvChains (default 5) receive chains per State.
//   - MaxCounterGap (default 1000) caps how far ahead a counter may jump
//     and how many skipped keys a receive chain caches.
//
// Session is not safe for concurrent use. Callers serialise access per
// peer.
package session
