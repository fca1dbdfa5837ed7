// Package session creates, loads and stores ratchet sessions for the
// message service.
//
// Sessions are kept serialised in the domain.SessionStore and decoded
// against the local identity on every load, so a changed local identity is
// detected rather than silently used.
package session
