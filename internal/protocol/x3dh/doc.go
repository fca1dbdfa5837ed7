// Package x3dh implements the triple Diffie-Hellman handshake that seeds a
// ratchet session between two parties.
//
// # Overview
//
// The initiator holds the responder's prekey bundle (identity key and one
// prekey). It generates an ephemeral base key and computes
//
//	DH(IKa, PKb) || DH(EKa, IKb) || DH(EKa, PKb)
//
// The responder, receiving the initiator identity and base key in a
// PreKeyMessage, computes the mirror image
//
//	DH(PKb, IKa) || DH(IKb, EKa) || DH(PKb, EKa)
//
// Both sides feed the transcript through HKDF-SHA256 (info "handshake") to
// obtain the same root key and chain key.
//
// # Errors
//
// A DH agreement that yields the all-zero secret fails with an error matching
// keys.ErrInvalidKey and crypto.ErrZeroSharedSecret. No partial output is
// returned.
package x3dh
