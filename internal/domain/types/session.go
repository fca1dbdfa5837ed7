package types

// SessionInfo summarises a stored session without exposing key material.
type SessionInfo struct {
	Peer              Username    `json:"peer"`
	RemoteFingerprint Fingerprint `json:"remote_fingerprint"`
	SessionTag        string      `json:"session_tag"`
	States            int         `json:"states"`
	PendingPreKey     bool        `json:"pending_prekey"`
}
