// Package relay is the store-and-forward service between peers, and the
// HTTP client the CLI uses to reach it.
//
// The relay holds published prekey bundles and queues of opaque envelopes.
// It never sees plaintext or secret keys. Routes:
//
//	PUT  /v1/users/{user}/prekeys        replace the published bundles
//	GET  /v1/users/{user}/prekey         take one bundle
//	POST /v1/users/{user}/messages       queue an envelope
//	GET  /v1/users/{user}/messages       list queued envelopes (?limit=)
//	POST /v1/users/{user}/messages/ack   drop the first n envelopes
//	GET  /metrics                        prometheus
//	GET  /healthz
//
// One-time bundles are handed out once each. The last-resort bundle is
// served whenever the one-time pool is empty and is never removed.
//
// Bodies are JSON; byte fields are base64. Non-2xx statuses are returned by
// Client as *StatusError, and 404 also matches ErrNotFound.
package relay
