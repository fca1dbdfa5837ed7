// Package main runs the in-memory axolotl relay. It stores published prekey
// bundles and queues encrypted envelopes for recipients until they fetch
// and acknowledge them. See package relay for the HTTP API.
//
// Configuration comes from the environment:
//
//	RELAY_ADDR              listen address (default :8080)
//	RELAY_LOG_LEVEL         zerolog level (default info)
//	RELAY_LOG_PRETTY        console output instead of JSON
//	RELAY_MAX_QUEUE         envelopes held per user (default 1000)
//	RELAY_MAX_PREKEYS       bundles accepted per upload (default 1000)
//	RELAY_SHUTDOWN_TIMEOUT  grace period on SIGINT/SIGTERM (default 10s)
//
// All state is held in memory and lost on exit. The relay never sees
// plaintext or secret keys; it only stores ciphertext and public bundles.
package main
