// Package commands defines the axolotl CLI.
//
// Commands
//
//   - init           Create the local identity
//   - fingerprint    Print the identity fingerprint
//   - register       Publish prekey bundles to a relay
//   - start-session  Establish a session with a peer from their bundle
//   - send           Encrypt and send a message
//   - recv           Fetch and decrypt queued messages
//   - sessions       List stored sessions
//
// # Implementation
//
// The root command loads the layered configuration, applies flags on top,
// and builds the dependency graph before any subcommand runs. The database
// is closed after the subcommand returns.
package commands
