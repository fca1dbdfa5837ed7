// Package app loads configuration and wires stores, services and the relay
// client for the CLI.
//
// Configuration is layered: defaults, then <home>/config.toml, then
// AXOLOTL_* environment variables. Command-line flags are applied last by
// the caller.
package app
