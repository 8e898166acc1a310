// Package commands defines the vaultbridge CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - init         Create the local identity key pair
//   - fingerprint  Print the client id and public key
//   - pair         Connect to the bridge and wait for vault approval
//   - send         Send one encrypted request and print the response
//
// # Implementation
//
// The root command resolves configuration (flags, VAULTBRIDGE_* environment
// variables, optional YAML config file) and builds the dependency graph
// before any subcommand runs, so handlers share one app context.
package commands
