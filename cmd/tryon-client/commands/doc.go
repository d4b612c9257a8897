// Package commands defines the tryon-client CLI and wires dependencies for subcommands.
//
// Commands
//
//   - submit     Send a base image and one or two garment overlays
//   - status     Query the remaining submission quota
//   - audit      Run the quality audit on a result
//   - records    List or show locally saved results
//   - serve      Run the local HTTP gateway for a browser front-end
//
// The root command loads configuration and builds the dependency graph through
// internal/bootstrap before any subcommand runs.
package commands
