// Package cmd provides the command-line interface implementation for ipfs-bundler.
//
// This package contains all the subcommand implementations for the ipfs-bundler CLI tool.
// It uses the Cobra library for command structure and Fang for styling.
//
// The package is organized into the following commands:
//   - root: Main command coordinator and persistent flags
//   - pack: The full pipeline over one build directory
//   - rewrite, stamp, upload: Single pipeline steps run on their own
//   - watch: fsnotify-driven re-packing
//   - verify: CAR and manifest consistency checking
//   - cid: Per-file CID printing
//   - seed: Sample site generation
//
// Each command is implemented as a separate file with its own constructor function
// that returns a *cobra.Command. Option flags are layered over the config file
// and environment in options.go.
package cmd
