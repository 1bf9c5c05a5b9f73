// Package main provides the ipfs-bundler command-line interface.
//
// ipfs-bundler content-addresses a web application's build output for IPFS.
// It computes the same root CID an IPFS node would for the directory, writes
// a manifest and optional CAR archive next to the build, produces
// IPFS-addressed copies of the HTML, and can upload the result to a node.
//
// The main binary supports multiple subcommands:
//   - pack: Run the whole pipeline over a build directory
//   - rewrite: Rewrite HTML from an existing manifest
//   - stamp: Stamp the root CID into index.html
//   - upload: Post a directory to an IPFS HTTP API
//   - watch: Re-pack on change
//   - verify: Check bundle.car against the manifest
//   - cid: Print the CID of individual files
//   - seed: Generate a sample static site
package main
