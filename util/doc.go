// Package util provides the filesystem plumbing shared by the bundler pipeline.
//
// Key Components:
//
// Directory Walking:
//   - Walk enumerates regular files depth-first in lexical order
//   - Paths are reported relative to the walk root with forward slashes
//   - The pipeline's own outputs (bundle.car, ipfs-manifest.json,
//     ipfs-debug.json) are excluded at the root only
//   - Symlinks are rejected and reported through a callback
//
// Hashing:
//   - Streaming SHA-256 digests of files and readers
//   - Raw-codec CIDv1 over a whole file, used by the debug document
//
// Output Files:
//   - Two-space indented JSON documents
//   - Atomic writes through a temporary file and rename
//
// Errors:
//   - One sentinel per pipeline error kind (input-missing, read-failure,
//     import-failure, write-failure, rewrite-skipped, upload-failure,
//     stamp-skipped), checkable with errors.Is
package util
