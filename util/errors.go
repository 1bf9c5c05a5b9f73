// Package util provides utility functions for the bundler pipeline.
package util

import "errors"

// Sentinel errors for the packing pipeline.
// These errors can be checked with errors.Is() for specific error handling.
var (
	// Fatal error kinds
	ErrInputMissing  = errors.New("input directory missing or unreadable")
	ErrReadFailure   = errors.New("failed to read input file")
	ErrImportFailure = errors.New("failed to import file set")
	ErrWriteFailure  = errors.New("failed to write output")

	// Non-fatal error kinds
	ErrRewriteSkipped = errors.New("html rewrite skipped")
	ErrUploadFailure  = errors.New("upload failed")
	ErrStampSkipped   = errors.New("index stamp skipped")

	// File and directory errors
	ErrExpectedFile      = errors.New("expected file, got directory")
	ErrExpectedDirectory = errors.New("expected directory but got file")
	ErrUnexpectedSymlink = errors.New("expected file, got symlink")

	// Block errors
	ErrBlockNotFound = errors.New("block not found")
	ErrBlockMismatch = errors.New("block bytes differ for the same cid")
	ErrInvalidCar    = errors.New("invalid car stream")
)
