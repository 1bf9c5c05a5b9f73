package util

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"
)

// Names of the files the pipeline writes into the directory it packs.
const (
	CarFileName      = "bundle.car"
	ManifestFileName = "ipfs-manifest.json"
	DebugFileName    = "ipfs-debug.json"
)

// TempPrefix starts the name of every temporary file the pipeline writes
// before renaming it into place.
const TempPrefix = ".ipfs-bundler-tmp-"

// ExcludedNames are skipped at the root of a walk so a previous run's
// outputs never become inputs of the next one.
var ExcludedNames = []string{CarFileName, ManifestFileName, DebugFileName}

// FileEntry is a regular file discovered by Walk.
type FileEntry struct {
	RelPath string // forward-slash path relative to the walk root
	AbsPath string // host path used to open the file
	Size    int64
}

// Open returns a reader over the file contents.
// Failures are tagged with ErrReadFailure.
func (e FileEntry) Open() (io.ReadCloser, error) {
	f, err := os.Open(e.AbsPath)
	if err != nil {
		return nil, errors.Join(ErrReadFailure, fmt.Errorf("open %s: %w", e.RelPath, err))
	}
	return f, nil
}

// IsExcluded reports whether relPath names one of the pipeline outputs at the
// walk root. Nested files with the same base name are not excluded.
func IsExcluded(relPath string) bool {
	for _, name := range ExcludedNames {
		if relPath == name {
			return true
		}
	}
	return false
}

// IsTempFile reports whether name, a base name, is a pipeline temporary
// file. Leftovers of an interrupted run are never packed.
func IsTempFile(name string) bool {
	return strings.HasPrefix(name, TempPrefix)
}

// Walk enumerates the regular files under root depth-first in lexical order.
// A symlinked root is resolved first. Symlinks below it are rejected: onSkip is called with ErrUnexpectedSymlink and the
// link is left out. If root does not exist or is not a directory, the
// sequence yields a single error wrapping ErrInputMissing.
func Walk(root string, onSkip func(relPath string, err error)) iter.Seq2[FileEntry, error] {
	return func(yield func(FileEntry, error) bool) {
		// WalkDir does not descend into a symlinked root.
		resolved, err := filepath.EvalSymlinks(root)
		if err != nil {
			yield(FileEntry{}, errors.Join(ErrInputMissing, err))
			return
		}
		root = resolved
		info, err := os.Stat(root)
		if err != nil {
			yield(FileEntry{}, errors.Join(ErrInputMissing, err))
			return
		}
		if !info.IsDir() {
			yield(FileEntry{}, errors.Join(ErrInputMissing, ErrExpectedDirectory))
			return
		}

		stop := errors.New("stop")
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if path == root {
					return errors.Join(ErrInputMissing, err)
				}
				return errors.Join(ErrReadFailure, err)
			}
			if path == root {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return fmt.Errorf("failed to get relative path: %w", err)
			}
			rel = filepath.ToSlash(rel)

			if d.Type()&fs.ModeSymlink != 0 {
				if onSkip != nil {
					onSkip(rel, ErrUnexpectedSymlink)
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if IsExcluded(rel) || IsTempFile(d.Name()) {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return errors.Join(ErrReadFailure, err)
			}
			if !yield(FileEntry{RelPath: rel, AbsPath: path, Size: fi.Size()}, nil) {
				return stop
			}
			return nil
		})
		if err != nil && !errors.Is(err, stop) {
			yield(FileEntry{}, err)
		}
	}
}

// Collect drains a walk into a slice, stopping at the first error.
func Collect(seq iter.Seq2[FileEntry, error]) ([]FileEntry, error) {
	var entries []FileEntry
	for e, err := range seq {
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
