// Package manifest writes and reads the JSON documents that describe a
// packed directory: ipfs-manifest.json, which maps every input path to its
// content CID, and the optional ipfs-debug.json diagnostic dump.
package manifest

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/ipfs/go-cid"
	"github.com/tarassh/webapp-ipfs-bundler/importer"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// Manifest maps relative file paths to their content CIDs under one root.
// Files is serialized with its keys sorted.
type Manifest struct {
	Root  string            `json:"root"`
	Files map[string]string `json:"files"`
}

// FromResult builds a manifest from an import result.
func FromResult(res importer.Result) Manifest {
	m := Manifest{Root: res.Root.String(), Files: make(map[string]string)}
	for path, c := range res.Files() {
		m.Files[path] = c.String()
	}
	return m
}

// Paths returns the manifest's file paths in lexical order.
func (m Manifest) Paths() []string {
	return slices.Sorted(maps.Keys(m.Files))
}

// RootCid parses the root CID.
func (m Manifest) RootCid() (cid.Cid, error) {
	return cid.Decode(m.Root)
}

// Validate checks that the root and every file CID parse.
func (m Manifest) Validate() error {
	if _, err := cid.Decode(m.Root); err != nil {
		return fmt.Errorf("manifest root %q: %w", m.Root, err)
	}
	for _, p := range m.Paths() {
		if _, err := cid.Decode(m.Files[p]); err != nil {
			return fmt.Errorf("manifest entry %s: %w", p, err)
		}
	}
	return nil
}

// Write saves the manifest at path as two-space indented JSON.
func (m Manifest) Write(path string) error {
	if m.Files == nil {
		m.Files = map[string]string{}
	}
	return util.WriteJSONFile(path, m)
}

// Read loads and validates the manifest at path.
func Read(path string) (Manifest, error) {
	var m Manifest
	if err := util.ReadJSONFile(path, &m); err != nil {
		return Manifest{}, fmt.Errorf("read manifest %s: %w", path, err)
	}
	if m.Root == "" {
		return Manifest{}, errors.New("manifest has no root")
	}
	if err := m.Validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
