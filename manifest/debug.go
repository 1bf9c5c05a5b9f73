package manifest

import (
	"github.com/tarassh/webapp-ipfs-bundler/importer"
	"github.com/tarassh/webapp-ipfs-bundler/util"
	"github.com/tarassh/webapp-ipfs-bundler/version"
)

// DebugEntry describes one imported node.
type DebugEntry struct {
	Path   string `json:"path"`
	CidV1  string `json:"cidV1"`
	CidRaw string `json:"cidRaw,omitempty"`
	Size   int64  `json:"size"`
	Type   string `json:"type"`
}

// Debug is the diagnostic document written when debug output is enabled.
// Its field set is informational only.
type Debug struct {
	Tool    version.Info      `json:"tool"`
	Root    string            `json:"root"`
	Files   map[string]string `json:"files"`
	Blocks  int               `json:"blocks"`
	Entries []DebugEntry      `json:"entries"`
}

// NewDebug assembles a debug document. rawCids holds the whole-file raw CID
// for each file path; directories have none.
func NewDebug(res importer.Result, blocks int, rawCids map[string]string) Debug {
	m := FromResult(res)
	d := Debug{
		Tool:    version.GetInfo(),
		Root:    m.Root,
		Files:   m.Files,
		Blocks:  blocks,
		Entries: make([]DebugEntry, 0, len(res.Entries)),
	}
	for _, e := range res.Entries {
		size := e.FileSize
		if e.Type == importer.TypeDirectory {
			size = int64(e.DagSize)
		}
		d.Entries = append(d.Entries, DebugEntry{
			Path:   e.Path,
			CidV1:  e.Cid.String(),
			CidRaw: rawCids[e.Path],
			Size:   size,
			Type:   string(e.Type),
		})
	}
	return d
}

// Write saves the debug document at path.
func (d Debug) Write(path string) error {
	return util.WriteJSONFile(path, d)
}
