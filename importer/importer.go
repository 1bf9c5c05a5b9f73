package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"slices"
	"strings"

	chunker "github.com/ipfs/boxo/chunker"
	ft "github.com/ipfs/boxo/ipld/unixfs"
	"github.com/ipfs/boxo/ipld/unixfs/importer/balanced"
	ihelper "github.com/ipfs/boxo/ipld/unixfs/importer/helpers"
	"github.com/ipfs/go-cid"
	ipld "github.com/ipfs/go-ipld-format"
	mh "github.com/multiformats/go-multihash"
	"github.com/tarassh/webapp-ipfs-bundler/blockstore"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// Layout constants. Changing any of them changes every CID the importer
// emits, so they are not configurable.
const (
	ChunkSize       = 262144 // fixed-size chunker, 256 KiB
	MaxLinksPerNode = 174    // balanced layout fan-out
)

// EntryType distinguishes files from directories in import records.
type EntryType string

const (
	TypeFile      EntryType = "file"
	TypeDirectory EntryType = "directory"
)

// Entry is one (path, cid) record produced by an import. The wrapping
// directory has an empty Path.
type Entry struct {
	Path     string
	Cid      cid.Cid
	Type     EntryType
	FileSize int64  // bytes of file content, 0 for directories
	DagSize  uint64 // cumulative encoded size of the DAG under Cid
}

// Result is the outcome of importing a file set.
type Result struct {
	Root    cid.Cid
	Entries []Entry
}

// Files returns the file records keyed by path.
func (r Result) Files() map[string]cid.Cid {
	files := make(map[string]cid.Cid)
	for _, e := range r.Entries {
		if e.Type == TypeFile {
			files[e.Path] = e.Cid
		}
	}
	return files
}

// FileCount returns the number of file records.
func (r Result) FileCount() int {
	n := 0
	for _, e := range r.Entries {
		if e.Type == TypeFile {
			n++
		}
	}
	return n
}

// CidBuilder returns the builder used for every structural node: CIDv1,
// dag-pb, SHA2-256. Leaves switch the codec to raw.
func CidBuilder() cid.Builder {
	return cid.V1Builder{Codec: cid.DagProtobuf, MhType: mh.SHA2_256, MhLength: -1}
}

// dirNode accumulates the children of one directory until it is sealed.
type dirNode struct {
	files map[string]ipld.Node
	dirs  map[string]*dirNode
}

func newDirNode() *dirNode {
	return &dirNode{files: make(map[string]ipld.Node), dirs: make(map[string]*dirNode)}
}

// Importer turns a file set into a UnixFS DAG written to a block store.
type Importer struct {
	dag *blockstore.DAGService
}

// New creates an importer that writes into store.
func New(store *blockstore.Store) *Importer {
	return &Importer{dag: blockstore.NewDAGService(store)}
}

// ImportReader imports a single file's content and returns its root node.
// Files up to one chunk become a single raw leaf; larger files become a
// balanced dag-pb tree over raw leaves.
func (im *Importer) ImportReader(r io.Reader) (ipld.Node, error) {
	params := ihelper.DagBuilderParams{
		Dagserv:    im.dag,
		RawLeaves:  true,
		Maxlinks:   MaxLinksPerNode,
		CidBuilder: CidBuilder(),
	}
	db, err := params.New(chunker.NewSizeSplitter(r, ChunkSize))
	if err != nil {
		return nil, err
	}
	return balanced.Layout(db)
}

// Import ingests every entry of files under a single wrapping directory.
// Records are returned for each file in input order, then for each
// directory bottom-up, ending with the wrapper whose Path is "".
// An empty file set fails with ErrImportFailure.
func (im *Importer) Import(ctx context.Context, files iter.Seq2[util.FileEntry, error]) (Result, error) {
	var res Result
	root := newDirNode()

	for fe, err := range files {
		if err != nil {
			return Result{}, err
		}
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		nd, err := im.importFile(fe)
		if err != nil {
			return Result{}, err
		}
		dagSize, err := nd.Size()
		if err != nil {
			return Result{}, errors.Join(util.ErrImportFailure, err)
		}
		if err := root.insert(fe.RelPath, nd); err != nil {
			return Result{}, err
		}
		res.Entries = append(res.Entries, Entry{
			Path:     fe.RelPath,
			Cid:      nd.Cid(),
			Type:     TypeFile,
			FileSize: fe.Size,
			DagSize:  dagSize,
		})
	}

	if len(res.Entries) == 0 {
		return Result{}, fmt.Errorf("%w: no files to import", util.ErrImportFailure)
	}

	rootNode, err := im.seal(ctx, root, "", &res.Entries)
	if err != nil {
		return Result{}, err
	}
	res.Root = rootNode.Cid()
	return res, nil
}

func (im *Importer) importFile(fe util.FileEntry) (ipld.Node, error) {
	rc, err := fe.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	nd, err := im.ImportReader(rc)
	if err != nil {
		return nil, errors.Join(util.ErrReadFailure, fmt.Errorf("import %s: %w", fe.RelPath, err))
	}
	return nd, nil
}

// insert places a file node at relPath, creating intermediate directories.
func (d *dirNode) insert(relPath string, nd ipld.Node) error {
	parts := strings.Split(relPath, "/")
	cur := d
	for _, part := range parts[:len(parts)-1] {
		if _, clash := cur.files[part]; clash {
			return fmt.Errorf("%w: %s is both a file and a directory", util.ErrImportFailure, part)
		}
		next, ok := cur.dirs[part]
		if !ok {
			next = newDirNode()
			cur.dirs[part] = next
		}
		cur = next
	}
	name := parts[len(parts)-1]
	if _, clash := cur.dirs[name]; clash {
		return fmt.Errorf("%w: %s is both a file and a directory", util.ErrImportFailure, relPath)
	}
	cur.files[name] = nd
	return nil
}

// seal encodes d and its subdirectories as plain UnixFS directories with
// links sorted by name, appending a record for each directory.
func (im *Importer) seal(ctx context.Context, d *dirNode, path string, entries *[]Entry) (ipld.Node, error) {
	nd := ft.EmptyDirNode()
	if err := nd.SetCidBuilder(CidBuilder()); err != nil {
		return nil, errors.Join(util.ErrImportFailure, err)
	}

	names := make([]string, 0, len(d.files)+len(d.dirs))
	for name := range d.files {
		names = append(names, name)
	}
	for name := range d.dirs {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		child, ok := d.files[name]
		if !ok {
			sub, err := im.seal(ctx, d.dirs[name], joinPath(path, name), entries)
			if err != nil {
				return nil, err
			}
			child = sub
		}
		if err := nd.AddNodeLink(name, child); err != nil {
			return nil, errors.Join(util.ErrImportFailure, fmt.Errorf("link %s: %w", joinPath(path, name), err))
		}
	}

	if err := im.dag.Add(ctx, nd); err != nil {
		return nil, errors.Join(util.ErrImportFailure, err)
	}
	dagSize, err := nd.Size()
	if err != nil {
		return nil, errors.Join(util.ErrImportFailure, err)
	}
	*entries = append(*entries, Entry{
		Path:    path,
		Cid:     nd.Cid(),
		Type:    TypeDirectory,
		DagSize: dagSize,
	})
	return nd, nil
}

func joinPath(dir, name string) string {
	if dir == "" {
		return name
	}
	return dir + "/" + name
}
