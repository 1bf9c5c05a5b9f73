package importer

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ipfs/boxo/ipld/merkledag"
	ft "github.com/ipfs/boxo/ipld/unixfs"
	uio "github.com/ipfs/boxo/ipld/unixfs/io"
	"github.com/ipfs/go-cid"
	ipld "github.com/ipfs/go-ipld-format"
)

// Resolve walks relPath from root through named directory links, the same
// lookup a gateway performs for /ipfs/<root>/<relPath>.
func Resolve(ctx context.Context, getter ipld.NodeGetter, root cid.Cid, relPath string) (ipld.Node, error) {
	nd, err := getter.Get(ctx, root)
	if err != nil {
		return nil, err
	}
	if relPath == "" {
		return nd, nil
	}
	for _, name := range strings.Split(relPath, "/") {
		pn, ok := nd.(*merkledag.ProtoNode)
		if !ok {
			return nil, fmt.Errorf("resolve %s: %s is not a directory", relPath, nd.Cid())
		}
		fsn, err := ft.FSNodeFromBytes(pn.Data())
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", relPath, err)
		}
		if !fsn.IsDir() {
			return nil, fmt.Errorf("resolve %s: %s is not a directory", relPath, nd.Cid())
		}
		lnk, err := pn.GetNodeLink(name)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", relPath, err)
		}
		nd, err = lnk.GetNode(ctx, getter)
		if err != nil {
			return nil, err
		}
	}
	return nd, nil
}

// OpenFile returns a reader over the file content at relPath under root.
func OpenFile(ctx context.Context, getter ipld.NodeGetter, root cid.Cid, relPath string) (io.Reader, error) {
	nd, err := Resolve(ctx, getter, root, relPath)
	if err != nil {
		return nil, err
	}
	return uio.NewDagReader(ctx, nd, getter)
}

// ReadFile returns the full content of the file at relPath under root.
func ReadFile(ctx context.Context, getter ipld.NodeGetter, root cid.Cid, relPath string) ([]byte, error) {
	r, err := OpenFile(ctx, getter, root, relPath)
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}
