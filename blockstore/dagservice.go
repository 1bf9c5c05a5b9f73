package blockstore

import (
	"context"
	"fmt"

	"github.com/ipfs/boxo/ipld/merkledag"
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	ipld "github.com/ipfs/go-ipld-format"
)

// DAGService adapts a Store to ipld.DAGService so boxo's UnixFS builders can
// write into it and its readers can walk it.
type DAGService struct {
	store *Store
}

var _ ipld.DAGService = (*DAGService)(nil)

// NewDAGService wraps store.
func NewDAGService(store *Store) *DAGService {
	return &DAGService{store: store}
}

// Store returns the underlying block store.
func (d *DAGService) Store() *Store {
	return d.store
}

func (d *DAGService) Add(_ context.Context, nd ipld.Node) error {
	return d.store.Put(nd.Cid(), nd.RawData())
}

func (d *DAGService) AddMany(ctx context.Context, nds []ipld.Node) error {
	for _, nd := range nds {
		if err := d.Add(ctx, nd); err != nil {
			return err
		}
	}
	return nil
}

func (d *DAGService) Get(ctx context.Context, c cid.Cid) (ipld.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blk, err := d.store.GetBlock(c)
	if err != nil {
		return nil, ipld.ErrNotFound{Cid: c}
	}
	return decodeNode(blk)
}

func (d *DAGService) GetMany(ctx context.Context, cids []cid.Cid) <-chan *ipld.NodeOption {
	out := make(chan *ipld.NodeOption, len(cids))
	for _, c := range cids {
		nd, err := d.Get(ctx, c)
		out <- &ipld.NodeOption{Node: nd, Err: err}
	}
	close(out)
	return out
}

func (d *DAGService) Remove(_ context.Context, c cid.Cid) error {
	d.store.Delete(c)
	return nil
}

func (d *DAGService) RemoveMany(ctx context.Context, cids []cid.Cid) error {
	for _, c := range cids {
		if err := d.Remove(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// decodeNode turns a stored block back into a node for the two codecs the
// importer emits.
func decodeNode(blk blocks.Block) (ipld.Node, error) {
	switch blk.Cid().Type() {
	case cid.Raw:
		return merkledag.DecodeRawBlock(blk)
	case cid.DagProtobuf:
		return merkledag.DecodeProtobufBlock(blk)
	default:
		return nil, fmt.Errorf("unsupported codec 0x%x for %s", blk.Cid().Type(), blk.Cid())
	}
}
