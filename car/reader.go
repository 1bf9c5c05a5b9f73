package car

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-varint"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// maxSectionSize bounds a single section so a corrupt length prefix cannot
// trigger an unbounded allocation.
const maxSectionSize = 32 << 20

// Reader iterates the blocks of a CAR v1 stream.
type Reader struct {
	br      *bufio.Reader
	Roots   []cid.Cid
	Version uint64
}

// NewReader parses the header of a CAR v1 stream.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReader(r)
	data, err := readSection(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty stream", util.ErrInvalidCar)
		}
		return nil, err
	}

	var h header
	if err := cbor.Unmarshal(data, &h); err != nil {
		return nil, errors.Join(util.ErrInvalidCar, fmt.Errorf("decode header: %w", err))
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", util.ErrInvalidCar, h.Version)
	}

	cr := &Reader{br: br, Version: h.Version}
	for _, tag := range h.Roots {
		raw, ok := tag.Content.([]byte)
		if tag.Number != cidTag || !ok || len(raw) == 0 || raw[0] != 0x00 {
			return nil, fmt.Errorf("%w: malformed root link", util.ErrInvalidCar)
		}
		c, err := cid.Cast(raw[1:])
		if err != nil {
			return nil, errors.Join(util.ErrInvalidCar, err)
		}
		cr.Roots = append(cr.Roots, c)
	}
	if len(cr.Roots) == 0 {
		return nil, fmt.Errorf("%w: no roots", util.ErrInvalidCar)
	}
	return cr, nil
}

// Next returns the next block, or io.EOF after the last one. The block's
// bytes are checked against its CID.
func (r *Reader) Next() (blocks.Block, error) {
	data, err := readSection(r.br)
	if err != nil {
		return nil, err
	}
	n, c, err := cid.CidFromBytes(data)
	if err != nil {
		return nil, errors.Join(util.ErrInvalidCar, err)
	}
	payload := data[n:]

	sum, err := c.Prefix().Sum(payload)
	if err != nil {
		return nil, errors.Join(util.ErrInvalidCar, err)
	}
	if !sum.Equals(c) {
		return nil, fmt.Errorf("%w: block %s does not match its content", util.ErrInvalidCar, c)
	}
	return blocks.NewBlockWithCid(payload, c)
}

// Iterate yields every remaining block. A read error ends the sequence with
// a nil block and the error.
func (r *Reader) Iterate(yield func(blocks.Block, error) bool) {
	for {
		blk, err := r.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if !yield(blk, err) || err != nil {
			return
		}
	}
}

// BlockSink receives blocks read from a CAR.
type BlockSink interface {
	PutBlock(blocks.Block) error
}

// Load reads an entire CAR into sink and returns its roots and block count.
func Load(r io.Reader, sink BlockSink) ([]cid.Cid, int, error) {
	cr, err := NewReader(r)
	if err != nil {
		return nil, 0, err
	}
	count := 0
	for blk, err := range cr.Iterate {
		if err != nil {
			return cr.Roots, count, err
		}
		if err := sink.PutBlock(blk); err != nil {
			return cr.Roots, count, err
		}
		count++
	}
	return cr.Roots, count, nil
}

func readSection(br *bufio.Reader) ([]byte, error) {
	size, err := varint.ReadUvarint(br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, errors.Join(util.ErrInvalidCar, err)
	}
	if size == 0 || size > maxSectionSize {
		return nil, fmt.Errorf("%w: section size %d", util.ErrInvalidCar, size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(br, buf); err != nil {
		return nil, errors.Join(util.ErrInvalidCar, fmt.Errorf("short section: %w", err))
	}
	return buf, nil
}
