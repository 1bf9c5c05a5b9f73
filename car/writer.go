// Package car reads and writes Content Addressable aRchives, version 1.
//
// A CAR v1 stream is a varint-prefixed DAG-CBOR header
// {roots: [cid], version: 1} followed by varint-prefixed sections, each the
// concatenation of a block's binary CID and its bytes.
package car

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-varint"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// cidTag is the CBOR tag registered for IPLD links.
const cidTag = 42

// Version is the only CAR version this package writes.
const Version = 1

// header is encoded with deterministic key order, so roots precedes version.
type header struct {
	Roots   []cbor.Tag `cbor:"roots"`
	Version uint64     `cbor:"version"`
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("car: CBOR encoder initialization failed: " + err.Error())
	}
}

// BlockSource is anything that can list its blocks exactly once.
type BlockSource interface {
	Iterate(yield func(blocks.Block) bool)
}

// EncodeHeader returns the DAG-CBOR header for the given roots.
func EncodeHeader(roots ...cid.Cid) ([]byte, error) {
	h := header{Version: Version}
	for _, r := range roots {
		// DAG-CBOR links carry a leading multibase identity prefix.
		h.Roots = append(h.Roots, cbor.Tag{Number: cidTag, Content: append([]byte{0x00}, r.Bytes()...)})
	}
	return encMode.Marshal(h)
}

// Write streams a CAR v1 with a single root and every block of src to w.
// It returns the number of blocks written.
func Write(w io.Writer, root cid.Cid, src BlockSource) (int, error) {
	bw := bufio.NewWriter(w)

	hdr, err := EncodeHeader(root)
	if err != nil {
		return 0, fmt.Errorf("encode car header: %w", err)
	}
	if err := writeSection(bw, hdr); err != nil {
		return 0, err
	}

	count := 0
	var writeErr error
	for blk := range src.Iterate {
		if writeErr = writeSection(bw, blk.Cid().Bytes(), blk.RawData()); writeErr != nil {
			break
		}
		count++
	}
	if writeErr != nil {
		return count, writeErr
	}
	return count, bw.Flush()
}

// WriteFile writes the CAR to path through a temporary file in the same
// directory. Failures are tagged with ErrWriteFailure.
func WriteFile(path string, root cid.Cid, src BlockSource) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), util.TempPrefix+"car-*")
	if err != nil {
		return 0, errors.Join(util.ErrWriteFailure, fmt.Errorf("create temp car: %w", err))
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	n, err := Write(tmp, root, src)
	if err != nil {
		tmp.Close()
		return n, errors.Join(util.ErrWriteFailure, fmt.Errorf("write %s: %w", path, err))
	}
	if err := tmp.Close(); err != nil {
		return n, errors.Join(util.ErrWriteFailure, fmt.Errorf("close %s: %w", path, err))
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return n, errors.Join(util.ErrWriteFailure, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return n, errors.Join(util.ErrWriteFailure, fmt.Errorf("rename %s: %w", path, err))
	}
	return n, nil
}

func writeSection(w io.Writer, parts ...[]byte) error {
	var total uint64
	for _, p := range parts {
		total += uint64(len(p))
	}
	if _, err := w.Write(varint.ToUvarint(total)); err != nil {
		return err
	}
	for _, p := range parts {
		if _, err := w.Write(p); err != nil {
			return err
		}
	}
	return nil
}
