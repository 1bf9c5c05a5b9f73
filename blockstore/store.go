// Package blockstore holds the blocks produced by a single packing operation.
//
// The store is in memory and keyed by CID string. Iteration follows insertion
// order so that writing the same DAG twice produces byte-identical CAR files.
package blockstore

import (
	"bytes"
	"errors"
	"fmt"

	blocks "github.com/ipfs/go-block-format"
	"github.com/ipfs/go-cid"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// Store is an in-memory block store. It is not safe for concurrent use; a
// store belongs to one pipeline run.
type Store struct {
	blocks map[string]blocks.Block
	order  []string
	size   int
}

// New creates an empty store.
func New() *Store {
	return &Store{blocks: make(map[string]blocks.Block)}
}

// Put stores data under c. Putting the same CID again is a no-op as long as
// the bytes are equal; differing bytes return ErrBlockMismatch.
func (s *Store) Put(c cid.Cid, data []byte) error {
	key := c.String()
	if existing, ok := s.blocks[key]; ok {
		if !bytes.Equal(existing.RawData(), data) {
			return errors.Join(util.ErrBlockMismatch, fmt.Errorf("cid %s", key))
		}
		return nil
	}
	blk, err := blocks.NewBlockWithCid(data, c)
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	s.blocks[key] = blk
	s.order = append(s.order, key)
	s.size += len(data)
	return nil
}

// PutBlock stores an already-formed block.
func (s *Store) PutBlock(blk blocks.Block) error {
	return s.Put(blk.Cid(), blk.RawData())
}

// Get returns the bytes stored under c or ErrBlockNotFound.
func (s *Store) Get(c cid.Cid) ([]byte, error) {
	blk, err := s.GetBlock(c)
	if err != nil {
		return nil, err
	}
	return blk.RawData(), nil
}

// GetBlock returns the block stored under c or ErrBlockNotFound.
func (s *Store) GetBlock(c cid.Cid) (blocks.Block, error) {
	blk, ok := s.blocks[c.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", util.ErrBlockNotFound, c)
	}
	return blk, nil
}

// Has reports whether a block is stored under c.
func (s *Store) Has(c cid.Cid) bool {
	_, ok := s.blocks[c.String()]
	return ok
}

// Delete removes the block under c, if any.
func (s *Store) Delete(c cid.Cid) {
	key := c.String()
	blk, ok := s.blocks[key]
	if !ok {
		return
	}
	delete(s.blocks, key)
	s.size -= len(blk.RawData())
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Iterate yields every block exactly once in insertion order.
func (s *Store) Iterate(yield func(blocks.Block) bool) {
	for _, key := range s.order {
		if !yield(s.blocks[key]) {
			return
		}
	}
}

// Len returns the number of distinct blocks.
func (s *Store) Len() int {
	return len(s.order)
}

// Size returns the cumulative byte size of all stored blocks.
func (s *Store) Size() int {
	return s.size
}
