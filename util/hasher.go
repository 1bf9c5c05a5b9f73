package util

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// GetFileDigest hashes a file and returns its raw SHA-256 digest.
func GetFileDigest(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrExpectedFile
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return GetDigest(file)
}

// GetDigest calculates the SHA-256 digest of data from an io.Reader.
func GetDigest(r io.Reader) ([]byte, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return nil, err
	}
	return h.Sum(nil), nil
}

// GetHash calculates the SHA-256 hash of data from an io.Reader.
// It returns the hash as a hexadecimal string.
func GetHash(r io.Reader) (string, error) {
	digest, err := GetDigest(r)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%x", digest), nil
}

// RawCidFromDigest wraps a SHA-256 digest as a CIDv1 with the raw codec.
// For content that fits in a single chunk this is the same CID the importer
// assigns; for larger files it addresses the concatenated bytes instead of
// the DAG.
func RawCidFromDigest(digest []byte) (cid.Cid, error) {
	m, err := mh.Encode(digest, mh.SHA2_256)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, m), nil
}

// GetFileRawCid returns the raw-codec CID of a whole file.
func GetFileRawCid(path string) (cid.Cid, error) {
	digest, err := GetFileDigest(path)
	if err != nil {
		return cid.Undef, err
	}
	return RawCidFromDigest(digest)
}
