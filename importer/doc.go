// Package importer builds UnixFS DAGs from a walked file set.
//
// The layout matches what a stock IPFS node computes for
// `ipfs add -r --cid-version=1 --raw-leaves --wrap-with-directory`:
//
//   - fixed-size chunks of 256 KiB
//   - raw-codec leaves; a file that fits in one chunk is its own leaf
//   - balanced trees with at most 174 links per dag-pb file node
//   - plain (never sharded) directories, links sorted by name, each link's
//     Tsize being the cumulative DAG size beneath it
//   - CIDv1, SHA2-256, base32 string form
//
// The same bytes under the same paths always yield the same root CID.
// Resolve and ReadFile walk an imported DAG back to file content.
package importer
