// Package version reports build metadata for ipfs-bundler.
//
// Values come from -ldflags when set:
//
//	-ldflags "-X github.com/tarassh/webapp-ipfs-bundler/version.Version=v1.0.0 -X github.com/tarassh/webapp-ipfs-bundler/version.Commit=abc123"
//
// and otherwise from the Go build info embedded in the binary. The root
// command's --version flag and ipfs-debug.json both read from here.
package version
