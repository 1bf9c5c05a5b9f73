// Package upload posts a packed directory to an IPFS HTTP API node.
//
// The request mirrors `ipfs add -r --cid-version=1 --raw-leaves
// --wrap-with-directory`, so a correctly configured node reports the same
// root CID the local importer computed. Every failure is an
// ErrUploadFailure; callers treat it as a warning.
package upload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ipfs/boxo/files"
	"github.com/tarassh/webapp-ipfs-bundler/importer"
	"github.com/tarassh/webapp-ipfs-bundler/internal/logging"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// DefaultAPIURL is the address of a local node's API.
const DefaultAPIURL = "http://127.0.0.1:5001"

const addPath = "/api/v0/add"

// Options configures an upload.
type Options struct {
	APIURL            string
	AuthHeader        string // sent verbatim as the Authorization header
	WrapWithDirectory bool
	Pin               bool
	// DirName, when set, places every file under a top-level directory of
	// that name instead of at the root of the request.
	DirName string
	Timeout time.Duration
}

// Result is what the node reported for the upload.
type Result struct {
	RootCid  string
	FileCids map[string]string
}

// AddEntry is one line of the node's newline-delimited JSON response.
type AddEntry struct {
	Name string `json:"Name"`
	Hash string `json:"Hash"`
	Size string `json:"Size,omitempty"`
}

// Client talks to one IPFS HTTP API endpoint.
type Client struct {
	opts   Options
	http   *http.Client
	logger *slog.Logger
}

// New returns a client. A zero APIURL selects DefaultAPIURL.
func New(opts Options, logger *slog.Logger) *Client {
	if opts.APIURL == "" {
		opts.APIURL = DefaultAPIURL
	}
	return &Client{
		opts:   opts,
		http:   &http.Client{Timeout: opts.Timeout},
		logger: logging.Default(logger).With("component", "upload"),
	}
}

// Upload posts every non-excluded file under dir and returns the root and
// per-file CIDs the node assigned.
func Upload(ctx context.Context, dir string, opts Options, logger *slog.Logger) (Result, error) {
	return New(opts, logger).Upload(ctx, dir)
}

// AddURL returns the endpoint with the query parameters that pin the
// node's import settings to the local importer's.
func (c *Client) AddURL() (string, error) {
	base, err := url.Parse(strings.TrimRight(c.opts.APIURL, "/") + addPath)
	if err != nil {
		return "", fmt.Errorf("api url %q: %w", c.opts.APIURL, err)
	}
	q := url.Values{}
	q.Set("cid-version", "1")
	q.Set("raw-leaves", "true")
	q.Set("chunker", "size-"+strconv.Itoa(importer.ChunkSize))
	// A named top-level directory is its own wrapper.
	wrap := c.opts.WrapWithDirectory && c.opts.DirName == ""
	q.Set("wrap-with-directory", strconv.FormatBool(wrap))
	q.Set("pin", strconv.FormatBool(c.opts.Pin))
	base.RawQuery = q.Encode()
	return base.String(), nil
}

// Upload posts dir to the node.
func (c *Client) Upload(ctx context.Context, dir string) (Result, error) {
	walked, err := util.Collect(util.Walk(dir, func(rel string, err error) {
		c.logger.Warn("not uploading", "path", rel, "error", err)
	}))
	if err != nil {
		return Result{}, errors.Join(util.ErrUploadFailure, err)
	}
	if len(walked) == 0 {
		return Result{}, fmt.Errorf("%w: no files in %s", util.ErrUploadFailure, dir)
	}
	return c.UploadFiles(ctx, walked)
}

// UploadFiles posts exactly the given files.
func (c *Client) UploadFiles(ctx context.Context, walked []util.FileEntry) (Result, error) {
	if len(walked) == 0 {
		return Result{}, fmt.Errorf("%w: nothing to upload", util.ErrUploadFailure)
	}

	endpoint, err := c.AddURL()
	if err != nil {
		return Result{}, errors.Join(util.ErrUploadFailure, err)
	}

	dir, closeAll := requestTree(walked, c.opts.DirName)
	defer closeAll()
	body := files.NewMultiFileReader(dir, true, false)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return Result{}, errors.Join(util.ErrUploadFailure, err)
	}
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+body.Boundary())
	if c.opts.AuthHeader != "" {
		req.Header.Set("Authorization", c.opts.AuthHeader)
	}

	c.logger.Info("uploading", "files", len(walked), "endpoint", c.opts.APIURL)
	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, errors.Join(util.ErrUploadFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{}, fmt.Errorf("%w: %s: %s", util.ErrUploadFailure, resp.Status, strings.TrimSpace(string(msg)))
	}

	entries, err := DecodeEntries(resp.Body)
	if err != nil {
		return Result{}, errors.Join(util.ErrUploadFailure, err)
	}
	res, err := ResolveRoot(entries, walked, c.opts.DirName)
	if err != nil {
		return Result{}, err
	}
	c.logger.Info("upload finished", "root", res.RootCid, "files", len(res.FileCids))
	return res, nil
}

// DecodeEntries reads a newline-delimited JSON add response.
func DecodeEntries(r io.Reader) ([]AddEntry, error) {
	dec := json.NewDecoder(r)
	var entries []AddEntry
	for {
		var e AddEntry
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, fmt.Errorf("decode add response: %w", err)
		}
		if e.Hash == "" {
			continue
		}
		entries = append(entries, e)
	}
}

// ResolveRoot finds the directory root in an add response. With dirName set
// the root is that directory's entry. Otherwise nodes report it either as
// the entry with an empty name or under the name of the single top-level
// directory. A top-level directory prefix is stripped from the file names.
// Anything else is an ErrUploadFailure.
func ResolveRoot(entries []AddEntry, walked []util.FileEntry, dirName string) (Result, error) {
	byName := make(map[string]string, len(entries))
	for _, e := range entries {
		byName[e.Name] = e.Hash
	}

	res := Result{FileCids: make(map[string]string)}
	prefix := ""
	if dirName != "" {
		root, ok := byName[dirName]
		if !ok {
			return Result{}, fmt.Errorf("%w: response has no entry for %s", util.ErrUploadFailure, dirName)
		}
		res.RootCid = root
		prefix = dirName + "/"
	} else if root, ok := byName[""]; ok {
		res.RootCid = root
	} else if top := topLevelDir(entries); top != "" {
		res.RootCid = byName[top]
		prefix = top + "/"
	} else {
		return Result{}, fmt.Errorf("%w: response names no directory root", util.ErrUploadFailure)
	}

	for _, fe := range walked {
		if h, ok := byName[prefix+fe.RelPath]; ok {
			res.FileCids[fe.RelPath] = h
		}
	}
	return res, nil
}

// topLevelDir returns the name X when an entry named X exists and every
// other entry, of which there is at least one, is X/..., otherwise "".
func topLevelDir(entries []AddEntry) string {
	var top string
	named, nested := false, false
	for _, e := range entries {
		first, _, hasSlash := strings.Cut(e.Name, "/")
		switch {
		case first == "":
			return ""
		case top == "":
			top = first
		case top != first:
			return ""
		}
		if hasSlash {
			nested = true
		} else {
			named = true
		}
	}
	if !named || !nested {
		return ""
	}
	return top
}
