package upload

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/tarassh/webapp-ipfs-bundler/util"
)

type part struct {
	name        string
	contentType string
	body        string
}

// fakeNode records add requests and answers with a canned response.
type fakeNode struct {
	mu       sync.Mutex
	query    url.Values
	auth     string
	parts    []part
	status   int
	response func(parts []part) []AddEntry
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != addPath || r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	mr, err := r.MultipartReader()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var parts []part
	for {
		p, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		body, _ := io.ReadAll(p)
		name, _ := url.QueryUnescape(p.FileName())
		parts = append(parts, part{name: name, contentType: p.Header.Get("Content-Type"), body: string(body)})
	}

	n.mu.Lock()
	n.query = r.URL.Query()
	n.auth = r.Header.Get("Authorization")
	n.parts = parts
	n.mu.Unlock()

	if n.status != 0 {
		http.Error(w, "denied", n.status)
		return
	}
	enc := json.NewEncoder(w)
	for _, e := range n.response(parts) {
		enc.Encode(e)
	}
}

func (n *fakeNode) snapshot() (url.Values, string, []part) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.query, n.auth, n.parts
}

func writeSite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"index.html":          "<html></html>",
		"assets/app.js":       "x",
		"assets/css/a.css":    "p{}",
		util.CarFileName:      "old car",
		util.ManifestFileName: "{}",
	}
	for rel, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("Failed to create directory: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", rel, err)
		}
	}
	return dir
}

// wrapped answers like a node that names the wrapper "".
func wrapped(parts []part) []AddEntry {
	var out []AddEntry
	for _, p := range parts {
		out = append(out, AddEntry{Name: p.name, Hash: "cid-" + p.name, Size: "1"})
	}
	return append(out, AddEntry{Name: "", Hash: "cid-root"})
}

func TestUpload_EmptyNameRoot(t *testing.T) {
	dir := writeSite(t)
	node := &fakeNode{response: wrapped}
	srv := httptest.NewServer(node)
	defer srv.Close()

	res, err := Upload(context.Background(), dir, Options{
		APIURL:            srv.URL,
		AuthHeader:        "Bearer secret",
		WrapWithDirectory: true,
		Pin:               true,
	}, nil)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.RootCid != "cid-root" {
		t.Errorf("RootCid = %s, want cid-root", res.RootCid)
	}
	if len(res.FileCids) != 3 || res.FileCids["assets/app.js"] != "cid-assets/app.js" {
		t.Errorf("FileCids = %v", res.FileCids)
	}

	query, auth, parts := node.snapshot()
	if auth != "Bearer secret" {
		t.Errorf("Authorization = %q, want %q", auth, "Bearer secret")
	}
	for key, want := range map[string]string{
		"cid-version":         "1",
		"raw-leaves":          "true",
		"wrap-with-directory": "true",
		"pin":                 "true",
		"chunker":             "size-262144",
	} {
		if got := query.Get(key); got != want {
			t.Errorf("query %s = %q, want %q", key, got, want)
		}
	}

	var names []string
	for _, p := range parts {
		names = append(names, p.name)
	}
	want := []string{"assets", "assets/app.js", "assets/css", "assets/css/a.css", "index.html"}
	if !slices.Equal(names, want) {
		t.Errorf("parts = %v, want %v", names, want)
	}
	for _, p := range parts {
		isDir := p.contentType == "application/x-directory"
		if isDir != (p.name == "assets" || p.name == "assets/css") {
			t.Errorf("part %s content type = %s", p.name, p.contentType)
		}
		if p.name == "assets/app.js" && p.body != "x" {
			t.Errorf("assets/app.js body = %q, want %q", p.body, "x")
		}
	}
}

func TestUpload_DirNameRoot(t *testing.T) {
	dir := writeSite(t)
	node := &fakeNode{response: func(parts []part) []AddEntry {
		var out []AddEntry
		for _, p := range parts {
			out = append(out, AddEntry{Name: p.name, Hash: "cid-" + p.name})
		}
		return out
	}}
	srv := httptest.NewServer(node)
	defer srv.Close()

	res, err := Upload(context.Background(), dir, Options{APIURL: srv.URL, DirName: "site"}, nil)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.RootCid != "cid-site" {
		t.Errorf("RootCid = %s, want cid-site", res.RootCid)
	}
	if got := res.FileCids["index.html"]; got != "cid-site/index.html" {
		t.Errorf("FileCids[index.html] = %s", got)
	}
	_, _, parts := node.snapshot()
	if len(parts) == 0 || parts[0].name != "site" || parts[0].contentType != "application/x-directory" {
		t.Errorf("parts = %+v, want site directory first", parts)
	}
}

func TestUpload_DirNameWithWrapping(t *testing.T) {
	dir := writeSite(t)
	node := &fakeNode{response: wrapped}
	srv := httptest.NewServer(node)
	defer srv.Close()

	res, err := Upload(context.Background(), dir, Options{
		APIURL:            srv.URL,
		DirName:           "site",
		WrapWithDirectory: true,
	}, nil)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if res.RootCid != "cid-site" {
		t.Errorf("RootCid = %s, want cid-site", res.RootCid)
	}
	if len(res.FileCids) != 3 || res.FileCids["assets/css/a.css"] != "cid-site/assets/css/a.css" {
		t.Errorf("FileCids = %v", res.FileCids)
	}
	query, _, _ := node.snapshot()
	if got := query.Get("wrap-with-directory"); got != "false" {
		t.Errorf("query wrap-with-directory = %q, want false", got)
	}
}

func TestUpload_UnreadableFileFails(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read any file")
	}
	dir := writeSite(t)
	locked := filepath.Join(dir, "assets", "app.js")
	if err := os.Chmod(locked, 0); err != nil {
		t.Fatalf("Failed to chmod: %v", err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0644) })

	srv := httptest.NewServer(&fakeNode{response: wrapped})
	defer srv.Close()

	_, err := Upload(context.Background(), dir, Options{APIURL: srv.URL, WrapWithDirectory: true}, nil)
	if !errors.Is(err, util.ErrUploadFailure) {
		t.Errorf("Upload() error = %v, want ErrUploadFailure", err)
	}
}

func TestUpload_NoRootFails(t *testing.T) {
	dir := writeSite(t)
	node := &fakeNode{response: func(parts []part) []AddEntry {
		return []AddEntry{{Name: "index.html", Hash: "a"}, {Name: "assets/app.js", Hash: "b"}}
	}}
	srv := httptest.NewServer(node)
	defer srv.Close()

	_, err := Upload(context.Background(), dir, Options{APIURL: srv.URL}, nil)
	if !errors.Is(err, util.ErrUploadFailure) {
		t.Errorf("Upload() error = %v, want ErrUploadFailure", err)
	}
}

func TestUpload_HTTPStatusFails(t *testing.T) {
	dir := writeSite(t)
	srv := httptest.NewServer(&fakeNode{status: http.StatusUnauthorized})
	defer srv.Close()

	_, err := Upload(context.Background(), dir, Options{APIURL: srv.URL}, nil)
	if !errors.Is(err, util.ErrUploadFailure) {
		t.Fatalf("Upload() error = %v, want ErrUploadFailure", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Errorf("error %q does not mention the status", err)
	}
}

func TestUpload_TransportFails(t *testing.T) {
	dir := writeSite(t)
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := Upload(context.Background(), dir, Options{APIURL: addr}, nil)
	if !errors.Is(err, util.ErrUploadFailure) {
		t.Errorf("Upload() error = %v, want ErrUploadFailure", err)
	}
}

func TestUpload_EmptyDirFails(t *testing.T) {
	_, err := Upload(context.Background(), t.TempDir(), Options{APIURL: "http://127.0.0.1:1"}, nil)
	if !errors.Is(err, util.ErrUploadFailure) {
		t.Errorf("Upload() error = %v, want ErrUploadFailure", err)
	}
}

func TestResolveRoot(t *testing.T) {
	files := []util.FileEntry{{RelPath: "a.txt"}, {RelPath: "d/b.txt"}}
	tests := []struct {
		name     string
		entries  []AddEntry
		dirName  string
		wantRoot string
		wantErr  bool
	}{
		{
			name:     "empty name",
			entries:  []AddEntry{{Name: "a.txt", Hash: "A"}, {Name: "d/b.txt", Hash: "B"}, {Name: "d", Hash: "D"}, {Name: "", Hash: "R"}},
			wantRoot: "R",
		},
		{
			name:     "directory name",
			entries:  []AddEntry{{Name: "w/a.txt", Hash: "A"}, {Name: "w/d/b.txt", Hash: "B"}, {Name: "w/d", Hash: "D"}, {Name: "w", Hash: "R"}},
			wantRoot: "R",
		},
		{
			name:     "named directory inside a wrapper",
			entries:  []AddEntry{{Name: "w/a.txt", Hash: "A"}, {Name: "w/d/b.txt", Hash: "B"}, {Name: "w/d", Hash: "D"}, {Name: "w", Hash: "W"}, {Name: "", Hash: "R"}},
			dirName:  "w",
			wantRoot: "W",
		},
		{
			name:    "named directory missing",
			entries: []AddEntry{{Name: "a.txt", Hash: "A"}, {Name: "", Hash: "R"}},
			dirName: "w",
			wantErr: true,
		},
		{
			name:    "single file is not a directory root",
			entries: []AddEntry{{Name: "a.txt", Hash: "A"}},
			wantErr: true,
		},
		{
			name:    "mixed top level",
			entries: []AddEntry{{Name: "a.txt", Hash: "A"}, {Name: "d", Hash: "D"}, {Name: "d/b.txt", Hash: "B"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ResolveRoot(tt.entries, files, tt.dirName)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveRoot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if res.RootCid != tt.wantRoot {
				t.Errorf("RootCid = %s, want %s", res.RootCid, tt.wantRoot)
			}
			if res.FileCids["a.txt"] != "A" || res.FileCids["d/b.txt"] != "B" {
				t.Errorf("FileCids = %v", res.FileCids)
			}
		})
	}
}

func TestDecodeEntries(t *testing.T) {
	body := `{"Name":"a.txt","Hash":"A","Size":"3"}
{"Name":"","Bytes":100}
{"Name":"","Hash":"R","Size":"50"}
`
	entries, err := DecodeEntries(strings.NewReader(body))
	if err != nil {
		t.Fatalf("DecodeEntries() error = %v", err)
	}
	if len(entries) != 2 || entries[1].Hash != "R" {
		t.Errorf("DecodeEntries() = %+v, want progress lines dropped", entries)
	}

	if _, err := DecodeEntries(strings.NewReader("{bad")); err == nil {
		t.Error("DecodeEntries() of bad json returned nil error")
	}
}
