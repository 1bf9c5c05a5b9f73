package rewrite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/tarassh/webapp-ipfs-bundler/blockstore"
	"github.com/tarassh/webapp-ipfs-bundler/importer"
	"github.com/tarassh/webapp-ipfs-bundler/manifest"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

var testManifest = manifest.Manifest{
	Root: "bafyroot",
	Files: map[string]string{
		"app.js":       "bafyapp",
		"css/site.css": "bafycss",
		"img/logo.png": "bafylogo",
		"index.html":   "bafyindex",
	},
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", rel, err)
	}
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		t.Fatalf("Failed to read %s: %v", rel, err)
	}
	return string(data)
}

func TestParseStyle(t *testing.T) {
	tests := []struct {
		in      string
		want    Style
		wantErr bool
	}{
		{in: "", want: StyleSchemeFile},
		{in: "path", want: StylePath},
		{in: "scheme", want: StyleScheme},
		{in: "scheme-file", want: StyleSchemeFile},
		{in: "Path", wantErr: true},
		{in: "gateway", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStyle(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseStyle(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseStyle(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestHTML(t *testing.T) {
	tests := []struct {
		name      string
		style     Style
		in        string
		want      string
		wantCount int
	}{
		{
			name:      "scheme-file double quotes",
			style:     StyleSchemeFile,
			in:        `<script src="app.js"></script>`,
			want:      `<script src="ipfs://bafyapp"></script>`,
			wantCount: 1,
		},
		{
			name:      "path style",
			style:     StylePath,
			in:        `<script src="app.js"></script>`,
			want:      `<script src="/ipfs/bafyroot/app.js"></script>`,
			wantCount: 1,
		},
		{
			name:      "scheme style keeps single quotes",
			style:     StyleScheme,
			in:        `<link href='./css/site.css'>`,
			want:      `<link href='ipfs://bafyroot/css/site.css'>`,
			wantCount: 1,
		},
		{
			name:      "rooted and relative forms",
			style:     StyleSchemeFile,
			in:        `<img src="/img/logo.png"><img src="./img/logo.png"><img src="img/logo.png">`,
			want:      `<img src="ipfs://bafylogo"><img src="ipfs://bafylogo"><img src="ipfs://bafylogo">`,
			wantCount: 3,
		},
		{
			name:      "unknown path untouched",
			style:     StyleSchemeFile,
			in:        `<script src="other.js"></script>`,
			want:      `<script src="other.js"></script>`,
			wantCount: 0,
		},
		{
			name:      "value must match exactly",
			style:     StyleSchemeFile,
			in:        `<script src="app.js?v=2"></script><a href="https://x/app.js">`,
			want:      `<script src="app.js?v=2"></script><a href="https://x/app.js">`,
			wantCount: 0,
		},
		{
			name:      "upper-case attribute not matched",
			style:     StyleSchemeFile,
			in:        `<script SRC="app.js"></script>`,
			want:      `<script SRC="app.js"></script>`,
			wantCount: 0,
		},
		{
			name:      "srcset and css url untouched",
			style:     StylePath,
			in:        `<img srcset="img/logo.png 2x"><div style="background:url(img/logo.png)">`,
			want:      `<img srcset="img/logo.png 2x"><div style="background:url(img/logo.png)">`,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := HTML(tt.in, testManifest, tt.style)
			if got != tt.want {
				t.Errorf("HTML() = %s, want %s", got, tt.want)
			}
			if n != tt.wantCount {
				t.Errorf("HTML() count = %d, want %d", n, tt.wantCount)
			}
		})
	}
}

func TestDocument_Fallback(t *testing.T) {
	tests := []struct {
		name  string
		style Style
		in    string
		want  string
	}{
		{
			name:  "scheme-file copies unchanged",
			style: StyleSchemeFile,
			in:    "<html><head></head><body>plain</body></html>",
			want:  "<html><head></head><body>plain</body></html>",
		},
		{
			name:  "path injects base before head close",
			style: StylePath,
			in:    "<html><head><title>t</title></head></html>",
			want:  `<html><head><title>t</title><base href="/ipfs/bafyroot/"></head></html>`,
		},
		{
			name:  "scheme prepends base without head",
			style: StyleScheme,
			in:    "<p>hi</p>",
			want:  `<base href="ipfs://bafyroot/"><p>hi</p>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, n := Document(tt.in, testManifest, tt.style)
			if n != 0 {
				t.Errorf("Document() count = %d, want 0", n)
			}
			if got != tt.want {
				t.Errorf("Document() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRewriter_WritesSiblings(t *testing.T) {
	dir := t.TempDir()
	index := `<html><head><title>t</title></head><body><script src="app.js"></script></body></html>`
	writeFile(t, dir, "index.html", index)
	writeFile(t, dir, "docs/about.html", `<a href="/index.html">home</a>`)
	writeFile(t, dir, "old.ipfs.html", "stale")
	writeFile(t, dir, "app.js", "x")

	written, err := New(dir, StyleSchemeFile, nil).Rewrite(testManifest)
	if err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if want := []string{"docs/about.ipfs.html", "index.ipfs.html"}; !slices.Equal(written, want) {
		t.Errorf("Rewrite() wrote %v, want %v", written, want)
	}

	if got := readFile(t, dir, "index.html"); got != index {
		t.Error("original index.html was modified")
	}
	if got := readFile(t, dir, "index.ipfs.html"); !strings.Contains(got, `<script src="ipfs://bafyapp"></script>`) {
		t.Errorf("index.ipfs.html = %s", got)
	}
	if got := readFile(t, dir, "docs/about.ipfs.html"); got != `<a href="ipfs://bafyindex">home</a>` {
		t.Errorf("docs/about.ipfs.html = %s", got)
	}
	if got := readFile(t, dir, "old.ipfs.html"); got != "stale" {
		t.Error("existing .ipfs.html output was treated as a source")
	}
}

func TestRewriter_NoMatchSchemeFileIsByteEqual(t *testing.T) {
	dir := t.TempDir()
	src := "<html>\n<head></head>\n<body>nothing to see</body>\n</html>\n"
	writeFile(t, dir, "page.html", src)

	if _, err := New(dir, StyleSchemeFile, nil).Rewrite(testManifest); err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}
	if got := readFile(t, dir, "page.ipfs.html"); got != src {
		t.Errorf("page.ipfs.html = %q, want byte-equal copy", got)
	}
}

func TestFromManifest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", `<head></head><script src="app.js"></script>`)
	writeFile(t, dir, "app.js", "console.log(1)")

	store := blockstore.New()
	res, err := importer.New(store).Import(context.Background(), util.Walk(dir, nil))
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	m := manifest.FromResult(res)
	if err := m.Write(filepath.Join(dir, util.ManifestFileName)); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	if _, err := FromManifest(dir, StylePath, nil); err != nil {
		t.Fatalf("FromManifest() error = %v", err)
	}
	want := `<script src="/ipfs/` + m.Root + `/app.js"></script>`
	if got := readFile(t, dir, "index.ipfs.html"); !strings.Contains(got, want) {
		t.Errorf("index.ipfs.html = %s, want it to contain %s", got, want)
	}
}

func TestFromManifest_Skipped(t *testing.T) {
	t.Run("missing manifest", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "index.html", "<head></head>")
		_, err := FromManifest(dir, StyleSchemeFile, nil)
		if !errors.Is(err, util.ErrRewriteSkipped) {
			t.Errorf("FromManifest() error = %v, want ErrRewriteSkipped", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "index.ipfs.html")); !os.IsNotExist(err) {
			t.Error("rewriter wrote output without a manifest")
		}
	})

	t.Run("corrupt manifest", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, util.ManifestFileName, "not json")
		_, err := FromManifest(dir, StyleSchemeFile, nil)
		if !errors.Is(err, util.ErrRewriteSkipped) {
			t.Errorf("FromManifest() error = %v, want ErrRewriteSkipped", err)
		}
	})
}

func TestSiblingPath(t *testing.T) {
	tests := map[string]string{
		"index.html":      "index.ipfs.html",
		"docs/about.html": "docs/about.ipfs.html",
	}
	for in, want := range tests {
		if got := SiblingPath(in); got != want {
			t.Errorf("SiblingPath(%q) = %q, want %q", in, got, want)
		}
	}
}
