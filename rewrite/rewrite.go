// Package rewrite produces IPFS-addressed copies of HTML files and stamps
// the root CID into index.html.
//
// Rewriting is textual: src= and href= attributes whose quoted value is
// exactly a manifest path (bare, ./-relative or /-rooted) are replaced.
// Nothing else in the document is touched, and the original file is never
// written; output goes to a sibling <name>.ipfs.html.
package rewrite

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/tarassh/webapp-ipfs-bundler/internal/logging"
	"github.com/tarassh/webapp-ipfs-bundler/manifest"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// OutputSuffix is appended, in place of .html, to rewritten copies.
const OutputSuffix = ".ipfs.html"

const htmlPattern = "**/*.html"

var (
	attrNames = []string{"src", "href"}
	quotes    = []string{`"`, `'`}
)

// SiblingPath returns the rewritten-copy path for an HTML file.
func SiblingPath(p string) string {
	return strings.TrimSuffix(p, ".html") + OutputSuffix
}

// FindHTML lists the HTML files under dir as slash-separated relative
// paths in lexical order. Previously written .ipfs.html copies are skipped.
func FindHTML(dir string) ([]string, error) {
	matches, err := doublestar.Glob(os.DirFS(dir), htmlPattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.Join(util.ErrReadFailure, fmt.Errorf("find html under %s: %w", dir, err))
	}
	out := matches[:0]
	for _, m := range matches {
		if strings.HasSuffix(m, OutputSuffix) {
			continue
		}
		out = append(out, m)
	}
	slices.Sort(out)
	return out, nil
}

// HTML rewrites asset references in content for every manifest path and
// reports how many references were replaced. The fallback for an untouched
// document is not applied here.
func HTML(content string, m manifest.Manifest, style Style) (string, int) {
	total := 0
	for _, rel := range m.Paths() {
		url := style.URL(m.Root, rel, m.Files[rel])
		for _, attr := range attrNames {
			for _, q := range quotes {
				for _, v := range []string{rel, "./" + rel, "/" + rel} {
					old := attr + "=" + q + v + q
					n := strings.Count(content, old)
					if n == 0 {
						continue
					}
					content = strings.ReplaceAll(content, old, attr+"="+q+url+q)
					total += n
				}
			}
		}
	}
	return content, total
}

// InjectBase inserts <base href="prefix"> before </head>, or prepends it
// when the document has no </head>.
func InjectBase(content, prefix string) string {
	tag := `<base href="` + prefix + `">`
	if i := strings.Index(content, "</head>"); i >= 0 {
		return content[:i] + tag + content[i:]
	}
	return tag + content
}

// Document returns the .ipfs.html body for one HTML source, applying the
// style's fallback when no reference matched.
func Document(content string, m manifest.Manifest, style Style) (string, int) {
	out, n := HTML(content, m, style)
	if n > 0 {
		return out, n
	}
	if prefix := style.BasePrefix(m.Root); prefix != "" {
		return InjectBase(content, prefix), 0
	}
	return content, 0
}

// Rewriter writes .ipfs.html siblings for the HTML files of one directory.
type Rewriter struct {
	dir    string
	style  Style
	logger *slog.Logger
}

// New returns a rewriter for dir.
func New(dir string, style Style, logger *slog.Logger) *Rewriter {
	return &Rewriter{
		dir:    dir,
		style:  style,
		logger: logging.Default(logger).With("component", "rewrite"),
	}
}

// Rewrite writes a sibling for every HTML file under the directory and
// returns the written paths relative to it.
func (r *Rewriter) Rewrite(m manifest.Manifest) ([]string, error) {
	pages, err := FindHTML(r.dir)
	if err != nil {
		return nil, err
	}

	var written []string
	for _, rel := range pages {
		src := filepath.Join(r.dir, filepath.FromSlash(rel))
		data, err := os.ReadFile(src)
		if err != nil {
			return written, errors.Join(util.ErrReadFailure, fmt.Errorf("read %s: %w", rel, err))
		}

		out, n := Document(string(data), m, r.style)
		dst := SiblingPath(rel)
		if err := util.WriteFileAtomic(filepath.Join(r.dir, filepath.FromSlash(dst)), []byte(out), 0o644); err != nil {
			return written, err
		}
		r.logger.Debug("html rewritten", "file", rel, "output", path.Base(dst), "replaced", n)
		written = append(written, dst)
	}
	return written, nil
}

// FromManifest runs the rewriter alone, reading the manifest already
// written in dir. A missing or unreadable manifest yields ErrRewriteSkipped
// and writes nothing.
func FromManifest(dir string, style Style, logger *slog.Logger) ([]string, error) {
	m, err := manifest.Read(filepath.Join(dir, util.ManifestFileName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: no %s in %s", util.ErrRewriteSkipped, util.ManifestFileName, dir)
		}
		return nil, errors.Join(util.ErrRewriteSkipped, err)
	}
	return New(dir, style, logger).Rewrite(m)
}
