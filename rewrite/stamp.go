package rewrite

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// IndexFileName is the only file the stamper modifies.
const IndexFileName = "index.html"

const rootMetaMarker = `name="ipfs-root-cid"`

// MetaTag returns the tag the stamper inserts.
func MetaTag(root string) string {
	return `<meta name="ipfs-root-cid" content="` + root + `" />`
}

// StampHTML inserts the root meta tag before </head>. It reports false, and
// returns content unchanged, when the document is already stamped or has no
// </head>.
func StampHTML(content, root string) (string, bool) {
	if strings.Contains(content, rootMetaMarker) {
		return content, false
	}
	i := strings.Index(content, "</head>")
	if i < 0 {
		return content, false
	}
	return content[:i] + MetaTag(root) + content[i:], true
}

// Stamp writes the root meta tag into dir/index.html in place. When there
// is nothing to do the returned error wraps ErrStampSkipped.
func Stamp(dir, root string) error {
	path := filepath.Join(dir, IndexFileName)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: no %s", util.ErrStampSkipped, IndexFileName)
		}
		return errors.Join(util.ErrReadFailure, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", util.ErrStampSkipped, IndexFileName)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Join(util.ErrReadFailure, fmt.Errorf("read %s: %w", IndexFileName, err))
	}
	content := string(data)
	if strings.Contains(content, rootMetaMarker) {
		return fmt.Errorf("%w: %s already stamped", util.ErrStampSkipped, IndexFileName)
	}
	out, ok := StampHTML(content, root)
	if !ok {
		return fmt.Errorf("%w: %s has no </head>", util.ErrStampSkipped, IndexFileName)
	}
	return util.WriteFileAtomic(path, []byte(out), info.Mode().Perm())
}
