package upload

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ipfs/boxo/files"
	"github.com/tarassh/webapp-ipfs-bundler/util"
)

// tree is a directory of walked files, keyed by base name.
type tree struct {
	files map[string]*lazyFile
	dirs  map[string]*tree
}

func newTree() *tree {
	return &tree{files: map[string]*lazyFile{}, dirs: map[string]*tree{}}
}

func (t *tree) add(f *lazyFile) {
	cur := t
	rel := f.entry.RelPath
	for {
		dir, rest, nested := strings.Cut(rel, "/")
		if !nested {
			cur.files[rel] = f
			return
		}
		sub, ok := cur.dirs[dir]
		if !ok {
			sub = newTree()
			cur.dirs[dir] = sub
		}
		cur, rel = sub, rest
	}
}

func (t *tree) directory() files.Directory {
	m := make(map[string]files.Node, len(t.files)+len(t.dirs))
	for name, f := range t.files {
		m[name] = f
	}
	for name, sub := range t.dirs {
		m[name] = sub.directory()
	}
	return files.NewMapDirectory(m)
}

// requestTree arranges walked files as the directory posted to the node,
// nested under dirName when it is set. closeAll releases any file left open
// by a request that ended early.
func requestTree(walked []util.FileEntry, dirName string) (dir files.Directory, closeAll func()) {
	t := newTree()
	opened := make([]*lazyFile, 0, len(walked))
	for _, fe := range walked {
		f := &lazyFile{entry: fe}
		opened = append(opened, f)
		t.add(f)
	}
	closeAll = func() {
		for _, f := range opened {
			f.Close()
		}
	}
	dir = t.directory()
	if dirName != "" {
		dir = files.NewMapDirectory(map[string]files.Node{dirName: dir})
	}
	return dir, closeAll
}

// lazyFile opens its file on first read, so a large site holds one
// descriptor at a time while the body streams.
type lazyFile struct {
	entry util.FileEntry

	mu     sync.Mutex
	rc     io.ReadCloser
	closed bool
}

var _ files.File = (*lazyFile)(nil)

func (f *lazyFile) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return 0, os.ErrClosed
	}
	if f.rc == nil {
		rc, err := f.entry.Open()
		if err != nil {
			return 0, err
		}
		f.rc = rc
	}
	return f.rc.Read(p)
}

func (f *lazyFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.rc == nil {
		return nil
	}
	err := f.rc.Close()
	f.rc = nil
	return err
}

func (f *lazyFile) Seek(int64, int) (int64, error) { return 0, files.ErrNotSupported }

func (f *lazyFile) Size() (int64, error) { return f.entry.Size, nil }

// Mode and ModTime are left unset; the node's defaults then match the
// local importer, which records neither.
func (f *lazyFile) Mode() os.FileMode { return 0 }

func (f *lazyFile) ModTime() time.Time { return time.Time{} }
