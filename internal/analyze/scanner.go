// Package analyze builds disk usage trees for `am analyze --tree`.
package analyze

import (
	"cmp"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/lakshaymaurya-felt/archmole/internal/config"
)

// maxWarnings bounds the unreadable-entry messages kept per scan.
const maxWarnings = 500

// DirEntry is one node of a disk usage tree. Size is the apparent size in
// bytes; a directory's Size and Files sum its subtree.
type DirEntry struct {
	Path     string      `json:"path"`
	Name     string      `json:"name"`
	Size     int64       `json:"size"`
	Files    int64       `json:"files"`
	IsDir    bool        `json:"is_dir"`
	Children []*DirEntry `json:"children,omitempty"`
	// Scanned is false when the walk below this node was cut short.
	Scanned bool `json:"scanned"`
}

type inode struct{ dev, ino uint64 }

// Scanner walks a tree in parallel. It stays on the root's filesystem,
// never follows symlinks and counts each hard-linked file once.
type Scanner struct {
	slots   chan struct{}
	exclude map[string]bool

	rootDev uint64
	seen    sync.Map // inode -> struct{}
	visited atomic.Int64

	mu       sync.Mutex
	warnings []string
}

// NewScanner returns a scanner reading at most parallel directories at
// once. exclude lists absolute directories to skip in addition to the
// pseudo filesystems.
func NewScanner(parallel int, exclude []string) *Scanner {
	if parallel <= 0 {
		parallel = 8
	}
	s := &Scanner{
		slots:   make(chan struct{}, parallel),
		exclude: make(map[string]bool),
	}
	for _, dir := range append(config.LargeFileSkipPaths(), exclude...) {
		s.exclude[filepath.Clean(dir)] = true
	}
	return s
}

// Warnings returns the entries that could not be read.
func (s *Scanner) Warnings() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.warnings)
}

// ScannedCount returns the number of entries visited so far.
func (s *Scanner) ScannedCount() int64 {
	return s.visited.Load()
}

func (s *Scanner) warn(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.warnings) < maxWarnings {
		s.warnings = append(s.warnings, msg)
	}
}

// Scan builds the tree under root. Exclusions match whole paths only, so a
// scan rooted inside an excluded directory still runs. When ctx is canceled
// the partial tree is returned with ctx's error.
func (s *Scanner) Scan(ctx context.Context, root string) (*DirEntry, error) {
	root = filepath.Clean(root)
	info, err := os.Lstat(root)
	if err != nil {
		return nil, err
	}
	s.rootDev, _ = statIDs(info)

	node := &DirEntry{Path: root, Name: info.Name(), IsDir: info.IsDir()}
	if !node.IsDir {
		node.Size, node.Files, node.Scanned = info.Size(), 1, true
		return node, nil
	}

	s.fill(ctx, node)
	return node, ctx.Err()
}

// fill reads dir, recurses into subdirectories concurrently and totals the
// subtree once every child is done. A slot is held only for the ReadDir
// call so nested directories cannot starve each other.
func (s *Scanner) fill(ctx context.Context, dir *DirEntry) {
	if ctx.Err() != nil {
		return
	}
	s.slots <- struct{}{}
	entries, err := os.ReadDir(dir.Path)
	<-s.slots
	if err != nil {
		s.warn(err.Error())
		dir.Scanned = true
		return
	}

	var wg sync.WaitGroup
	for _, e := range entries {
		s.visited.Add(1)
		if child := s.child(dir.Path, e); child != nil {
			dir.Children = append(dir.Children, child)
			if child.IsDir {
				wg.Add(1)
				go func() {
					defer wg.Done()
					s.fill(ctx, child)
				}()
			}
		}
	}
	wg.Wait()

	for _, c := range dir.Children {
		dir.Size += c.Size
		dir.Files += c.Files
	}
	slices.SortFunc(dir.Children, func(a, b *DirEntry) int {
		return cmp.Or(cmp.Compare(b.Size, a.Size), cmp.Compare(a.Name, b.Name))
	})
	dir.Scanned = ctx.Err() == nil
}

// child turns a directory entry into a node, or nil when it is skipped.
// File sizes are final here; directory nodes are filled by the caller.
func (s *Scanner) child(parent string, e fs.DirEntry) *DirEntry {
	path := filepath.Join(parent, e.Name())
	symlink := e.Type()&fs.ModeSymlink != 0
	isDir := e.IsDir() && !symlink
	if isDir && s.exclude[path] {
		return nil
	}

	info, err := e.Info()
	if err != nil {
		s.warn(err.Error())
		return nil
	}
	dev, ino := statIDs(info)
	if isDir {
		if s.rootDev != 0 && dev != s.rootDev {
			s.warn("skipping mount point " + path)
			return nil
		}
		return &DirEntry{Path: path, Name: e.Name(), IsDir: true}
	}

	node := &DirEntry{Path: path, Name: e.Name(), Files: 1, Scanned: true}
	if s.firstLink(info, dev, ino) {
		node.Size = info.Size()
	}
	return node
}

// firstLink reports whether this is the first path seen for a multiply
// linked inode. Files with a single link always count.
func (s *Scanner) firstLink(info fs.FileInfo, dev, ino uint64) bool {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok || st.Nlink <= 1 {
		return true
	}
	_, dup := s.seen.LoadOrStore(inode{dev, ino}, struct{}{})
	return !dup
}

// statIDs returns the device and inode of info, zeros when unknown.
func statIDs(info fs.FileInfo) (dev, ino uint64) {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return uint64(st.Dev), uint64(st.Ino)
	}
	return 0, 0
}
