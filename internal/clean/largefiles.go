package clean

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/lakshaymaurya-felt/archmole/internal/config"
	"github.com/lakshaymaurya-felt/archmole/internal/core"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
)

// LargeFileThreshold is the `find -size` argument for the large file scan.
const LargeFileThreshold = "+100M"

// ─── Large File Scanning ─────────────────────────────────────────────────────

// LargeFile is one match of the large file scan.
type LargeFile struct {
	Path string
	Size int64
}

// pruneDirs returns the directories pruned from a scan of root. Excluded
// directories that contain root itself are dropped, so scanning inside an
// excluded tree still works.
func pruneDirs(root string, exclude []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, d := range append(config.LargeFileSkipPaths(), exclude...) {
		d = filepath.Clean(d)
		if d == "" || seen[d] || config.IsExcluded(root, []string{d}) {
			continue
		}
		seen[d] = true
		dirs = append(dirs, d)
	}
	return dirs
}

// LargeFilesSpec builds the find invocation for root.
func LargeFilesSpec(root string, exclude []string) runner.Spec {
	root = filepath.Clean(root)
	args := []string{root}
	if dirs := pruneDirs(root, exclude); len(dirs) > 0 {
		args = append(args, "(")
		for i, d := range dirs {
			if i > 0 {
				args = append(args, "-o")
			}
			args = append(args, "-path", d)
		}
		args = append(args, ")", "-prune", "-o")
	}
	args = append(args, "-type", "f", "-size", LargeFileThreshold, "-printf", `%s\t%p\n`)
	return runner.Command("find", args...)
}

// ParseLargeFiles reads `size<TAB>path` lines, largest first.
func ParseLargeFiles(out string) []LargeFile {
	var files []LargeFile
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		sizeText, path, ok := strings.Cut(scanner.Text(), "\t")
		if !ok {
			continue
		}
		size, err := strconv.ParseInt(strings.TrimSpace(sizeText), 10, 64)
		if err != nil {
			continue
		}
		files = append(files, LargeFile{Path: path, Size: size})
	}
	sort.SliceStable(files, func(i, j int) bool { return files[i].Size > files[j].Size })
	return files
}

// FormatLargeFiles renders files one per line with a human size.
func FormatLargeFiles(files []LargeFile) string {
	var b strings.Builder
	for i, f := range files {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%10s  %s", core.FormatSize(f.Size), f.Path)
	}
	return b.String()
}

// FindLargeFiles scans root for files over 100 MB. Matches are parsed even
// when find exits non-zero, which it does on unreadable directories.
func FindLargeFiles(ctx context.Context, ex runner.Execer, root string, exclude []string) ([]LargeFile, runner.Result, error) {
	res, err := ex.Execute(ctx, LargeFilesSpec(root, exclude))
	if err != nil {
		return nil, res, err
	}
	return ParseLargeFiles(res.Stdout), res, nil
}

// LargeFiles reports files over 100 MB under root. The returned result
// carries the formatted listing as stdout.
func LargeFiles(ctx context.Context, ex runner.Execer, root string, exclude []string) (runner.Result, string, error) {
	files, res, err := FindLargeFiles(ctx, ex, root, exclude)
	if err != nil {
		return res, "", err
	}
	res.Stdout = FormatLargeFiles(files)
	return res, fmt.Sprintf("found %d large files under %s", len(files), root), nil
}
