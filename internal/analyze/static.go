package analyze

import (
	"fmt"
	"io"
	"strings"

	"github.com/lakshaymaurya-felt/archmole/internal/core"
)

// maxChildren caps the entries printed per directory level.
const maxChildren = 20

// PrintTree writes a plain-text tree of the scan results to w, honouring
// depth (0 = unlimited) and minSize filters. Children are already sorted
// by size.
func PrintTree(w io.Writer, root *DirEntry, maxDepth int, minSize int64) {
	if root == nil {
		fmt.Fprintln(w, "  No data to display.")
		return
	}

	fmt.Fprintf(w, "  Disk usage: %s\n", root.Path)
	fmt.Fprintln(w, "  "+strings.Repeat("─", 58))

	printEntry(w, root, "", true, 0, maxDepth, minSize)

	fmt.Fprintln(w, "  "+strings.Repeat("─", 58))
	fmt.Fprintf(w, "  Total: %s in %d files\n", core.FormatSize(root.Size), root.Files)
}

func printEntry(w io.Writer, entry *DirEntry, prefix string, isLast bool, depth, maxDepth int, minSize int64) {
	if entry == nil {
		return
	}
	if maxDepth > 0 && depth > maxDepth {
		return
	}
	if minSize > 0 && entry.Size < minSize && depth > 0 {
		return
	}

	connector, childPrefix := "├── ", "│   "
	if isLast {
		connector, childPrefix = "└── ", "    "
	}
	if depth == 0 {
		connector, childPrefix = "", ""
	}

	name := entry.Name
	if entry.IsDir {
		name += "/"
	}
	fmt.Fprintf(w, "  %s%s%-*s %10s\n", prefix, connector, max(1, 40-len(prefix)-4), name, core.FormatSize(entry.Size))

	if !entry.IsDir || len(entry.Children) == 0 {
		return
	}

	var shown []*DirEntry
	for _, c := range entry.Children {
		if minSize > 0 && c.Size < minSize {
			continue
		}
		shown = append(shown, c)
	}
	hidden := 0
	if len(shown) > maxChildren {
		hidden = len(shown) - maxChildren
		shown = shown[:maxChildren]
	}
	for i, c := range shown {
		printEntry(w, c, prefix+childPrefix, i == len(shown)-1 && hidden == 0, depth+1, maxDepth, minSize)
	}
	if hidden > 0 {
		fmt.Fprintf(w, "  %s%s… and %d more entries\n", prefix+childPrefix, "└── ", hidden)
	}
}
