package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/lakshaymaurya-felt/archmole/internal/analyze"
	"github.com/lakshaymaurya-felt/archmole/internal/kernel"
	"github.com/lakshaymaurya-felt/archmole/internal/pipeline"
	"github.com/lakshaymaurya-felt/archmole/internal/recipe"
	"github.com/lakshaymaurya-felt/archmole/internal/ui"
)

var (
	analyzeTree    bool
	analyzeDepth   int
	analyzeMinSize string
	analyzeExclude []string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path]",
	Short: "Find large files",
	Long: `List files over 100 MB under path (default /), largest first. /proc,
/sys, /run, /usr/lib and the configured exclude_dirs are skipped.

With --tree, print a directory size tree instead.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if analyzeTree {
			root := "/"
			if len(args) > 0 {
				root = args[0]
			}
			return runTree(cmd, root)
		}
		return withApp(func(a *app) error {
			step := recipe.MustLookup("large-files").Step(a.env(kernel.MatchExact), args, true)
			return a.runSteps("Searching for large files", []pipeline.Step{step})
		})
	},
}

func runTree(cmd *cobra.Command, root string) error {
	var minSize int64
	if analyzeMinSize != "" {
		n, err := units.RAMInBytes(analyzeMinSize)
		if err != nil {
			return fmt.Errorf("--min-size: %w", err)
		}
		minSize = n
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	return withApp(func(a *app) error {
		ctx, stop := signalContext()
		defer stop()

		scanner := analyze.NewScanner(0, append(a.cfg.ExcludeDirs, analyzeExclude...))
		done := scanProgress(cmd.ErrOrStderr(), abs, scanner)
		tree, err := scanner.Scan(ctx, abs)
		done()
		if tree == nil {
			return err
		}
		analyze.PrintTree(cmd.OutOrStdout(), tree, analyzeDepth, minSize)
		if n := len(scanner.Warnings()); n > 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), ui.MutedStyle.Render(fmt.Sprintf("%d entries could not be read", n)))
		}
		return err
	})
}

// scanProgress reports a running scan on w. On a terminal the entry count
// is redrawn in place; elsewhere only the start line is written. The
// returned func stops the redraw and prints the final count.
func scanProgress(w io.Writer, root string, s *analyze.Scanner) func() {
	live := false
	if f, ok := w.(*os.File); ok {
		live = isatty.IsTerminal(f.Fd())
	}
	if !live {
		fmt.Fprintln(w, ui.MutedStyle.Render("Scanning "+root+"…"))
	}

	stop := make(chan struct{})
	var wg sync.WaitGroup
	if live {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tick := time.NewTicker(200 * time.Millisecond)
			defer tick.Stop()
			for {
				fmt.Fprint(w, "\r"+ui.MutedStyle.Render(fmt.Sprintf("Scanning %s… %d entries", root, s.ScannedCount())))
				select {
				case <-stop:
					return
				case <-tick.C:
				}
			}
		}()
	}

	return func() {
		close(stop)
		wg.Wait()
		if live {
			fmt.Fprint(w, "\r\033[K")
		}
		fmt.Fprintln(w, ui.MutedStyle.Render(fmt.Sprintf("Scanned %d entries", s.ScannedCount())))
	}
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeTree, "tree", false, "Print a directory size tree instead of the large file list")
	analyzeCmd.Flags().IntVar(&analyzeDepth, "depth", 2, "Maximum tree depth (0 = unlimited)")
	analyzeCmd.Flags().StringVar(&analyzeMinSize, "min-size", "", "Hide tree entries below this size (e.g. 100MB)")
	analyzeCmd.Flags().StringSliceVar(&analyzeExclude, "exclude", nil, "Extra directories to skip in the tree")
}
