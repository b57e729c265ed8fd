package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lakshaymaurya-felt/archmole/internal/analyze"
	"github.com/lakshaymaurya-felt/archmole/internal/core"
	"github.com/lakshaymaurya-felt/archmole/internal/oplog"
	"github.com/lakshaymaurya-felt/archmole/internal/pipeline"
	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
)

func TestRunIDTagsLogLines(t *testing.T) {
	rec := &oplog.Recorder{}
	a := &app{log: oplog.New(rec)}
	a.executor = pipeline.NewExecutor(
		pipeline.WithObserver(a.tagRun),
		pipeline.WithIDFunc(func() string { return "run-42" }),
	)

	snap, err := a.executor.Run(context.Background(), []pipeline.Step{{
		Name: "Clean user cache",
		Action: func(context.Context) (runner.Result, error) {
			a.log.Successf("user cache cleaned")
			return runner.Result{}, nil
		},
	}})
	require.NoError(t, err)
	a.logFinished(snap)

	lines := rec.Lines()
	require.Len(t, lines, 2)
	for _, l := range lines {
		assert.Equal(t, "run-42", l.Run, l.Message)
	}
	assert.Equal(t, "run run-42 completed", lines[1].Message)

	var buf bytes.Buffer
	printSummary(&buf, snap)
	assert.Contains(t, buf.String(), "Run ID: run-42")
}

func sudoGate(calls *[][]string) *privilege.Gate {
	return privilege.NewGate(
		privilege.WithEUID(func() int { return 1000 }),
		privilege.WithLookPath(func(name string) (string, error) { return "/usr/bin/" + name, nil }),
		privilege.WithHelperFunc(func(_ context.Context, _ bool, argv ...string) error {
			*calls = append(*calls, argv)
			return nil
		}),
	)
}

func TestAuthenticate_OnlyBeforeSudoSteps(t *testing.T) {
	var calls [][]string
	a := &app{log: oplog.New(), gate: sudoGate(&calls)}

	require.NoError(t, a.authenticate([]pipeline.Step{{Name: "Find large files"}}))
	assert.Empty(t, calls)

	require.NoError(t, a.authenticate([]pipeline.Step{{Name: "Find large files"}, {Name: "Clean system logs", Sudo: true}}))
	assert.Equal(t, [][]string{{"/usr/bin/sudo", "-n", "-v"}}, calls)
}

func TestAuthenticate_SkippedInDryRun(t *testing.T) {
	dryRun = true
	t.Cleanup(func() { dryRun = false })
	var calls [][]string
	a := &app{log: oplog.New(), gate: sudoGate(&calls)}

	require.NoError(t, a.authenticate([]pipeline.Step{{Name: "Clean system logs", Sudo: true}}))
	assert.Empty(t, calls)
}

func TestScanProgress_ReportsEntryCount(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg", "cache"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "cache", "linux-6.6.pkg.tar.zst"), []byte("x"), 0o644))

	var buf bytes.Buffer
	scanner := analyze.NewScanner(2, nil)
	done := scanProgress(&buf, root, scanner)
	_, err := scanner.Scan(context.Background(), root)
	done()

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Scanning "+root)
	assert.Contains(t, buf.String(), "Scanned 3 entries")
}

func TestCheckDistro(t *testing.T) {
	rec := &oplog.Recorder{}
	a := &app{log: oplog.New(rec)}

	a.checkDistro(core.OSRelease{ID: "manjaro", IDLike: []string{"arch"}})
	a.checkDistro(core.OSRelease{})
	assert.Empty(t, rec.Lines())

	a.checkDistro(core.OSRelease{ID: "ubuntu", IDLike: []string{"debian"}, PrettyName: "Ubuntu 24.04 LTS"})
	lines := rec.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, "Ubuntu 24.04 LTS is not Arch-based; pacman steps will likely fail", lines[0].Message)
}
