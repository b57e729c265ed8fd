package runner

import (
	"strings"
	"time"
)

// Result is the captured outcome of a command that ran to completion.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
	// Skipped is set when a dry run reported the command without running it.
	Skipped bool
}

// Succeeded reports whether the command exited with status 0. Output on
// stderr does not change the answer.
func (r Result) Succeeded() bool {
	return r.ExitCode == 0
}

// Output returns stdout followed by stderr, trimmed.
func (r Result) Output() string {
	out := strings.TrimSpace(r.Stdout)
	errOut := strings.TrimSpace(r.Stderr)
	switch {
	case out == "":
		return errOut
	case errOut == "":
		return out
	default:
		return out + "\n" + errOut
	}
}

// merge appends next to r. The first non-zero exit code wins.
func (r Result) merge(next Result) Result {
	if r.ExitCode == 0 {
		r.ExitCode = next.ExitCode
	}
	r.Stdout = joinOutput(r.Stdout, next.Stdout)
	r.Stderr = joinOutput(r.Stderr, next.Stderr)
	r.Duration += next.Duration
	return r
}

func joinOutput(a, b string) string {
	a = strings.TrimRight(a, "\n")
	b = strings.TrimRight(b, "\n")
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + "\n" + b
	}
}
