// Package runnertest provides a scripted runner.Execer for tests.
package runnertest

import (
	"context"
	"strings"
	"sync"

	"github.com/lakshaymaurya-felt/archmole/internal/runner"
)

type response struct {
	result runner.Result
	err    error
}

// Fake records every executed Spec and answers from a script. Commands are
// matched by the longest registered prefix of Spec.String(); unmatched
// commands succeed with empty output.
type Fake struct {
	mu     sync.Mutex
	script map[string][]response
	calls  []runner.Spec
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{script: make(map[string][]response)}
}

// On queues a response for commands starting with prefix. Queued responses
// are consumed in order; the last one repeats.
func (f *Fake) On(prefix string, res runner.Result, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.script[prefix] = append(f.script[prefix], response{result: res, err: err})
	return f
}

// Stdout queues a successful response with the given stdout.
func (f *Fake) Stdout(prefix, out string) *Fake {
	return f.On(prefix, runner.Result{Stdout: out}, nil)
}

// Exit queues an unsuccessful response.
func (f *Fake) Exit(prefix string, code int, stderr string) *Fake {
	return f.On(prefix, runner.Result{ExitCode: code, Stderr: stderr}, nil)
}

// Execute implements runner.Execer.
func (f *Fake) Execute(_ context.Context, spec runner.Spec) (runner.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, spec)

	cmd := spec.String()
	best := ""
	for prefix := range f.script {
		if strings.HasPrefix(cmd, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	queue, ok := f.script[best]
	if !ok || len(queue) == 0 {
		return runner.Result{}, nil
	}
	r := queue[0]
	if len(queue) > 1 {
		f.script[best] = queue[1:]
	}
	return r.result, r.err
}

// Calls returns the executed specs in order.
func (f *Fake) Calls() []runner.Spec {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Spec(nil), f.calls...)
}

// Commands returns the executed specs rendered as command lines.
func (f *Fake) Commands() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.String()
	}
	return out
}
