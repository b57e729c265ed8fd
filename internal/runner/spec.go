package runner

import (
	"strings"
	"time"

	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
)

// Spec describes one external command. Specs are values: the With* methods
// return modified copies and never alter the receiver.
type Spec struct {
	program   string
	args      []string
	shell     bool
	privilege privilege.Class
	timeout   time.Duration
	combined  bool
	mutating  bool
}

// Command returns a Spec that executes program directly with args.
func Command(program string, args ...string) Spec {
	return Spec{program: program, args: append([]string(nil), args...)}
}

// Shell returns a Spec that runs line through /bin/sh -c. Use it only for
// commands that need redirection, globbing or chaining.
func Shell(line string) Spec {
	return Spec{program: "sh", args: []string{"-c", line}, shell: true}
}

// WithPrivilege returns a copy requiring class c.
func (s Spec) WithPrivilege(c privilege.Class) Spec {
	s.args = append([]string(nil), s.args...)
	s.privilege = c
	return s
}

// WithTimeout returns a copy that is killed after d. Zero disables the limit.
func (s Spec) WithTimeout(d time.Duration) Spec {
	s.args = append([]string(nil), s.args...)
	s.timeout = d
	return s
}

// WithCombinedOutput returns a copy whose stderr is interleaved into stdout.
func (s Spec) WithCombinedOutput() Spec {
	s.args = append([]string(nil), s.args...)
	s.combined = true
	return s
}

// WithMutation returns a copy flagged as changing system state. Mutating
// specs are skipped in dry-run mode.
func (s Spec) WithMutation() Spec {
	s.args = append([]string(nil), s.args...)
	s.mutating = true
	return s
}

// Program returns the executable name.
func (s Spec) Program() string { return s.program }

// Argv returns the unelevated argument vector.
func (s Spec) Argv() []string {
	return append([]string{s.program}, s.args...)
}

// Privilege returns the required privilege class.
func (s Spec) Privilege() privilege.Class { return s.privilege }

// RequiresPrivilege reports whether the spec needs elevation.
func (s Spec) RequiresPrivilege() bool { return s.privilege != privilege.None }

// Timeout returns the configured limit, zero when unlimited.
func (s Spec) Timeout() time.Duration { return s.timeout }

// Combined reports whether stdout and stderr are merged.
func (s Spec) Combined() bool { return s.combined }

// Mutating reports whether the spec changes system state.
func (s Spec) Mutating() bool { return s.mutating }

// String renders the command the way a user would type it.
func (s Spec) String() string {
	if s.shell {
		return s.args[1]
	}
	return strings.Join(s.Argv(), " ")
}
