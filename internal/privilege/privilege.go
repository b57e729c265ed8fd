package privilege

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Class identifies how a command obtains elevated rights.
type Class int

const (
	// None commands run as the calling user.
	None Class = iota
	// Sudo commands are elevated through sudo.
	Sudo
	// PolicyKit commands are elevated through pkexec.
	PolicyKit
)

// String returns the lower-case class name.
func (c Class) String() string {
	switch c {
	case None:
		return "none"
	case Sudo:
		return "sudo"
	case PolicyKit:
		return "polkit"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// Helper returns the elevation helper binary for the class, or "" for None.
func (c Class) Helper() string {
	switch c {
	case Sudo:
		return "sudo"
	case PolicyKit:
		return "pkexec"
	default:
		return ""
	}
}

// ParseClass maps a recipe or flag value to a Class.
func ParseClass(s string) (Class, error) {
	switch s {
	case "", "none":
		return None, nil
	case "sudo":
		return Sudo, nil
	case "polkit", "pkexec", "policykit":
		return PolicyKit, nil
	}
	return None, fmt.Errorf("unknown privilege class %q", s)
}

// Decision is the outcome of a pre-flight privilege check.
type Decision struct {
	// Allowed is false when the command cannot be elevated.
	Allowed bool

	// Reason explains a denial.
	Reason string

	// Helper is the resolved helper path, empty when no helper is needed.
	Helper string

	// Elevated reports that the process already runs as root.
	Elevated bool
}

// Wrap prefixes argv with the helper invocation. argv is returned unchanged
// when no helper is needed. sudo runs with -n: commands have no terminal,
// so a missing timestamp fails the command instead of prompting.
func (d Decision) Wrap(argv []string) []string {
	return d.wrap(argv, "-n", "-E")
}

// WrapInteractive is Wrap for commands that own the terminal and may
// prompt for a password.
func (d Decision) WrapInteractive(argv []string) []string {
	return d.wrap(argv, "-E")
}

func (d Decision) wrap(argv []string, sudoFlags ...string) []string {
	if d.Helper == "" {
		return argv
	}
	out := make([]string, 0, len(argv)+1+len(sudoFlags))
	out = append(out, d.Helper)
	// sudo keeps the caller's environment so HOME-relative paths still resolve.
	if filepath.Base(d.Helper) == "sudo" {
		out = append(out, sudoFlags...)
	}
	return append(out, argv...)
}

// Gate answers whether a privilege class can be satisfied. The check is
// advisory: the operating system remains the enforcement point.
type Gate struct {
	euid     func() int
	lookPath func(string) (string, error)
	helper   HelperFunc
}

// HelperFunc runs an authentication helper. When interactive is set it is
// attached to the terminal so it can prompt.
type HelperFunc func(ctx context.Context, interactive bool, argv ...string) error

// Option configures a Gate.
type Option func(*Gate)

// WithEUID overrides the effective UID probe.
func WithEUID(fn func() int) Option {
	return func(g *Gate) { g.euid = fn }
}

// WithLookPath overrides the helper lookup.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(g *Gate) { g.lookPath = fn }
}

// WithHelperFunc overrides how Authenticate runs sudo.
func WithHelperFunc(fn HelperFunc) Option {
	return func(g *Gate) { g.helper = fn }
}

// NewGate returns a Gate probing the real process and PATH.
func NewGate(opts ...Option) *Gate {
	g := &Gate{
		euid:     unix.Geteuid,
		lookPath: exec.LookPath,
		helper:   runHelper,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsRoot reports whether the process runs with effective UID 0.
func (g *Gate) IsRoot() bool {
	return g.euid() == 0
}

// Available reports whether a binary is on the search path.
func (g *Gate) Available(name string) bool {
	_, err := g.lookPath(name)
	return err == nil
}

// Check decides whether commands of class c can run.
func (g *Gate) Check(c Class) Decision {
	if c == None {
		return Decision{Allowed: true}
	}
	if g.IsRoot() {
		return Decision{Allowed: true, Elevated: true}
	}

	helper := c.Helper()
	if helper == "" {
		return Decision{Reason: fmt.Sprintf("no elevation helper for class %s", c)}
	}
	path, err := g.lookPath(helper)
	if err != nil {
		return Decision{Reason: fmt.Sprintf("%s is not installed or not on PATH", helper)}
	}
	return Decision{Allowed: true, Helper: path}
}

// ErrNoTicket is returned by Authenticate when sudo needs a password and
// no terminal is available to ask for it.
var ErrNoTicket = errors.New("sudo needs a password and no terminal is attached")

// Authenticate caches a sudo timestamp so the -n invocations built by Wrap
// succeed. A valid timestamp is checked with `sudo -n -v`; otherwise, when
// interactive, `sudo -v` prompts on the terminal. It must run in the
// foreground before any terminal UI takes the screen. Root and systems
// without sudo need nothing.
func (g *Gate) Authenticate(ctx context.Context, interactive bool) error {
	d := g.Check(Sudo)
	if !d.Allowed || d.Helper == "" {
		return nil
	}
	if err := g.helper(ctx, false, d.Helper, "-n", "-v"); err == nil {
		return nil
	}
	if !interactive {
		return ErrNoTicket
	}
	if err := g.helper(ctx, true, d.Helper, "-v"); err != nil {
		return fmt.Errorf("sudo authentication failed: %w", err)
	}
	return nil
}

// runHelper runs argv in the caller's process group. Interactive runs get
// the real stdio; the rest discard output.
func runHelper(ctx context.Context, interactive bool, argv ...string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if interactive {
		cmd.Stdin, cmd.Stdout, cmd.Stderr = os.Stdin, os.Stdout, os.Stderr
	} else {
		cmd.Stdout, cmd.Stderr = io.Discard, io.Discard
	}
	return cmd.Run()
}
