package runner

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	gocmd "github.com/go-cmd/cmd"
	"golang.org/x/sys/unix"
)

// killGrace is how long a stopped command may take to exit after SIGTERM
// before its process group is sent SIGKILL.
const killGrace = 3 * time.Second

// errNotStarted marks a command whose process was never created.
var errNotStarted = errors.New("process not started")

// LaunchOptions controls how a Launcher spawns a process.
type LaunchOptions struct {
	Combined bool
	Env      []string
	Dir      string
}

// Output is what a Launcher captured from a finished process.
type Output struct {
	PID      int
	ExitCode int
	Stdout   []string
	Stderr   []string
	Runtime  time.Duration
}

// Launcher spawns a single process and waits for it.
//
// Launch returns an error only when the process could not be created or
// was stopped because ctx ended; a non-zero exit is reported in Output.
type Launcher interface {
	Launch(ctx context.Context, argv []string, opts LaunchOptions) (Output, error)
}

// CmdLauncher runs processes with go-cmd, which places each child in its own
// process group so a stop reaches every descendant.
type CmdLauncher struct{}

// Launch implements Launcher.
func (CmdLauncher) Launch(ctx context.Context, argv []string, opts LaunchOptions) (Output, error) {
	if len(argv) == 0 {
		return Output{}, errNotStarted
	}

	c := gocmd.NewCmdOptions(gocmd.Options{
		Buffered:       true,
		CombinedOutput: opts.Combined,
	}, argv[0], argv[1:]...)
	c.Env = opts.Env
	if c.Env == nil {
		c.Env = os.Environ()
	}
	c.Dir = opts.Dir

	statusCh := c.Start()
	select {
	case st := <-statusCh:
		return fromStatus(st)
	case <-ctx.Done():
		pid := c.Status().PID
		_ = c.Stop()
		select {
		case <-c.Done():
		case <-time.After(killGrace):
			if pid > 0 {
				_ = unix.Kill(-pid, unix.SIGKILL)
			}
			<-c.Done()
		}
		out, _ := fromStatus(c.Status())
		return out, ctx.Err()
	}
}

func fromStatus(st gocmd.Status) (Output, error) {
	out := Output{
		PID:      st.PID,
		ExitCode: st.Exit,
		Stdout:   st.Stdout,
		Stderr:   st.Stderr,
		Runtime:  time.Duration(st.Runtime * float64(time.Second)),
	}
	if st.Error == nil {
		return out, nil
	}
	if st.PID == 0 {
		return out, st.Error
	}
	// Killed by a signal the launcher did not send: the command ran, so
	// report it as an unsuccessful exit rather than a launch failure.
	if out.ExitCode == 0 {
		out.ExitCode = -1
	}
	out.Stderr = append(out.Stderr, st.Error.Error())
	return out, nil
}

func joinLines(lines []string) string {
	return strings.Join(lines, "\n")
}
