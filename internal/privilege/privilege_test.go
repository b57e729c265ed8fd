package privilege

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookPathOf(installed ...string) func(string) (string, error) {
	return func(name string) (string, error) {
		for _, n := range installed {
			if n == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name      string
		euid      int
		installed []string
		class     Class
		allowed   bool
		helper    string
		reason    string
	}{
		{name: "none always allowed", euid: 1000, class: None, allowed: true},
		{name: "root needs no helper", euid: 0, class: PolicyKit, allowed: true},
		{name: "sudo present", euid: 1000, installed: []string{"sudo"}, class: Sudo, allowed: true, helper: "/usr/bin/sudo"},
		{name: "pkexec present", euid: 1000, installed: []string{"pkexec"}, class: PolicyKit, allowed: true, helper: "/usr/bin/pkexec"},
		{name: "sudo missing", euid: 1000, installed: []string{"pkexec"}, class: Sudo, reason: "sudo is not installed"},
		{name: "pkexec missing", euid: 1000, installed: []string{"sudo"}, class: PolicyKit, reason: "pkexec is not installed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(
				WithEUID(func() int { return tt.euid }),
				WithLookPath(lookPathOf(tt.installed...)),
			)
			d := g.Check(tt.class)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.helper, d.Helper)
			if tt.reason != "" {
				assert.Contains(t, d.Reason, tt.reason)
			}
		})
	}
}

func TestDecisionWrap(t *testing.T) {
	argv := []string{"pacman", "-Sc"}

	assert.Equal(t, argv, Decision{Allowed: true}.Wrap(argv))
	assert.Equal(t, []string{"/usr/bin/pkexec", "pacman", "-Sc"}, Decision{Allowed: true, Helper: "/usr/bin/pkexec"}.Wrap(argv))
	assert.Equal(t, []string{"/usr/bin/sudo", "-n", "-E", "pacman", "-Sc"}, Decision{Allowed: true, Helper: "/usr/bin/sudo"}.Wrap(argv))
	assert.Equal(t, []string{"/usr/bin/sudo", "-E", "pacman", "-Sc"}, Decision{Allowed: true, Helper: "/usr/bin/sudo"}.WrapInteractive(argv))
	assert.Equal(t, []string{"/usr/bin/pkexec", "pacman", "-Sc"}, Decision{Allowed: true, Helper: "/usr/bin/pkexec"}.WrapInteractive(argv))
}

func TestParseClass(t *testing.T) {
	for in, want := range map[string]Class{"": None, "none": None, "sudo": Sudo, "pkexec": PolicyKit, "polkit": PolicyKit} {
		got, err := ParseClass(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseClass("doas")
	assert.Error(t, err)
}

type helperCall struct {
	interactive bool
	argv        []string
}

func authGate(euid int, installed []string, results ...error) (*Gate, *[]helperCall) {
	var calls []helperCall
	g := NewGate(
		WithEUID(func() int { return euid }),
		WithLookPath(lookPathOf(installed...)),
		WithHelperFunc(func(_ context.Context, interactive bool, argv ...string) error {
			calls = append(calls, helperCall{interactive: interactive, argv: argv})
			if len(results) == 0 {
				return nil
			}
			err := results[0]
			results = results[1:]
			return err
		}),
	)
	return g, &calls
}

func TestAuthenticate(t *testing.T) {
	expired := errors.New("exit status 1")

	t.Run("root needs nothing", func(t *testing.T) {
		g, calls := authGate(0, []string{"sudo"})
		require.NoError(t, g.Authenticate(context.Background(), true))
		assert.Empty(t, *calls)
	})

	t.Run("sudo missing", func(t *testing.T) {
		g, calls := authGate(1000, nil)
		require.NoError(t, g.Authenticate(context.Background(), true))
		assert.Empty(t, *calls)
	})

	t.Run("cached timestamp", func(t *testing.T) {
		g, calls := authGate(1000, []string{"sudo"}, nil)
		require.NoError(t, g.Authenticate(context.Background(), true))
		assert.Equal(t, []helperCall{{argv: []string{"/usr/bin/sudo", "-n", "-v"}}}, *calls)
	})

	t.Run("prompts on the terminal", func(t *testing.T) {
		g, calls := authGate(1000, []string{"sudo"}, expired, nil)
		require.NoError(t, g.Authenticate(context.Background(), true))
		require.Len(t, *calls, 2)
		assert.Equal(t, helperCall{interactive: true, argv: []string{"/usr/bin/sudo", "-v"}}, (*calls)[1])
	})

	t.Run("no terminal", func(t *testing.T) {
		g, calls := authGate(1000, []string{"sudo"}, expired)
		assert.ErrorIs(t, g.Authenticate(context.Background(), false), ErrNoTicket)
		assert.Len(t, *calls, 1)
	})

	t.Run("wrong password", func(t *testing.T) {
		g, _ := authGate(1000, []string{"sudo"}, expired, expired)
		err := g.Authenticate(context.Background(), true)
		assert.ErrorIs(t, err, expired)
		assert.Contains(t, err.Error(), "sudo authentication failed")
	})
}
