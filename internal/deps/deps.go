// Package deps checks for and installs the packages archmole shells out to.
package deps

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
)

// Package describes one optional dependency.
type Package struct {
	Name    string
	Purpose string
}

// Required lists the packages whose tools the cleaner invokes.
var Required = []Package{
	{Name: "pacman-contrib", Purpose: "paccache for package cache trimming"},
	{Name: "polkit", Purpose: "pkexec for privileged package operations"},
	{Name: "docker", Purpose: "docker prune"},
}

// QuerySpec asks pacman whether name is installed.
func QuerySpec(name string) runner.Spec {
	return runner.Command("pacman", "-Qi", name)
}

// InstallSpec installs name from the sync repositories.
func InstallSpec(name string) runner.Spec {
	return runner.Command("pacman", "-S", "--noconfirm", name).
		WithPrivilege(privilege.Sudo).
		WithMutation().
		WithCombinedOutput()
}

// Check returns the packages pacman reports as not installed.
func Check(ctx context.Context, ex runner.Execer, pkgs []Package) ([]Package, error) {
	var missing []Package
	for _, p := range pkgs {
		res, err := ex.Execute(ctx, QuerySpec(p.Name))
		if err != nil {
			return missing, fmt.Errorf("query %s: %w", p.Name, err)
		}
		if !res.Succeeded() {
			missing = append(missing, p)
		}
	}
	return missing, nil
}

// Install installs each package in turn. Every package is attempted; the
// returned error joins the ones that failed.
func Install(ctx context.Context, ex runner.Execer, pkgs []Package) error {
	var errs []error
	for _, p := range pkgs {
		res, err := ex.Execute(ctx, InstallSpec(p.Name))
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("install %s: %w", p.Name, err))
		case !res.Succeeded():
			errs = append(errs, fmt.Errorf("install %s: exit %d: %s", p.Name, res.ExitCode, firstLine(res.Output())))
		}
	}
	return errors.Join(errs...)
}

// Names returns the package names.
func Names(pkgs []Package) []string {
	names := make([]string, len(pkgs))
	for i, p := range pkgs {
		names[i] = p.Name
	}
	return names
}

// Ensure checks the required packages and installs the missing ones.
func Ensure(ctx context.Context, ex runner.Execer) (runner.Result, string, error) {
	missing, err := Check(ctx, ex, Required)
	if err != nil {
		return runner.Result{}, "", err
	}
	if len(missing) == 0 {
		return runner.Result{}, "all dependencies installed", nil
	}
	if err := Install(ctx, ex, missing); err != nil {
		return runner.Result{}, "", err
	}
	return runner.Result{}, "installed " + strings.Join(Names(missing), ", "), nil
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
