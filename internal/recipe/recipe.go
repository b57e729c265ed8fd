// Package recipe maps operation names to pipeline steps and loads YAML
// recipes that chain builtins with custom commands.
package recipe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lakshaymaurya-felt/archmole/internal/pipeline"
	"github.com/lakshaymaurya-felt/archmole/internal/privilege"
	"github.com/lakshaymaurya-felt/archmole/internal/runner"
)

// ErrInvalid marks a recipe that fails validation.
var ErrInvalid = errors.New("invalid recipe")

// Recipe is a named list of steps.
type Recipe struct {
	Name  string    `yaml:"name"`
	Steps []StepDef `yaml:"steps"`
}

// StepDef is one recipe step: either a builtin op or a shell line.
type StepDef struct {
	Name      string   `yaml:"name,omitempty"`
	Op        string   `yaml:"op,omitempty"`
	Args      []string `yaml:"args,omitempty"`
	Run       string   `yaml:"run,omitempty"`
	Privilege string   `yaml:"privilege,omitempty"`
	Timeout   string   `yaml:"timeout,omitempty"`
	Critical  bool     `yaml:"critical,omitempty"`
	// ReadOnly marks a run step as safe to execute during a dry run.
	ReadOnly bool `yaml:"readonly,omitempty"`
}

// Load reads and validates a recipe file. A recipe without a name is named
// after its file.
func Load(path string) (Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Recipe{}, fmt.Errorf("read recipe: %w", err)
	}
	r, err := Parse(data)
	if err != nil {
		return Recipe{}, fmt.Errorf("%s: %w", path, err)
	}
	if r.Name == "" {
		r.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return r, nil
}

// Parse decodes and validates recipe YAML. Unknown fields are rejected.
func Parse(data []byte) (Recipe, error) {
	var r Recipe
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&r); err != nil {
		return Recipe{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if err := r.Validate(); err != nil {
		return Recipe{}, err
	}
	return r, nil
}

// Validate checks every step.
func (r Recipe) Validate() error {
	if len(r.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalid)
	}
	for i, s := range r.Steps {
		if err := s.validate(); err != nil {
			return fmt.Errorf("%w: step %d: %v", ErrInvalid, i+1, err)
		}
	}
	return nil
}

func (s StepDef) validate() error {
	switch {
	case s.Op == "" && s.Run == "":
		return errors.New("needs op or run")
	case s.Op != "" && s.Run != "":
		return errors.New("op and run are exclusive")
	}

	if s.Op != "" {
		op, ok := Lookup(s.Op)
		if !ok {
			return fmt.Errorf("unknown op %q", s.Op)
		}
		if s.Privilege != "" || s.Timeout != "" || s.ReadOnly {
			return errors.New("privilege, timeout and readonly apply to run steps only")
		}
		return op.CheckArgs(s.Args)
	}

	if len(s.Args) > 0 {
		return errors.New("args apply to op steps only")
	}
	if _, err := privilege.ParseClass(s.Privilege); err != nil {
		return err
	}
	if _, err := s.timeout(); err != nil {
		return err
	}
	return nil
}

func (s StepDef) timeout() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s.Timeout)
	if err != nil {
		return 0, fmt.Errorf("timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("timeout must not be negative")
	}
	return d, nil
}

// Spec returns the command of a run step.
func (s StepDef) Spec() runner.Spec {
	class, _ := privilege.ParseClass(s.Privilege)
	d, _ := s.timeout()
	spec := runner.Shell(s.Run).WithPrivilege(class).WithTimeout(d).WithCombinedOutput()
	if !s.ReadOnly {
		spec = spec.WithMutation()
	}
	return spec
}

// Build converts a validated recipe into pipeline steps.
func (r Recipe) Build(env Env) []pipeline.Step {
	steps := make([]pipeline.Step, 0, len(r.Steps))
	for _, s := range r.Steps {
		if s.Op != "" {
			step := MustLookup(s.Op).Step(env, s.Args, s.Critical)
			if s.Name != "" {
				step.Name = s.Name
			}
			steps = append(steps, step)
			continue
		}
		steps = append(steps, runStep(env, s))
	}
	return steps
}

func runStep(env Env, s StepDef) pipeline.Step {
	name := s.Name
	if name == "" {
		name = s.Run
	}
	op := Operation{
		Name:        "run",
		Description: name,
		Sudo:        s.Spec().Privilege() == privilege.Sudo,
		Run: func(ctx context.Context, env Env, _ []string) (runner.Result, string, error) {
			res, err := env.Exec.Execute(ctx, s.Spec())
			return res, name + " done", err
		},
	}
	return op.Step(env, nil, s.Critical)
}
