package bootstrap

import (
	"context"
	"os/exec"

	"github.com/pkg/errors"
)

// Runner executes the build recipe in a directory.
type Runner interface {
	Run(ctx context.Context, dir string) error
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, dir string) error

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, dir string) error {
	return f(ctx, dir)
}

// CommandRunner runs "<Command> <Args...> -C <dir>", i.e. make -C custom_ops.
type CommandRunner struct {
	Command string
	Args    []string
}

// MakeRunner returns the runner for the Makefile shipped with the operator sources.
func MakeRunner() CommandRunner {
	return CommandRunner{Command: "make"}
}

// Run implements Runner. The combined output is attached to the error on failure.
func (r CommandRunner) Run(ctx context.Context, dir string) error {
	args := append(append([]string(nil), r.Args...), "-C", dir)
	cmd := exec.CommandContext(ctx, r.Command, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errors.Wrapf(err, "%s %v: %s", r.Command, args, output)
	}
	return nil
}
