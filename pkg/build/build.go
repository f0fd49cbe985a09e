// Package build hands control to the external build orchestration once
// pre-build work is done.
package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Runner is the build entry point. Its error is the build's outcome.
type Runner interface {
	Run(ctx context.Context) error
}

// Func adapts an ordinary function to a Runner.
type Func func(ctx context.Context) error

// Run calls f.
func (f Func) Run(ctx context.Context) error {
	return f(ctx)
}

// Command runs an external build tool such as "wails build" or "fyne package".
type Command struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Name   string
	Dir    string
	Args   []string
	Env    []string // appended to the current environment
}

// NewCommand builds a Command from argv, wired to the process's stdio.
func NewCommand(dir string, argv []string) (*Command, error) {
	if len(argv) == 0 || argv[0] == "" {
		return nil, errors.New("empty build command")
	}
	return &Command{
		Name:   argv[0],
		Args:   argv[1:],
		Dir:    dir,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}, nil
}

func (c *Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Run starts the tool and waits for it to exit.
func (c *Command) Run(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...) //nolint:gosec // command comes from the build configuration
	cmd.Dir = c.Dir
	cmd.Stdin = c.Stdin
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %q: %w", c.String(), err)
	}
	return nil
}

// ExitCode maps a Runner error to a process exit status. A tool that exited
// on its own keeps its status; every other failure becomes 1.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return code
		}
	}
	return 1
}
