package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
)

// Command is a program invocation. Arguments are passed to the program as
// they are, without a shell.
type Command struct {
	Program string
	Args    []string
	Dir     string
}

// String renders the command for logs.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Program
	}
	return c.Program + " " + strings.Join(c.Args, " ")
}

// Result is what a finished command produced.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// CommandRunner defines an interface for executing commands
type CommandRunner interface {
	// Run executes cmd and waits for it. A non-zero exit is reported as a
	// *errors.CommandError matching errors.ErrCommandFailed, and a command
	// that outlives its deadline as one matching errors.ErrCommandTimeout.
	// The Result is returned even when err is not nil. A command is not
	// started once ctx is done.
	Run(ctx context.Context, cmd Command) (*Result, error)
}

// ExecRunner is the default implementation of CommandRunner
// that delegates to the os/exec package
type ExecRunner struct {
	// Timeout bounds every command. Zero means no deadline. Cancelling the
	// caller's ctx does not stop a command that already started.
	Timeout time.Duration

	// Env is appended to the current environment of every command.
	Env []string
}

// NewExecRunner creates a new ExecRunner
func NewExecRunner(timeout time.Duration) *ExecRunner {
	return &ExecRunner{Timeout: timeout}
}

// Run implements CommandRunner.Run
func (r *ExecRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return &Result{ExitCode: -1}, gitstampErrors.NewCommandError(cmd.Program, cmd.Args, -1, "", err)
	}

	// A started command is never killed by the caller, only by the timeout.
	runCtx := context.WithoutCancel(ctx)
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	c := exec.CommandContext(runCtx, cmd.Program, cmd.Args...)
	c.Dir = cmd.Dir
	c.Stdout = &stdout
	c.Stderr = &stderr
	c.WaitDelay = time.Second
	if len(r.Env) > 0 {
		c.Env = append(os.Environ(), r.Env...)
	}

	start := time.Now()
	err := c.Run()

	result := &Result{
		ExitCode: -1,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}
	if c.ProcessState != nil {
		result.ExitCode = c.ProcessState.ExitCode()
	}

	if err == nil {
		return result, nil
	}

	if runCtx.Err() == context.DeadlineExceeded {
		return result, gitstampErrors.NewCommandError(cmd.Program, cmd.Args, result.ExitCode, result.Stderr,
			gitstampErrors.Wrapf(gitstampErrors.ErrCommandTimeout, "no result after %s", r.Timeout))
	}

	var exitErr *exec.ExitError
	if gitstampErrors.As(err, &exitErr) {
		return result, gitstampErrors.NewCommandError(cmd.Program, cmd.Args, result.ExitCode, result.Stderr,
			gitstampErrors.ErrCommandFailed)
	}

	// The command could not be started at all (missing binary, bad directory).
	return result, gitstampErrors.NewCommandError(cmd.Program, cmd.Args, result.ExitCode, result.Stderr,
		gitstampErrors.Mark(err, gitstampErrors.ErrCommandFailed))
}
