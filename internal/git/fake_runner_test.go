package git

import (
	"context"
	"sync"

	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
)

// fakeResponse scripts the result of one git subcommand.
type fakeResponse struct {
	stdout   string
	stderr   string
	exitCode int
	err      error
}

// fakeRunner records commands and answers them from a script keyed by git
// subcommand ("add", "status", ...). Unscripted commands succeed silently.
type fakeRunner struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []Command
}

func newFakeRunner(responses map[string]fakeResponse) *fakeRunner {
	if responses == nil {
		responses = map[string]fakeResponse{}
	}
	return &fakeRunner{responses: responses}
}

func (f *fakeRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, cmd)
	if err := ctx.Err(); err != nil {
		return &Result{ExitCode: -1}, err
	}

	resp := f.responses[subcommand(cmd)]
	res := &Result{ExitCode: resp.exitCode, Stdout: resp.stdout, Stderr: resp.stderr}
	if resp.exitCode != 0 {
		return res, gitstampErrors.NewCommandError(cmd.Program, cmd.Args, resp.exitCode, resp.stderr, gitstampErrors.ErrCommandFailed)
	}
	if resp.err != nil {
		return res, gitstampErrors.NewCommandError(cmd.Program, cmd.Args, -1, resp.stderr, resp.err)
	}
	return res, nil
}

// subcommands returns the git subcommand of every recorded call.
func (f *fakeRunner) subcommands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		names = append(names, subcommand(c))
	}
	return names
}

// argsOf returns the arguments after "-C <path>" of every call to sub.
func (f *fakeRunner) argsOf(sub string) [][]string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out [][]string
	for _, c := range f.calls {
		if subcommand(c) == sub {
			out = append(out, c.Args[2:])
		}
	}
	return out
}

func subcommand(cmd Command) string {
	if len(cmd.Args) > 2 && cmd.Args[0] == "-C" {
		return cmd.Args[2]
	}
	if len(cmd.Args) > 0 {
		return cmd.Args[0]
	}
	return ""
}
