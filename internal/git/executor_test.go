package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func shell(script string) Command {
	return Command{Program: "sh", Args: []string{"-c", script}}
}

func TestExecRunner(t *testing.T) {
	requireShell(t)

	t.Run("CapturesOutput", func(t *testing.T) {
		res, err := NewExecRunner(time.Minute).Run(context.Background(), shell("echo out; echo err 1>&2"))
		require.NoError(t, err)

		assert.Equal(t, 0, res.ExitCode)
		assert.Equal(t, "out\n", res.Stdout)
		assert.Equal(t, "err\n", res.Stderr)
	})

	t.Run("NonZeroExit", func(t *testing.T) {
		res, err := NewExecRunner(time.Minute).Run(context.Background(), shell("echo nope 1>&2; exit 3"))
		require.Error(t, err)

		assert.Equal(t, 3, res.ExitCode)
		assert.True(t, gitstampErrors.Is(err, gitstampErrors.ErrCommandFailed))
		assert.False(t, gitstampErrors.Is(err, gitstampErrors.ErrCommandTimeout))

		var cmdErr *gitstampErrors.CommandError
		require.True(t, gitstampErrors.As(err, &cmdErr))
		assert.Equal(t, 3, cmdErr.ExitCode)
		assert.Equal(t, "nope\n", cmdErr.Stderr)
		assert.Equal(t, "sh", cmdErr.Program)
	})

	t.Run("Timeout", func(t *testing.T) {
		start := time.Now()
		_, err := NewExecRunner(100*time.Millisecond).Run(context.Background(), shell("exec sleep 5"))
		require.Error(t, err)

		assert.Less(t, time.Since(start), 4*time.Second)
		assert.True(t, gitstampErrors.Is(err, gitstampErrors.ErrCommandTimeout))
		assert.False(t, gitstampErrors.Is(err, gitstampErrors.ErrCommandFailed))
	})

	t.Run("CancelledByCaller", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewExecRunner(time.Minute).Run(ctx, shell("echo never"))
		require.Error(t, err)

		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, gitstampErrors.Is(err, gitstampErrors.ErrCommandTimeout))
	})

	t.Run("FinishesAfterCallerCancels", func(t *testing.T) {
		dir := t.TempDir()
		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(100*time.Millisecond, cancel)

		cmd := shell("sleep 1; echo ok > done")
		cmd.Dir = dir
		res, err := NewExecRunner(time.Minute).Run(ctx, cmd)
		require.NoError(t, err)

		assert.Equal(t, 0, res.ExitCode)
		assert.Error(t, ctx.Err())
		data, err := os.ReadFile(filepath.Join(dir, "done"))
		require.NoError(t, err)
		assert.Equal(t, "ok\n", string(data))
	})

	t.Run("MissingProgram", func(t *testing.T) {
		res, err := NewExecRunner(time.Minute).Run(context.Background(), Command{Program: "gitstamp-no-such-program"})
		require.Error(t, err)

		assert.Equal(t, -1, res.ExitCode)
		assert.True(t, gitstampErrors.Is(err, gitstampErrors.ErrCommandFailed))
		assert.ErrorIs(t, err, exec.ErrNotFound)
	})

	t.Run("DirAndEnv", func(t *testing.T) {
		dir := t.TempDir()
		runner := &ExecRunner{Timeout: time.Minute, Env: []string{"GITSTAMP_TEST_VALUE=hello"}}

		cmd := shell(`pwd; printf %s "$GITSTAMP_TEST_VALUE"`)
		cmd.Dir = dir
		res, err := runner.Run(context.Background(), cmd)
		require.NoError(t, err)

		lines := strings.Split(res.Stdout, "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, dir, lines[0])
		assert.Equal(t, "hello", lines[1])
	})
}

func TestCommandString(t *testing.T) {
	assert.Equal(t, "git", Command{Program: "git"}.String())
	assert.Equal(t, "git status --porcelain", Command{Program: "git", Args: []string{"status", "--porcelain"}}.String())
}
