package git

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
	"github.com/bashhack/gitstamp/internal/logger"
)

const testTimestamp = "2024-02-02 10:00:00"

func newTestPublisher(runner CommandRunner, mutate func(cfg *PublisherConfig)) *Publisher {
	cfg := PublisherConfig{
		RemoteName:   "origin",
		RemoteBranch: "main",
		CommitPrefix: "Auto-commit:",
	}
	if mutate != nil {
		mutate(&cfg)
	}
	repo := NewRepository("/work/site", runner, logger.Nop())
	return NewPublisher(repo, cfg, logger.Nop())
}

func TestPublish(t *testing.T) {
	tests := map[string]struct {
		responses     map[string]fakeResponse
		config        func(cfg *PublisherConfig)
		wantState     State
		wantCalls     []string
		wantErr       error
		wantErrStage  string
		wantTolerated int
	}{
		"CommitAndPush": {
			responses: map[string]fakeResponse{
				"status": {stdout: "M  src/app.js\n?? notes.txt\n"},
			},
			wantState: StatePushed,
			wantCalls: []string{"add", "status", "commit", "push"},
		},
		"BlankStatusIsNothingToCommit": {
			responses: map[string]fakeResponse{
				"status": {stdout: "\n"},
			},
			wantState: StateNothingToCommit,
			wantCalls: []string{"add", "status"},
		},
		"OnlyUnstagedEntriesIsNothingToCommit": {
			responses: map[string]fakeResponse{
				"status": {stdout: "?? static/models/weights.bin\n"},
			},
			config: func(cfg *PublisherConfig) {
				cfg.UnstagePaths = []string{"static/models"}
			},
			wantState: StateNothingToCommit,
			wantCalls: []string{"add", "reset", "status"},
		},
		"UnstageFailureIsTolerated": {
			responses: map[string]fakeResponse{
				"reset":  {exitCode: 1, stderr: "fatal: ambiguous argument"},
				"status": {stdout: "A  index.js\n"},
			},
			config: func(cfg *PublisherConfig) {
				cfg.UnstagePaths = []string{"missing", "also-missing"}
			},
			wantState:     StatePushed,
			wantCalls:     []string{"add", "reset", "reset", "status", "commit", "push"},
			wantTolerated: 2,
		},
		"StageFailed": {
			responses: map[string]fakeResponse{
				"add": {exitCode: 128, stderr: "fatal: not a git repository"},
			},
			wantState:    StateStageFailed,
			wantCalls:    []string{"add"},
			wantErr:      gitstampErrors.ErrCommandFailed,
			wantErrStage: StepStage,
		},
		"StatusFailed": {
			responses: map[string]fakeResponse{
				"status": {exitCode: 128},
			},
			wantState:    StateCommitFailed,
			wantCalls:    []string{"add", "status"},
			wantErr:      gitstampErrors.ErrCommandFailed,
			wantErrStage: StepStatus,
		},
		"CommitFailed": {
			responses: map[string]fakeResponse{
				"status": {stdout: "M  a.py\n"},
				"commit": {exitCode: 1, stderr: "Author identity unknown"},
			},
			wantState:    StateCommitFailed,
			wantCalls:    []string{"add", "status", "commit"},
			wantErr:      gitstampErrors.ErrCommandFailed,
			wantErrStage: StepCommit,
		},
		"PushFailed": {
			responses: map[string]fakeResponse{
				"status": {stdout: "M  a.py\n"},
				"push":   {exitCode: 1, stderr: "remote: Permission denied"},
			},
			wantState:    StatePushFailed,
			wantCalls:    []string{"add", "status", "commit", "push"},
			wantErr:      gitstampErrors.ErrCommandFailed,
			wantErrStage: StepPush,
		},
		"PushTimeout": {
			responses: map[string]fakeResponse{
				"status": {stdout: "M  a.py\n"},
				"push":   {err: gitstampErrors.ErrCommandTimeout},
			},
			wantState:    StatePushFailed,
			wantCalls:    []string{"add", "status", "commit", "push"},
			wantErr:      gitstampErrors.ErrCommandTimeout,
			wantErrStage: StepPush,
		},
		"PushWhenClean": {
			responses: map[string]fakeResponse{
				"status": {stdout: ""},
			},
			config: func(cfg *PublisherConfig) {
				cfg.PushWhenClean = true
			},
			wantState: StatePushed,
			wantCalls: []string{"add", "status", "push"},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			runner := newFakeRunner(tc.responses)
			publisher := newTestPublisher(runner, tc.config)

			pub, err := publisher.Publish(context.Background(), testTimestamp)
			require.NotNil(t, pub)

			assert.Equal(t, tc.wantState, pub.State)
			assert.Equal(t, tc.wantCalls, runner.subcommands())
			assert.Len(t, pub.Steps, len(tc.wantCalls))
			assert.Equal(t, tc.wantTolerated, countTolerated(pub.Steps))

			if tc.wantErr == nil {
				assert.NoError(t, err)
				assert.NoError(t, pub.Err())
				return
			}

			require.Error(t, err)
			assert.True(t, gitstampErrors.Is(err, gitstampErrors.ErrPublishFailed))
			assert.True(t, gitstampErrors.Is(err, tc.wantErr))

			var cmdErr *gitstampErrors.CommandError
			require.True(t, gitstampErrors.As(err, &cmdErr))
			assert.Equal(t, tc.wantErrStage, cmdErr.Stage)
		})
	}
}

func countTolerated(steps []Step) int {
	n := 0
	for _, s := range steps {
		if s.Tolerated() {
			n++
		}
	}
	return n
}

func TestPublishCommandArguments(t *testing.T) {
	runner := newFakeRunner(map[string]fakeResponse{
		"status": {stdout: "M  a.py\n"},
	})
	publisher := newTestPublisher(runner, func(cfg *PublisherConfig) {
		cfg.RemoteName = "deploy"
		cfg.RemoteBranch = "gh-pages"
		cfg.UnstagePaths = []string{"static/models"}
	})

	pub, err := publisher.Publish(context.Background(), testTimestamp)
	require.NoError(t, err)

	assert.Equal(t, "Auto-commit: 2024-02-02 10:00:00", pub.Message)
	assert.Equal(t, [][]string{{"add", "--all"}}, runner.argsOf("add"))
	assert.Equal(t, [][]string{{"reset", "-q", "--", "static/models"}}, runner.argsOf("reset"))
	assert.Equal(t, [][]string{{"status", "--porcelain"}}, runner.argsOf("status"))
	assert.Equal(t, [][]string{{"commit", "-m", "Auto-commit: 2024-02-02 10:00:00"}}, runner.argsOf("commit"))
	assert.Equal(t, [][]string{{"push", "--force", "--set-upstream", "deploy", "HEAD:refs/heads/gh-pages"}}, runner.argsOf("push"))

	for _, call := range runner.calls {
		assert.Equal(t, "git", call.Program)
		assert.Equal(t, []string{"-C", "/work/site"}, call.Args[:2])
	}

	require.Len(t, pub.Changes, 1)
	assert.Equal(t, "a.py", pub.Changes[0].Path)

	states := make([]State, 0, len(pub.Steps))
	for _, s := range pub.Steps {
		states = append(states, s.State)
	}
	assert.Equal(t, []State{StateStaged, StateStaged, StateCommitPending, StateCommitted, StatePushed}, states)
}

func TestCommitMessage(t *testing.T) {
	tests := map[string]struct {
		prefix string
		want   string
	}{
		"DefaultPrefix": {prefix: "Auto-commit:", want: "Auto-commit: 2024-02-02 10:00:00"},
		"CustomPrefix":  {prefix: "[site]", want: "[site] 2024-02-02 10:00:00"},
		"NoPrefix":      {prefix: "", want: "2024-02-02 10:00:00"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			publisher := newTestPublisher(newFakeRunner(nil), func(cfg *PublisherConfig) {
				cfg.CommitPrefix = tc.prefix
			})
			assert.Equal(t, tc.want, publisher.CommitMessage(testTimestamp))
		})
	}
}

// cancellingRunner cancels the context once a given subcommand has run.
type cancellingRunner struct {
	*fakeRunner
	after  string
	cancel context.CancelFunc
}

func (c *cancellingRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	res, err := c.fakeRunner.Run(ctx, cmd)
	if subcommand(cmd) == c.after {
		c.cancel()
	}
	return res, err
}

func TestPublishCancellation(t *testing.T) {
	t.Run("BeforeStart", func(t *testing.T) {
		runner := newFakeRunner(nil)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		pub, err := newTestPublisher(runner, nil).Publish(ctx, testTimestamp)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, StateStart, pub.State)
		assert.Empty(t, runner.subcommands())
	})

	t.Run("BetweenSteps", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		runner := &cancellingRunner{
			fakeRunner: newFakeRunner(map[string]fakeResponse{"status": {stdout: "M  a.py\n"}}),
			after:      "add",
			cancel:     cancel,
		}

		pub, err := newTestPublisher(runner, nil).Publish(ctx, testTimestamp)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, StateStaged, pub.State)
		assert.Equal(t, []string{"add"}, runner.subcommands())
	})
}

func TestStateString(t *testing.T) {
	tests := map[State]string{
		StateStart:           "Start",
		StateStaged:          "Staged",
		StateCommitPending:   "CommitPending",
		StateCommitted:       "Committed",
		StateNothingToCommit: "NothingToCommit",
		StatePushed:          "Pushed",
		StateStageFailed:     "StageFailed",
		StateCommitFailed:    "CommitFailed",
		StatePushFailed:      "PushFailed",
		State(99):            "Unknown",
	}

	for state, want := range tests {
		assert.Equal(t, want, state.String())
	}

	assert.True(t, StatePushFailed.Failed())
	assert.False(t, StateNothingToCommit.Failed())
}
