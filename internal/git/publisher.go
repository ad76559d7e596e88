package git

import (
	"context"
	"strings"
	"time"

	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
	"github.com/bashhack/gitstamp/internal/logger"
)

// State is a position in the publish pipeline.
//
//	Start -> Staged -> NothingToCommit
//	                -> CommitPending -> Committed -> Pushed | PushFailed
//	                                 -> CommitFailed
//	      -> StageFailed
type State int

const (
	StateStart State = iota
	StateStaged
	StateCommitPending
	StateCommitted
	StateNothingToCommit
	StatePushed
	StateStageFailed
	StateCommitFailed
	StatePushFailed
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case StateStart:
		return "Start"
	case StateStaged:
		return "Staged"
	case StateCommitPending:
		return "CommitPending"
	case StateCommitted:
		return "Committed"
	case StateNothingToCommit:
		return "NothingToCommit"
	case StatePushed:
		return "Pushed"
	case StateStageFailed:
		return "StageFailed"
	case StateCommitFailed:
		return "CommitFailed"
	case StatePushFailed:
		return "PushFailed"
	default:
		return "Unknown"
	}
}

// Failed reports whether s is one of the failure outcomes.
func (s State) Failed() bool {
	return s == StateStageFailed || s == StateCommitFailed || s == StatePushFailed
}

// Step names used in the trace.
const (
	StepStage   = "stage"
	StepUnstage = "unstage"
	StepStatus  = "status"
	StepCommit  = "commit"
	StepPush    = "push"
)

// Step records one pipeline step.
type Step struct {
	Name string
	// Target is the path for unstage steps.
	Target   string
	State    State
	Err      error
	Duration time.Duration
}

// Tolerated reports whether the step failed without ending the pipeline.
func (s Step) Tolerated() bool {
	return s.Err != nil && !s.State.Failed()
}

// Publication is the outcome of one run of the pipeline.
type Publication struct {
	State   State
	Message string
	Changes []StatusEntry
	Steps   []Step
}

// Err returns the error of the failing step, tagged with its name, or nil
// when the pipeline did not end in a failure state.
func (p *Publication) Err() error {
	if !p.State.Failed() {
		return nil
	}
	for i := len(p.Steps) - 1; i >= 0; i-- {
		step := p.Steps[i]
		if step.Err != nil && step.State.Failed() {
			return gitstampErrors.Mark(gitstampErrors.WithStage(step.Err, step.Name), gitstampErrors.ErrPublishFailed)
		}
	}
	return gitstampErrors.Wrap(gitstampErrors.ErrPublishFailed, p.State.String())
}

// enter moves the pipeline to s and records s on the latest step.
func (p *Publication) enter(s State) {
	p.State = s
	if n := len(p.Steps); n > 0 {
		p.Steps[n-1].State = s
	}
}

// PublisherConfig controls the publish pipeline.
type PublisherConfig struct {
	RemoteName   string
	RemoteBranch string

	// UnstagePaths are removed from the index after staging. Failing to
	// unstage one is logged and ignored.
	UnstagePaths []string

	// CommitPrefix starts the commit message; the timestamp follows it.
	CommitPrefix string

	// PushWhenClean pushes even when there was nothing to commit.
	PushWhenClean bool
}

// Publisher stages, commits and force-pushes the working tree.
//
// The push always overwrites the remote branch. Commits that other writers
// pushed to that branch are discarded without notice.
type Publisher struct {
	repo   *Repository
	config PublisherConfig
	logger logger.Logger
}

// NewPublisher creates a Publisher for repo.
func NewPublisher(repo *Repository, config PublisherConfig, logger logger.Logger) *Publisher {
	return &Publisher{
		repo:   repo,
		config: config,
		logger: logger,
	}
}

// CommitMessage returns the message used for a commit made at timestamp.
func (p *Publisher) CommitMessage(timestamp string) string {
	return strings.TrimSpace(p.config.CommitPrefix + " " + timestamp)
}

// Publish runs the pipeline once. The returned Publication is never nil and
// holds the trace of every step that ran. The error is non-nil when the
// pipeline ends in a failure state or ctx is done between two steps.
func (p *Publisher) Publish(ctx context.Context, timestamp string) (*Publication, error) {
	pub := &Publication{State: StateStart}

	if err := ctx.Err(); err != nil {
		return pub, err
	}

	if err := p.step(pub, StepStage, "", func() error { return p.repo.StageAll(ctx) }); err != nil {
		pub.enter(StateStageFailed)
		return pub, pub.Err()
	}
	pub.enter(StateStaged)

	for _, path := range p.config.UnstagePaths {
		if err := ctx.Err(); err != nil {
			return pub, err
		}
		if err := p.step(pub, StepUnstage, path, func() error { return p.repo.Unstage(ctx, path) }); err != nil {
			p.logger.Warning("Could not unstage %s: %v", path, err)
		}
		pub.enter(StateStaged)
	}

	if err := ctx.Err(); err != nil {
		return pub, err
	}

	var entries []StatusEntry
	err := p.step(pub, StepStatus, "", func() error {
		var statusErr error
		entries, statusErr = p.repo.Status(ctx)
		return statusErr
	})
	if err != nil {
		pub.enter(StateCommitFailed)
		return pub, pub.Err()
	}
	pub.Changes = entries

	if !HasStaged(entries) {
		pub.enter(StateNothingToCommit)
		p.logger.Info("Nothing to commit (%d unstaged entries)", len(entries))

		if !p.config.PushWhenClean {
			return pub, nil
		}
		return p.push(ctx, pub)
	}

	pub.enter(StateCommitPending)

	if err := ctx.Err(); err != nil {
		return pub, err
	}

	pub.Message = p.CommitMessage(timestamp)
	if err := p.step(pub, StepCommit, "", func() error { return p.repo.Commit(ctx, pub.Message) }); err != nil {
		pub.enter(StateCommitFailed)
		return pub, pub.Err()
	}
	pub.enter(StateCommitted)

	return p.push(ctx, pub)
}

func (p *Publisher) push(ctx context.Context, pub *Publication) (*Publication, error) {
	if err := ctx.Err(); err != nil {
		return pub, err
	}

	err := p.step(pub, StepPush, p.config.RemoteName+"/"+p.config.RemoteBranch, func() error {
		return p.repo.Push(ctx, p.config.RemoteName, p.config.RemoteBranch, true)
	})
	if err != nil {
		pub.enter(StatePushFailed)
		return pub, pub.Err()
	}

	pub.enter(StatePushed)
	return pub, nil
}

// step runs fn and appends its trace entry. The caller moves the
// pipeline on with enter once it knows the next state.
func (p *Publisher) step(pub *Publication, name, target string, fn func() error) error {
	start := time.Now()
	err := fn()
	pub.Steps = append(pub.Steps, Step{
		Name:     name,
		Target:   target,
		State:    pub.State,
		Err:      err,
		Duration: time.Since(start),
	})

	if err != nil {
		p.logger.Info("Step %s failed after %s: %v", name, time.Since(start), err)
	} else {
		p.logger.Info("Step %s done in %s", name, time.Since(start))
	}
	return err
}
