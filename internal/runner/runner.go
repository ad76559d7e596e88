package runner

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/bashhack/gitstamp/internal/config"
	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
	"github.com/bashhack/gitstamp/internal/git"
	"github.com/bashhack/gitstamp/internal/logger"
	"github.com/bashhack/gitstamp/internal/scan"
	"github.com/bashhack/gitstamp/internal/stamp"
)

// Options holds the dependencies of a Runner. Settings and Logger are
// required; the rest have defaults.
type Options struct {
	Settings *config.Settings
	Logger   logger.Logger

	// CommandRunner executes git. Defaults to an ExecRunner bounded by
	// Settings.CommandTimeout.
	CommandRunner git.CommandRunner

	// Now returns the time used for the marker lines of a cycle.
	Now func() time.Time

	// Verbose prints the per-step trace of every cycle.
	Verbose bool

	// OnWalk is called with the number of candidates before stamping starts.
	OnWalk func(candidates int)

	// OnFile is called after every stamped file, possibly concurrently.
	OnFile func(stamp.FileResult)
}

// Cycle is the record of one walk, stamp and publish pass.
type Cycle struct {
	Number      int
	Timestamp   string
	Walk        *scan.Result
	Stamp       *stamp.Report
	Ignored     []string
	Publication *git.Publication
	Duration    time.Duration
	Err         error
}

// Runner stamps a project and publishes it, once or periodically.
type Runner struct {
	settings  *config.Settings
	logger    logger.Logger
	repo      *git.Repository
	publisher *git.Publisher
	stamper   *stamp.Stamper
	filter    *scan.Filter
	now       func() time.Time
	verbose   bool
	onWalk    func(int)

	// cycle is RunOnce; tests replace it to drive the loop.
	cycle func(ctx context.Context) (*Cycle, error)

	startTime time.Time
	stats     stats
}

type stats struct {
	cycles       int
	failures     int
	commits      int
	pushes       int
	filesChanged int
	bytesWritten int64
	lastPush     time.Time
	last         *Cycle
}

// New creates a Runner from validated settings.
func New(opts Options) (*Runner, error) {
	if opts.Settings == nil {
		return nil, gitstampErrors.New("runner needs settings")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	s := opts.Settings

	filter, err := scan.NewFilter(scan.FilterConfigFromSettings(s))
	if err != nil {
		return nil, err
	}

	cmdRunner := opts.CommandRunner
	if cmdRunner == nil {
		cmdRunner = git.NewExecRunner(s.CommandTimeout)
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	repo := git.NewRepository(s.ProjectPath, cmdRunner, log)

	r := &Runner{
		settings: s,
		logger:   log,
		repo:     repo,
		publisher: git.NewPublisher(repo, git.PublisherConfig{
			RemoteName:    s.RemoteName,
			RemoteBranch:  s.RemoteBranch,
			UnstagePaths:  s.UnstagePaths,
			CommitPrefix:  s.CommitPrefix,
			PushWhenClean: s.PushWhenClean,
		}, log),
		stamper: stamp.New(stamp.Options{
			EmptyFiles: s.EmptyFiles,
			Workers:    s.Workers,
			OnFile:     opts.OnFile,
		}, log),
		filter:    filter,
		now:       now,
		verbose:   opts.Verbose,
		onWalk:    opts.OnWalk,
		startTime: time.Now(),
	}
	r.cycle = r.RunOnce
	return r, nil
}

// Prepare checks that the project is a git repository. With bootstrap
// enabled it creates the repository and the remote instead.
func (r *Runner) Prepare(ctx context.Context) error {
	if r.settings.Bootstrap {
		_, err := git.Bootstrap(ctx, r.repo, r.settings.RemoteName, r.settings.RemoteURL)
		return err
	}

	isRepo, err := git.IsRepository(r.settings.ProjectPath)
	if err != nil {
		return gitstampErrors.Wrapf(err, "failed to inspect %s", r.settings.ProjectPath)
	}
	if !isRepo {
		return gitstampErrors.Wrapf(gitstampErrors.ErrNotGitRepository, "%s (use --bootstrap to create it)", r.settings.ProjectPath)
	}
	return nil
}

// RunOnce performs a single cycle: walk the project, stamp every eligible
// file, maintain the ignore list for secret files, and publish. File
// failures are reported in the cycle but do not fail it. The error is
// non-nil when the walk, the ignore list maintenance or the publish
// pipeline fails, or when ctx is done.
func (r *Runner) RunOnce(ctx context.Context) (*Cycle, error) {
	start := r.now()
	c := &Cycle{
		Number:    r.stats.cycles + 1,
		Timestamp: start.Format(config.TimestampLayout),
	}
	r.stats.cycles++

	err := r.runCycle(ctx, c)
	c.Duration = time.Since(start)
	c.Err = err

	r.record(c)
	r.reportCycle(c)
	return c, err
}

func (r *Runner) runCycle(ctx context.Context, c *Cycle) error {
	// .gitignore may have changed since the last cycle
	if r.settings.RespectGitignore {
		filter, err := scan.NewFilter(scan.FilterConfigFromSettings(r.settings))
		if err != nil {
			return err
		}
		r.filter = filter
	}

	walk, err := scan.Walk(ctx, r.settings.ProjectPath, r.filter)
	c.Walk = walk
	if err != nil {
		return gitstampErrors.Wrap(err, "failed to walk project")
	}
	for _, walkErr := range walk.Errors {
		r.logger.Warning("Skipped unreadable path: %v", walkErr)
	}
	r.logger.Info("Walk found %d candidates in %d files, pruned %d directories",
		len(walk.Candidates), walk.Visited, len(walk.Pruned))

	if r.onWalk != nil {
		r.onWalk(len(walk.Candidates))
	}

	report, err := r.stamper.StampAll(ctx, walk.Candidates, c.Timestamp)
	c.Stamp = report
	if err != nil {
		return err
	}
	for _, failure := range report.Failures() {
		r.logger.WarningToUser("Could not stamp %s: %v", failure.Path, failure.Err)
	}

	for _, secret := range r.settings.SecretFiles {
		changed, err := r.repo.EnsureIgnored(secret)
		if err != nil {
			return gitstampErrors.Wrapf(err, "failed to ignore secret file %s", secret)
		}
		if changed {
			c.Ignored = append(c.Ignored, secret)
			r.logger.InfoToUser("Added %s to .gitignore", secret)
		}
		if err := r.repo.Untrack(ctx, secret); err != nil {
			return gitstampErrors.WithStage(err, "untrack "+secret)
		}
	}

	pub, err := r.publisher.Publish(ctx, c.Timestamp)
	c.Publication = pub
	return err
}

func (r *Runner) record(c *Cycle) {
	r.stats.last = c
	if c.Err != nil {
		r.stats.failures++
	}
	if c.Stamp != nil {
		r.stats.filesChanged += c.Stamp.Changed()
		r.stats.bytesWritten += c.Stamp.BytesWritten()
	}
	if c.Publication == nil {
		return
	}

	committed := lo.ContainsBy(c.Publication.Steps, func(s git.Step) bool {
		return s.Name == git.StepCommit && s.Err == nil
	})
	if committed {
		r.stats.commits++
	}
	if c.Publication.State == git.StatePushed {
		r.stats.pushes++
		r.stats.lastPush = r.now()
	}
}

// Run runs cycles until ctx is done. With a zero interval it runs exactly
// one cycle and returns its error. Otherwise a cycle runs immediately and
// then on every tick; failing cycles are retried on the next tick until the
// same error has been seen more than MaxRetries times in a row.
func (r *Runner) Run(ctx context.Context) error {
	r.startTime = time.Now()

	if r.settings.Interval == 0 {
		_, err := r.cycle(ctx)
		return err
	}

	r.logger.InfoToUser("Stamping and publishing %s every %s", r.settings.ProjectPath, r.settings.Interval)

	errorState := struct {
		consecutiveErrors int
		lastErrorMsg      string
	}{}

	operation := func() error {
		_, err := r.cycle(ctx)
		return err
	}

	if err := r.tryOperation(ctx, &errorState, operation); err != nil {
		return err
	}

	ticker := time.NewTicker(r.settings.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Received cancellation signal, shutting down gracefully...")
			return ctx.Err()

		case <-ticker.C:
			if err := r.tryOperation(ctx, &errorState, operation); err != nil {
				return err
			}
		}
	}
}

// tryOperation runs operation and applies the retry policy. It returns an
// error only when the loop must stop: the context is done or the same
// error repeated more than MaxRetries times.
func (r *Runner) tryOperation(
	ctx context.Context,
	errorState *struct {
		consecutiveErrors int
		lastErrorMsg      string
	},
	operation func() error,
) error {
	err := operation()
	if err == nil {
		errorState.consecutiveErrors = 0
		errorState.lastErrorMsg = ""
		return nil
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	currentErrorMsg := err.Error()
	if currentErrorMsg == errorState.lastErrorMsg {
		errorState.consecutiveErrors++
	} else {
		errorState.consecutiveErrors = 1
		errorState.lastErrorMsg = currentErrorMsg
	}

	// '>' so that MaxRetries = 1 still allows one retry
	if r.settings.MaxRetries > 0 && errorState.consecutiveErrors > r.settings.MaxRetries {
		r.logger.WarningToUser("Too many consecutive errors (same error %d times in a row). Stopping gitstamp.",
			errorState.consecutiveErrors)
		return gitstampErrors.Wrapf(err, "maximum retries (%d) exceeded", r.settings.MaxRetries)
	}

	r.logger.WarningToUser("Will retry in %s", r.settings.Interval)
	return nil
}

// Repository returns the repository the runner publishes.
func (r *Runner) Repository() *git.Repository {
	return r.repo
}
