package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/alecthomas/kong"
	"github.com/schollz/progressbar/v3"

	"github.com/bashhack/gitstamp/internal/config"
	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
	"github.com/bashhack/gitstamp/internal/git"
	"github.com/bashhack/gitstamp/internal/lock"
	"github.com/bashhack/gitstamp/internal/logger"
	"github.com/bashhack/gitstamp/internal/runner"
	"github.com/bashhack/gitstamp/internal/stamp"
)

// errForcePushDeclined is returned when the user answers no to the
// force-push warning.
var errForcePushDeclined = gitstampErrors.New("force-push declined")

// Stamper runs gitstamp cycles
type Stamper interface {
	Prepare(ctx context.Context) error
	Run(ctx context.Context) error
	PrintSummary()
}

// Locker manages file locking
type Locker interface {
	Acquire() error
	Release() error
}

// AppOptions contains app configuration and dependencies.
// Only Config is required; every nil field gets a default during
// Initialize.
type AppOptions struct {
	// Config holds the parsed command line (required).
	Config *config.Config

	// Optional components

	// Logger provides logging for both the debug log and the terminal.
	Logger logger.Logger

	// Locker keeps a second gitstamp away from the same project.
	Locker Locker

	// Stamper runs the cycles. Defaults to a runner.Runner built from the
	// finalized settings.
	Stamper Stamper

	// Interactor answers the force-push confirmation. Defaults depend on
	// --yes, --non-interactive and whether stdin is a terminal.
	Interactor git.UserInteractor

	// I/O dependencies

	Stdout io.Writer
	Stderr io.Writer

	// System dependencies

	// Exit terminates the process (defaults to os.Exit).
	Exit func(code int)

	// ExecLookPath locates the git executable (defaults to exec.LookPath).
	ExecLookPath func(file string) (string, error)

	// IsTerminal reports whether stdin is interactive.
	IsTerminal func() bool
}

// App is the gitstamp application. It owns the lifecycle: configuration,
// lock, force-push confirmation, the cycles, and cleanup.
type App struct {
	Config   *config.Config
	Settings *config.Settings
	Logger   logger.Logger
	Locker   Locker
	Stamper  Stamper

	Interactor git.UserInteractor

	Stdout io.Writer
	Stderr io.Writer

	exit         func(code int)
	execLookPath func(file string) (string, error)
	isTerminal   func() bool

	initialized bool
	started     bool
	closeOnce   sync.Once
	closeErr    error

	progressMu sync.Mutex
	progress   *progressbar.ProgressBar
}

// NewApp creates an App with the dependencies in opts. It panics if
// opts.Config is nil.
func NewApp(opts AppOptions) *App {
	if opts.Config == nil {
		panic("Config is required in AppOptions")
	}

	app := &App{
		Config:       opts.Config,
		Logger:       opts.Logger,
		Locker:       opts.Locker,
		Stamper:      opts.Stamper,
		Interactor:   opts.Interactor,
		Stdout:       opts.Stdout,
		Stderr:       opts.Stderr,
		exit:         opts.Exit,
		execLookPath: opts.ExecLookPath,
		isTerminal:   opts.IsTerminal,
	}

	// Set defaults for nil dependencies
	if app.Stdout == nil {
		app.Stdout = os.Stdout
	}
	if app.Stderr == nil {
		app.Stderr = os.Stderr
	}
	if app.exit == nil {
		app.exit = os.Exit
	}
	if app.execLookPath == nil {
		app.execLookPath = exec.LookPath
	}
	if app.isTerminal == nil {
		app.isTerminal = func() bool { return git.IsTerminal(os.Stdin) }
	}

	return app
}

// kongOptions configures the command line parser.
func kongOptions(info config.VersionInfo) []kong.Option {
	return []kong.Option{
		kong.Name("gitstamp"),
		kong.Description("Stamp source files with a \"Last Updated\" line, commit them, and force-push the result."),
		kong.Configuration(config.YAMLLoader, ".gitstamp.yaml", "~/.config/gitstamp/config.yaml"),
		kong.Vars{"version": info.String()},
		kong.UsageOnError(),
	}
}

// Initialize finalizes the configuration and sets up every component not
// provided at construction. Calling it again does nothing.
func (a *App) Initialize() error {
	if a.initialized {
		return nil
	}

	settings, err := a.Config.Finalize()
	if err != nil {
		if gitstampErrors.Is(err, gitstampErrors.ErrInvalidConfiguration) {
			return err
		}
		return gitstampErrors.Wrap(gitstampErrors.ErrInvalidConfiguration, err.Error())
	}
	a.Settings = settings

	if a.Logger == nil {
		a.Logger = logger.NewWithOutput(a.Config.Debug, a.Config.LogFile, a.Config.Verbose(), a.Stdout, a.Stderr)
	}

	if a.Locker == nil {
		locker, err := lock.New(settings.ProjectPath)
		if err != nil {
			return gitstampErrors.Wrap(err, "failed to initialize lock")
		}
		a.Locker = locker
	}

	if a.Interactor == nil {
		switch {
		case a.Config.Yes, a.Config.NonInteractive:
			a.Interactor = git.NewNonInteractiveInteractor(true)
		case !a.isTerminal():
			a.Logger.Info("stdin is not a terminal, continuing without confirmation")
			a.Interactor = git.NewNonInteractiveInteractor(true)
		default:
			a.Interactor = git.NewDefaultInteractor(a.Logger)
		}
	}

	if a.Stamper == nil {
		opts := runner.Options{
			Settings: settings,
			Logger:   a.Logger,
			Verbose:  a.Config.Debug,
		}
		if a.Config.Progress {
			opts.OnWalk = a.startProgress
			opts.OnFile = a.advanceProgress
		}
		r, err := runner.New(opts)
		if err != nil {
			return gitstampErrors.Wrap(err, "failed to create runner")
		}
		a.Stamper = r
	}

	a.initialized = true
	return nil
}

// Run executes the application with the given context
func (a *App) Run(ctx context.Context) error {
	if err := a.Initialize(); err != nil {
		return err
	}

	// Ensure we always clean up logger / lock, even on early error paths
	defer func() {
		if err := a.Close(); err != nil {
			_, _ = fmt.Fprintf(a.Stderr, "❌ Error during cleanup: %v\n", err)
		}
	}()

	if err := a.checkRequiredCommands(); err != nil {
		_, _ = fmt.Fprintf(a.Stderr, "❌ Error: %v. Please install it and try again.\n", err)
		return err
	}

	if err := a.Locker.Acquire(); err != nil {
		if gitstampErrors.Is(err, gitstampErrors.ErrAlreadyRunning) {
			return err
		}
		return gitstampErrors.Wrap(gitstampErrors.ErrLockAcquisitionFailure, err.Error())
	}

	if err := a.Stamper.Prepare(ctx); err != nil {
		return err
	}
	a.Logger.Info("Git repository verified")

	if !git.ConfirmForcePush(a.Interactor, a.Logger, a.Settings.RemoteName, a.Settings.RemoteBranch) {
		a.Logger.InfoToUser("Nothing was stamped or published")
		return errForcePushDeclined
	}

	a.started = true
	return a.Stamper.Run(ctx)
}

// Started reports whether cycles were run, so a summary is worth printing.
func (a *App) Started() bool {
	return a.started
}

// checkRequiredCommands verifies git is available in PATH
func (a *App) checkRequiredCommands() error {
	_, err := a.execLookPath("git")
	if err != nil {
		return gitstampErrors.New("git is not found in PATH")
	}
	return nil
}

func (a *App) startProgress(total int) {
	a.progressMu.Lock()
	defer a.progressMu.Unlock()

	if a.progress != nil {
		_ = a.progress.Finish()
	}
	a.progress = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(a.Stderr),
		progressbar.OptionSetDescription("stamping"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionClearOnFinish(),
	)
}

func (a *App) advanceProgress(stamp.FileResult) {
	a.progressMu.Lock()
	bar := a.progress
	a.progressMu.Unlock()

	if bar != nil {
		_ = bar.Add(1)
	}
}

// Close releases resources held by the App. Only the first call does
// anything.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		var errs []error

		a.progressMu.Lock()
		if a.progress != nil {
			_ = a.progress.Finish()
			a.progress = nil
		}
		a.progressMu.Unlock()

		if a.Locker != nil {
			if err := a.Locker.Release(); err != nil {
				if a.Logger != nil {
					a.Logger.Error("Failed to release lock during cleanup: %v", err)
				} else {
					_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to release lock during cleanup: %v\n", err)
				}
				errs = append(errs, err)
			}
		}

		if a.Logger != nil {
			if err := a.Logger.Close(); err != nil {
				_, _ = fmt.Fprintf(a.Stderr, "❌ Failed to close logger: %v\n", err)
				errs = append(errs, err)
			}
		}

		a.closeErr = gitstampErrors.Join(errs...)
	})
	return a.closeErr
}

// CleanupOnSignal releases the lock and shows a summary when a signal
// did not stop the cycles in time.
func (a *App) CleanupOnSignal() {
	if err := a.Close(); err != nil {
		_, _ = fmt.Fprintf(a.Stderr, "❌ Error during cleanup: %v\n", err)
	}

	if a.started && a.Stamper != nil {
		a.Stamper.PrintSummary()
	}
}

// exitCode maps the result of Run to the process exit status. Signal
// driven shutdown and a declined confirmation are not failures.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case gitstampErrors.Is(err, context.Canceled):
		return 0
	case gitstampErrors.Is(err, errForcePushDeclined):
		return 0
	default:
		return 1
	}
}
