package errors

import (
	"fmt"
	"strings"

	crdb "github.com/cockroachdb/errors"
	"github.com/hashicorp/go-multierror"
)

// Sentinel errors that can be used with errors.Is() for error type checking
var (
	// ErrNotGitRepository indicates the project path is not a git repository
	ErrNotGitRepository = crdb.New("not a git repository")

	// ErrLockAcquisitionFailure indicates a lock file could not be acquired
	ErrLockAcquisitionFailure = crdb.New("failed to acquire lock")

	// ErrAlreadyRunning indicates another gitstamp instance is running for this project
	ErrAlreadyRunning = crdb.New("another gitstamp instance is already running for this project")

	// ErrCommandFailed indicates an external command exited with a non-zero status
	ErrCommandFailed = crdb.New("command failed")

	// ErrCommandTimeout indicates an external command did not finish within its deadline
	ErrCommandTimeout = crdb.New("command timed out")

	// ErrFileIO indicates a file could not be read or written
	ErrFileIO = crdb.New("file i/o failure")

	// ErrPublishFailed indicates the publish pipeline ended in a failure state
	ErrPublishFailed = crdb.New("publish failed")

	// ErrInvalidConfiguration indicates an invalid or conflicting user configuration
	ErrInvalidConfiguration = crdb.New("invalid configuration")
)

// New creates a new error with the given message.
func New(message string) error {
	return crdb.New(message)
}

// Errorf creates a new formatted error.
func Errorf(format string, args ...interface{}) error {
	return crdb.Errorf(format, args...)
}

// Wrap wraps an error with a message for better context.
func Wrap(err error, message string) error {
	return crdb.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message for better context.
func Wrapf(err error, format string, args ...interface{}) error {
	return crdb.Wrapf(err, format, args...)
}

// Mark returns err unchanged in message but matching reference with Is.
func Mark(err error, reference error) error {
	return crdb.Mark(err, reference)
}

// Is reports whether target is in err's chain.
func Is(err, target error) bool {
	return crdb.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool {
	return crdb.As(err, target)
}

// Join combines several errors into one. Nil entries are dropped and
// nil is returned when nothing is left.
func Join(errs ...error) error {
	var result *multierror.Error
	for _, err := range errs {
		if err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}

// CommandError represents an external command that failed, timed out or could
// not be started. Stage names the pipeline step that issued it.
type CommandError struct {
	Stage    string
	Program  string
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

// Error implements the error interface with a detailed, user-friendly error message.
func (e *CommandError) Error() string {
	msg := fmt.Sprintf("%s failed", e.command())
	if e.Stage != "" {
		msg = fmt.Sprintf("%s: %s", e.Stage, msg)
	}
	if e.ExitCode > 0 {
		msg = fmt.Sprintf("%s (exit %d)", msg, e.ExitCode)
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, stderr)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CommandError) command() string {
	if len(e.Args) == 0 {
		return e.Program
	}
	return e.Program + " " + strings.Join(e.Args, " ")
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a new CommandError with the given parameters.
func NewCommandError(program string, args []string, exitCode int, stderr string, err error) *CommandError {
	return &CommandError{
		Program:  program,
		Args:     args,
		ExitCode: exitCode,
		Stderr:   stderr,
		Err:      err,
	}
}

// WithStage returns err tagged with the pipeline stage that produced it.
// Errors that are not CommandErrors are wrapped with the stage name instead.
func WithStage(err error, stage string) error {
	if err == nil {
		return nil
	}
	var cmdErr *CommandError
	if As(err, &cmdErr) {
		tagged := *cmdErr
		tagged.Stage = stage
		return &tagged
	}
	return Wrap(err, stage)
}

// FileIOError represents a failure to read or write a single file.
type FileIOError struct {
	Path string
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *FileIOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *FileIOError) Unwrap() error {
	return e.Err
}

// Is makes every FileIOError match ErrFileIO.
func (e *FileIOError) Is(target error) bool {
	return target == ErrFileIO
}

// NewFileIOError creates a new FileIOError with the given parameters.
func NewFileIOError(path, op string, err error) *FileIOError {
	return &FileIOError{
		Path: path,
		Op:   op,
		Err:  err,
	}
}

// LockError represents an error that occurred when interacting with file locks.
// It includes the lock file path, process ID if available, and underlying error.
type LockError struct {
	LockFile string
	PID      int
	Err      error
}

// Error implements the error interface with details about the lock file and process.
func (e *LockError) Error() string {
	if e.PID > 0 {
		return fmt.Sprintf("lock error with file %s (PID: %d): %v", e.LockFile, e.PID, e.Err)
	}
	return fmt.Sprintf("lock error with file %s: %v", e.LockFile, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *LockError) Unwrap() error {
	return e.Err
}

// NewLockError creates a new LockError with the given parameters.
func NewLockError(lockFile string, pid int, err error) *LockError {
	return &LockError{
		LockFile: lockFile,
		PID:      pid,
		Err:      err,
	}
}

// ConfigError represents an error in the application configuration.
// It includes the parameter name, its value if available, and the underlying error.
type ConfigError struct {
	Parameter string
	Value     interface{}
	Err       error
}

// Error implements the error interface with details about the invalid configuration.
func (e *ConfigError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("configuration error for %s = %v: %v", e.Parameter, e.Value, e.Err)
	}
	return fmt.Sprintf("configuration error for %s: %v", e.Parameter, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is and errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is makes every ConfigError match ErrInvalidConfiguration.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// NewConfigError creates a new ConfigError with the given parameters.
func NewConfigError(parameter string, value interface{}, err error) *ConfigError {
	return &ConfigError{
		Parameter: parameter,
		Value:     value,
		Err:       err,
	}
}
