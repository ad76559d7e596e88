//go:build !unix

package lock

import (
	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
)

// Locker is unavailable on this platform.
type Locker struct{}

// New always fails: project locking needs flock(2).
func New(projectPath string) (*Locker, error) {
	return nil, gitstampErrors.NewLockError(lockFilePath(projectPath), 0,
		gitstampErrors.Wrap(gitstampErrors.ErrLockAcquisitionFailure,
			"gitstamp only supports Unix-like operating systems (Linux, macOS, BSD)"))
}

// Path returns an empty string.
func (l *Locker) Path() string { return "" }

// Acquire always fails.
func (l *Locker) Acquire() error { return gitstampErrors.ErrLockAcquisitionFailure }

// Release does nothing.
func (l *Locker) Release() error { return nil }
