//go:build unix

package lock

import (
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"

	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
)

// Locker prevents two gitstamp instances from working on the same project.
//
// The lock is an flock(2) on a per-project file holding the owner's PID.
// The kernel drops the lock when its owner exits, so a file left behind by
// a crashed instance is simply taken over.
type Locker struct {
	lockFile string
	file     *os.File
	pid      int
}

// New creates a Locker for the project at projectPath.
func New(projectPath string) (*Locker, error) {
	return NewAt(lockFilePath(projectPath)), nil
}

// NewAt creates a Locker using lockFile directly.
func NewAt(lockFile string) *Locker {
	return &Locker{
		lockFile: lockFile,
		pid:      os.Getpid(),
	}
}

// Path returns the lock file path.
func (l *Locker) Path() string {
	return l.lockFile
}

// Acquire takes the lock without blocking. When another live process holds
// it the error matches errors.ErrAlreadyRunning.
func (l *Locker) Acquire() error {
	if l.file != nil {
		return nil
	}

	f, err := os.OpenFile(l.lockFile, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return gitstampErrors.NewLockError(l.lockFile, 0,
			gitstampErrors.Mark(gitstampErrors.Wrap(err, "failed to open lock file"), gitstampErrors.ErrLockAcquisitionFailure))
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		_ = f.Close()

		// EWOULDBLOCK and EAGAIN are distinct on some older systems
		if gitstampErrors.Is(err, unix.EWOULDBLOCK) || gitstampErrors.Is(err, unix.EAGAIN) {
			owner, _ := readPID(l.lockFile)
			return gitstampErrors.NewLockError(l.lockFile, owner, gitstampErrors.ErrAlreadyRunning)
		}
		return gitstampErrors.NewLockError(l.lockFile, 0,
			gitstampErrors.Mark(gitstampErrors.Wrap(err, "failed to lock"), gitstampErrors.ErrLockAcquisitionFailure))
	}

	if err := writePID(f, l.pid); err != nil {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		_ = f.Close()
		return gitstampErrors.NewLockError(l.lockFile, l.pid,
			gitstampErrors.Mark(gitstampErrors.Wrap(err, "failed to write PID to lock file"), gitstampErrors.ErrLockAcquisitionFailure))
	}

	l.file = f
	return nil
}

// Release drops the lock and removes the lock file. Releasing a lock that
// is not held does nothing.
func (l *Locker) Release() error {
	if l.file == nil {
		return nil
	}

	f := l.file
	l.file = nil

	var unlockErr, closeErr, removeErr error
	if err := os.Remove(l.lockFile); err != nil && !os.IsNotExist(err) {
		removeErr = gitstampErrors.NewLockError(l.lockFile, l.pid, gitstampErrors.Wrap(err, "failed to remove lock file"))
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_UN); err != nil {
		unlockErr = gitstampErrors.NewLockError(l.lockFile, l.pid, gitstampErrors.Wrap(err, "failed to release lock"))
	}
	if err := f.Close(); err != nil {
		closeErr = gitstampErrors.NewLockError(l.lockFile, l.pid, gitstampErrors.Wrap(err, "failed to close lock file"))
	}

	return gitstampErrors.Join(removeErr, unlockErr, closeErr)
}

func writePID(f *os.File, pid int) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	_, err := f.WriteAt([]byte(strconv.Itoa(pid)), 0)
	return err
}

func readPID(lockFile string) (int, error) {
	data, err := os.ReadFile(lockFile)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
