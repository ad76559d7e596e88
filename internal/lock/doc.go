// Package lock provides file-based locking for the gitstamp application.
//
// Only one gitstamp instance may stamp and publish a given project at a
// time. Locker takes an exclusive flock(2) on a per-project lock file in
// $XDG_RUNTIME_DIR (or the temp directory) and records its PID there so a
// rejected instance can say who holds the lock.
//
// Basic usage pattern:
//
//	locker, err := lock.New("/path/to/project")
//	if err != nil {
//	    // Handle error
//	}
//
//	if err := locker.Acquire(); err != nil {
//	    // errors.Is(err, errors.ErrAlreadyRunning) when another instance runs
//	}
//	defer locker.Release()
//
// Locking is only available on Unix-like systems.
package lock
