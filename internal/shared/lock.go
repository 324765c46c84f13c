package shared

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileLock is an advisory, per-input-file lock that keeps two runs off the same cursor.
type FileLock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file used for input inside dir.
//
// The input path is hashed so arbitrary paths map to flat, valid file names.
func LockPath(dir, input string) string {
	sum := sha1.Sum([]byte(input))
	return filepath.Join(dir, hex.EncodeToString(sum[:])+".lock")
}

// AcquireFileLock takes the lock for input without blocking.
//
// Returns [ErrRunInProgress] when another process already holds it.
func AcquireFileLock(dir, input string) (*FileLock, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	path := LockPath(dir, input)
	l := flock.New(path)
	ok, err := l.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunInProgress, input)
	}
	return &FileLock{path: path, lock: l}, nil
}

// Path returns the lock file location.
func (l *FileLock) Path() string { return l.path }

// Release unlocks the file. The lock file itself is left in place.
func (l *FileLock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
