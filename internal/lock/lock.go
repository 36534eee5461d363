// Package lock provides whole-file advisory locks with a bounded wait.
//
// A waiter never blocks in the kernel: it retries a non-blocking fcntl until
// the lock is granted or the timeout expires, then reports ErrLockTimeout.
// Locks are not reentrant.
package lock

import (
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sys/unix"
)

// DefaultTimeout is how long a waiter blocks before giving up.
const DefaultTimeout = 10 * time.Second

const (
	minBackoff = time.Millisecond
	maxBackoff = 50 * time.Millisecond
)

type Mode int16

const (
	Read  Mode = unix.F_RDLCK
	Write Mode = unix.F_WRLCK
)

func (m Mode) String() string {
	if m == Write {
		return "write"
	}
	return "read"
}

// Descriptor is an open file (*os.File satisfies it).
type Descriptor interface {
	Fd() uintptr
}

// Acquire takes a whole-file lock of the given mode on f, waiting at most
// timeout. A non-positive timeout makes a single attempt.
func Acquire(f Descriptor, mode Mode, timeout time.Duration) error {
	fl := unix.Flock_t{Type: int16(mode), Whence: io.SeekStart}
	deadline := time.Now().Add(timeout)
	backoff := minBackoff

	for {
		err := setLock(f.Fd(), &fl)
		if err == nil {
			return nil
		}
		if !isContended(err) {
			return fmt.Errorf("%w: %s lock: %w", ErrLockFailed, mode, err)
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w: %s lock after %s", ErrLockTimeout, mode, timeout)
		}
		time.Sleep(min(backoff, remaining))
		backoff = min(backoff*2, maxBackoff)
	}
}

// Release drops any lock held on f through this descriptor.
func Release(f Descriptor) error {
	fl := unix.Flock_t{Type: unix.F_UNLCK, Whence: io.SeekStart}
	if err := setLock(f.Fd(), &fl); err != nil {
		return fmt.Errorf("%w: unlock: %w", ErrLockFailed, err)
	}
	return nil
}

func isContended(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EACCES) || errors.Is(err, unix.EINTR)
}
