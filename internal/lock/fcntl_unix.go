//go:build unix && !linux

package lock

import "golang.org/x/sys/unix"

func setLock(fd uintptr, fl *unix.Flock_t) error {
	return unix.FcntlFlock(fd, unix.F_SETLK, fl)
}
