package lock

import (
	"errors"

	"golang.org/x/sys/unix"
)

/*
 * Open file description locks belong to the open file, not the process.
 * Two handles on the same file conflict even inside one process, and closing
 * an unrelated descriptor does not drop them. Kernels older than 3.15 reject
 * the command with EINVAL; fall back to process-associated locks there.
 */
func setLock(fd uintptr, fl *unix.Flock_t) error {
	fl.Pid = 0
	err := unix.FcntlFlock(fd, unix.F_OFD_SETLK, fl)
	if errors.Is(err, unix.EINVAL) {
		return unix.FcntlFlock(fd, unix.F_SETLK, fl)
	}
	return err
}
