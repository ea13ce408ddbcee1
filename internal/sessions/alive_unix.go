//go:build unix

package sessions

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ProcessAlive reports whether pid names a running process. EPERM means
// the process exists but belongs to someone else.
func ProcessAlive(pid int32) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(int(pid), 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
