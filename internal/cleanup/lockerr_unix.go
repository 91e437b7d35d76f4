//go:build unix

package cleanup

import (
	"errors"

	"golang.org/x/sys/unix"
)

// IsLockError reports whether err means another process still holds the
// file, so removing it again shortly may succeed.
func IsLockError(err error) bool {
	return errors.Is(err, unix.EBUSY) ||
		errors.Is(err, unix.ETXTBSY) ||
		errors.Is(err, unix.EACCES)
}
