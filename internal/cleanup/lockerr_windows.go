//go:build windows

package cleanup

import (
	"errors"

	"golang.org/x/sys/windows"
)

// IsLockError reports whether err means another process still holds the
// file, so removing it again shortly may succeed.
func IsLockError(err error) bool {
	return errors.Is(err, windows.ERROR_SHARING_VIOLATION) ||
		errors.Is(err, windows.ERROR_LOCK_VIOLATION) ||
		errors.Is(err, windows.ERROR_ACCESS_DENIED)
}
