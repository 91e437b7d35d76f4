//go:build !unix && !windows

package cleanup

// IsLockError always reports false on platforms without a known
// sharing-violation error.
func IsLockError(error) bool { return false }
