//go:build !windows

package config

import "golang.org/x/sys/unix"

// processAlive reports whether pid names a running process. EPERM means
// it exists but belongs to another user.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
