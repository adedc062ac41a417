//go:build linux

package vmapos

import "golang.org/x/sys/unix"

// memfdOpen returns an anonymous, already-unlinked file descriptor
// suitable for backing a ring's double mapping.
func memfdOpen() (int, error) {
	return unix.MemfdCreate("vmap", unix.MFD_CLOEXEC)
}
